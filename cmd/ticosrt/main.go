// Package main provides the ticosrt CLI tool.
//
// Usage:
//
//	ticosrt [flags] <command> [args]
//
// Commands:
//
//	chat     - Interactive text chat over a realtime session
//	events   - Stream raw protocol events to stdout
//	config   - Configuration management
//	version  - Print version information
//
// Configuration:
//
//	The CLI stores configuration in ~/.ticos/ticosrt/
//	Use 'ticosrt config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/tiwater/ticos-realtime-go/cmd/ticosrt/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
