package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// FormatYAML renders as YAML, the default for terminals.
	FormatYAML OutputFormat = "yaml"
	// FormatJSON renders as indented JSON, for piping.
	FormatJSON OutputFormat = "json"
	// FormatRaw prints strings and byte slices verbatim.
	FormatRaw OutputFormat = "raw"
)

// OutputOptions configures result rendering.
type OutputOptions struct {
	// Format is the output format; empty means YAML.
	Format OutputFormat

	// File is an output file path; empty means stdout.
	File string

	// Writer overrides File when set.
	Writer io.Writer
}

// Output renders a result to the configured destination.
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout
	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatYAML, "":
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatRaw:
		switch v := result.(type) {
		case string:
			_, err := io.WriteString(w, v)
			return err
		case []byte:
			_, err := w.Write(v)
			return err
		default:
			_, err := fmt.Fprintf(w, "%v", v)
			return err
		}
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}
