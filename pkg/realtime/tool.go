package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// Tool metadata shipped to the server alongside name, description, and
// parameters. The client core itself only uses name, description, parameters,
// and the handler.
const (
	OperationModeClient = "client_mode"
	OperationModeServer = "server_mode"

	ExecutionSynchronous  = "synchronous"
	ExecutionAsynchronous = "asynchronous"

	ResultProcessInLLM    = "process_in_llm"
	ResultProcessInClient = "process_in_client"
	ResultIgnore          = "ignore_result"

	ToolLanguagePython = "python"
	ToolLanguageShell  = "shell"

	ToolPlatformLinux   = "linux"
	ToolPlatformMacOS   = "macos"
	ToolPlatformWindows = "windows"
)

// ToolDefinition is the declarative schema of a tool callable by the model.
type ToolDefinition struct {
	// Type is always "function"; it is filled in on registration when empty.
	Type string `json:"type"`

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Parameters is the JSON Schema of the argument object.
	Parameters *jsonschema.Schema `json:"parameters,omitempty"`

	OperationMode  string `json:"operation_mode,omitempty"`
	ExecutionType  string `json:"execution_type,omitempty"`
	ResultHandling string `json:"result_handling,omitempty"`
	Language       string `json:"language,omitempty"`
	Platform       string `json:"platform,omitempty"`
}

// ToolHandler executes a tool call. It receives the decoded argument object
// and returns a JSON-serializable result. A returned error is reported to the
// server as a {"error": message} output.
type ToolHandler func(ctx context.Context, args map[string]any) (any, error)

type registeredTool struct {
	def     ToolDefinition
	handler ToolHandler
}

// FuncTool builds a ToolDefinition and handler from a typed Go function. The
// parameter schema is derived from the argument type.
func FuncTool[Arg any](name, description string, fn func(ctx context.Context, arg Arg) (any, error)) (ToolDefinition, ToolHandler, error) {
	schema, err := jsonschema.For[Arg](nil)
	if err != nil {
		return ToolDefinition{}, nil, fmt.Errorf("realtime: schema for tool %q: %w", name, err)
	}
	def := ToolDefinition{
		Type:        "function",
		Name:        name,
		Description: description,
		Parameters:  schema,
	}
	handler := func(ctx context.Context, args map[string]any) (any, error) {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		var arg Arg
		if err := unmarshalJSON(data, &arg); err != nil {
			return nil, fmt.Errorf("unmarshal %q error: %w", data, err)
		}
		return fn(ctx, arg)
	}
	return def, handler, nil
}

// MustFuncTool is FuncTool that panics on schema derivation failure.
func MustFuncTool[Arg any](name, description string, fn func(ctx context.Context, arg Arg) (any, error)) (ToolDefinition, ToolHandler) {
	def, handler, err := FuncTool(name, description, fn)
	if err != nil {
		panic(err)
	}
	return def, handler
}

// unmarshalJSON unmarshals data into v, repairing malformed JSON on syntax
// errors before retrying. Model-produced argument strings are occasionally
// truncated or under-quoted.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
