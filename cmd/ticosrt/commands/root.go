package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tiwater/ticos-realtime-go/pkg/cli"
	"github.com/tiwater/ticos-realtime-go/pkg/realtime"
)

const appName = "ticosrt"

var (
	// Global flags
	cfgFile     string
	contextName string
	outputJSON  bool
	verbose     bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ticosrt",
	Short: "Realtime conversation CLI",
	Long: `ticosrt - A command line client for the Ticos and OpenAI realtime APIs.

This tool opens a realtime WebSocket session and lets you:
  - Chat interactively with text input (chat)
  - Watch the raw protocol event stream (events)

Configuration is stored in ~/.ticos/ticosrt/ and supports multiple contexts,
similar to kubectl's context management.

Examples:
  # Set up a new context
  ticosrt config add-context myctx --api-key YOUR_API_KEY

  # Chat using a context
  ticosrt -c myctx chat

  # Watch the event stream, filtered with a jq expression
  ticosrt -c myctx events --query '.event | {type: .type}'
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.ticos/ticosrt/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (frame-level debug logging)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

// getContext returns the context configuration to use.
func getContext() (*cli.Context, error) {
	ctx, err := globalConfig.ResolveContext(contextName)
	if err != nil {
		if contextName == "" {
			return nil, fmt.Errorf("no context specified. Use -c or set a default with 'ticosrt config use-context'")
		}
		return nil, err
	}
	return ctx, nil
}

// newClient builds a realtime client from a CLI context.
func newClient(ctx *cli.Context) (*realtime.Client, error) {
	return realtime.NewClient(realtime.Options{
		URL:      ctx.URL,
		APIKey:   ctx.APIKey,
		Provider: realtime.Provider(ctx.Provider),
		Model:    ctx.Model,
		Debug:    verbose,
	})
}

// sessionUpdateFromContext builds the configuration overrides a context
// carries, or nil when it carries none.
func sessionUpdateFromContext(ctx *cli.Context) *realtime.SessionUpdate {
	update := &realtime.SessionUpdate{}
	touched := false
	if ctx.Model != "" {
		update.Model = &realtime.ModelUpdate{Name: ctx.Model}
		touched = true
	}
	if ctx.Instructions != "" {
		if update.Model == nil {
			update.Model = &realtime.ModelUpdate{}
		}
		update.Model.Instructions = &ctx.Instructions
		touched = true
	}
	if ctx.Voice != "" {
		update.Speech = &realtime.SpeechUpdate{Voice: ctx.Voice}
		touched = true
	}
	if !touched {
		return nil
	}
	return update
}
