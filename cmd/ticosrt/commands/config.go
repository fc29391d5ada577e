package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tiwater/ticos-realtime-go/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

Contexts allow you to manage multiple API configurations,
similar to kubectl's context management.

Configuration is stored in ~/.ticos/ticosrt/config.yaml`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with the specified name.

Example:
  ticosrt config add-context myctx --api-key YOUR_API_KEY
  ticosrt config add-context oai --api-key KEY --provider openai --model gpt-realtime`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		apiKey, err := cmd.Flags().GetString("api-key")
		if err != nil {
			return fmt.Errorf("failed to read 'api-key' flag: %w", err)
		}
		if apiKey == "" {
			return fmt.Errorf("--api-key is required")
		}
		url, err := cmd.Flags().GetString("url")
		if err != nil {
			return fmt.Errorf("failed to read 'url' flag: %w", err)
		}
		provider, err := cmd.Flags().GetString("provider")
		if err != nil {
			return fmt.Errorf("failed to read 'provider' flag: %w", err)
		}
		if provider != "" && provider != "ticos" && provider != "openai" {
			return fmt.Errorf("unknown provider %q (want ticos or openai)", provider)
		}
		model, err := cmd.Flags().GetString("model")
		if err != nil {
			return fmt.Errorf("failed to read 'model' flag: %w", err)
		}
		voice, err := cmd.Flags().GetString("voice")
		if err != nil {
			return fmt.Errorf("failed to read 'voice' flag: %w", err)
		}
		instructions, err := cmd.Flags().GetString("instructions")
		if err != nil {
			return fmt.Errorf("failed to read 'instructions' flag: %w", err)
		}

		err = globalConfig.AddContext(name, &cli.Context{
			APIKey:       apiKey,
			URL:          url,
			Provider:     provider,
			Model:        model,
			Voice:        voice,
			Instructions: instructions,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Context %q added.\n", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := globalConfig.UseContext(args[0]); err != nil {
			return err
		}
		fmt.Printf("Switched to context %q.\n", args[0])
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := globalConfig.DeleteContext(args[0]); err != nil {
			return err
		}
		fmt.Printf("Context %q deleted.\n", args[0])
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:   "list-contexts",
	Short: "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := globalConfig.ListContexts()
		if len(names) == 0 {
			fmt.Println("No contexts configured. Add one with 'ticosrt config add-context'.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tPROVIDER\tMODEL\tAPI KEY")
		for _, name := range names {
			ctx := globalConfig.Contexts[name]
			current := ""
			if name == globalConfig.CurrentContext {
				current = "*"
			}
			provider := ctx.Provider
			if provider == "" {
				provider = "ticos"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				current, name, provider, ctx.Model, cli.MaskAPIKey(ctx.APIKey))
		}
		return w.Flush()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a context (API key masked)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		ctx, err := globalConfig.ResolveContext(name)
		if err != nil {
			return err
		}
		shown := *ctx
		shown.APIKey = cli.MaskAPIKey(ctx.APIKey)

		format := cli.FormatYAML
		if outputJSON {
			format = cli.FormatJSON
		}
		return cli.Output(shown, cli.OutputOptions{Format: format})
	},
}

func init() {
	configAddContextCmd.Flags().String("api-key", "", "API key (required)")
	configAddContextCmd.Flags().String("url", "", "endpoint URL override")
	configAddContextCmd.Flags().String("provider", "", "provider: ticos (default) or openai")
	configAddContextCmd.Flags().String("model", "", "default model for new sessions")
	configAddContextCmd.Flags().String("voice", "", "default voice for new sessions")
	configAddContextCmd.Flags().String("instructions", "", "default system instructions")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configShowCmd)
}
