package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/loretexai/internal/cli"
	"github.com/cloo-solutions/loretexai/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "loretex",
		Short: "Loretex CLI - Workspace knowledge bank for LLM context",
		Long: `Loretex CLI provides commands to manage a workspace knowledge bank
and assemble it into LLM context blocks.

Environment variables:
  LORETEX_API_KEY   API key for authentication (required)
  LORETEX_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AddCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.PinCmd())
	rootCmd.AddCommand(client.UnpinCmd())
	rootCmd.AddCommand(client.EnableCmd())
	rootCmd.AddCommand(client.DisableCmd())
	rootCmd.AddCommand(client.ContextCmd())
	rootCmd.AddCommand(client.SourceCmd())
	rootCmd.AddCommand(client.WorkspaceCmd())
	rootCmd.AddCommand(client.AuthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
