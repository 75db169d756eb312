package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// AssembleRequest is the request body for context assembly.
type AssembleRequest struct {
	Query          string `json:"query,omitempty"`
	GenerationType string `json:"generation_type,omitempty"`
}

// AssembleResponse mirrors the server's context assembly response.
type AssembleResponse struct {
	Context         string `json:"context"`
	EntryCount      int    `json:"entry_count"`
	CharCount       int    `json:"char_count"`
	EstimatedTokens int    `json:"estimated_tokens"`
	BudgetChars     int    `json:"budget_chars"`
}

// ContextCmd creates the context command.
func ContextCmd() *cobra.Command {
	var (
		generationType string
		stats          bool
	)

	cmd := &cobra.Command{
		Use:   "context [query]",
		Short: "Assemble the knowledge bank context block",
		Long: `Assemble the workspace knowledge bank into a single context block.

The optional query biases selection toward relevant entries. The --type
flag sizes the budget for the kind of LLM call the context feeds into:
single (one-shot, largest), chain (multi-step), transform (smallest).

The assembled block is printed to stdout so it can be piped straight
into a prompt. Use --stats to print assembly statistics to stderr.

Examples:
  # Assemble with default budget
  loretex context

  # Bias toward a topic and size for a chained call
  loretex context "payment reconciliation" --type chain

  # Pipe into another tool
  loretex context "onboarding" | llm-tool --system-file -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return runContext(query, generationType, stats, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&generationType, "type", "t", "", "Generation type: single, chain, or transform (default budget when unset)")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print assembly statistics to stderr")

	return cmd
}

func runContext(query, generationType string, stats, outputJSON bool) error {
	switch generationType {
	case "", "single", "chain", "transform":
	default:
		return fmt.Errorf("invalid --type %q (expected single, chain, or transform)", generationType)
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/v1/context/assemble", AssembleRequest{
		Query:          query,
		GenerationType: generationType,
	})
	if err != nil {
		return fmt.Errorf("failed to assemble context: %w", err)
	}

	var result AssembleResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	// Stats go to stderr so stdout stays clean for piping.
	if stats {
		fmt.Fprintf(os.Stderr, "Entries: %d\n", result.EntryCount)
		fmt.Fprintf(os.Stderr, "Characters: %d / %d budget\n", result.CharCount, result.BudgetChars)
		fmt.Fprintf(os.Stderr, "Estimated tokens: %d\n", result.EstimatedTokens)
	}

	if result.Context == "" {
		fmt.Fprintln(os.Stderr, "No enabled entries in the knowledge bank; context is empty.")
		return nil
	}

	fmt.Print(result.Context)
	if len(result.Context) > 0 && result.Context[len(result.Context)-1] != '\n' {
		fmt.Println()
	}

	return nil
}
