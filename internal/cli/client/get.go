package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Entry represents an entry from the API.
type Entry struct {
	ID            string   `json:"id"`
	WorkspaceID   string   `json:"workspace_id"`
	Kind          string   `json:"kind"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Summary       string   `json:"summary,omitempty"`
	SummaryStatus string   `json:"summary_status,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Pinned        bool     `json:"pinned"`
	Enabled       bool     `json:"enabled"`
	ParentEntryID string   `json:"parent_entry_id,omitempty"`
	ChunkIndex    int      `json:"chunk_index,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// Chunk represents a chapter entry derived from an oversized document.
type Chunk struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	ChunkIndex    int    `json:"chunk_index"`
	SummaryStatus string `json:"summary_status,omitempty"`
}

// EntryDetail is an entry plus its chapter entries.
type EntryDetail struct {
	Entry
	Chunks []Chunk `json:"chunks,omitempty"`
}

// EntryListResponse represents a paginated list of entries.
type EntryListResponse struct {
	Items   []Entry `json:"items"`
	Cursor  string  `json:"cursor,omitempty"`
	HasMore bool    `json:"has_more"`
}

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <entry_id>",
		Short:   "Get an entry by ID",
		Long:    "Retrieves an entry by its ID and displays the full content, including its chapter entries.",
		Aliases: []string{"view"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(entryID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/v1/entries/%s", entryID))
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	var detail EntryDetail
	if err := json.Unmarshal(resp.Data, &detail); err != nil {
		return fmt.Errorf("failed to parse entry: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(detail, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Title: %s\n", detail.Title)
	fmt.Printf("Kind: %s\n", detail.Kind)
	if detail.Pinned {
		fmt.Println("Pinned: yes")
	}
	if !detail.Enabled {
		fmt.Println("Enabled: no")
	}
	if len(detail.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(detail.Tags, ", "))
	}
	if detail.Summary != "" {
		fmt.Printf("Summary: %s\n", detail.Summary)
	} else if detail.SummaryStatus != "" {
		fmt.Printf("Summary: (%s)\n", detail.SummaryStatus)
	}
	fmt.Printf("Created: %s\n", detail.CreatedAt)
	fmt.Printf("Updated: %s\n", detail.UpdatedAt)

	if len(detail.Chunks) > 0 {
		fmt.Printf("\nChapters (%d):\n", len(detail.Chunks))
		for _, chunk := range detail.Chunks {
			fmt.Printf("  %d. %s (%s)\n", chunk.ChunkIndex+1, chunk.Title, chunk.ID)
		}
	}

	fmt.Println()
	fmt.Println("--- Content ---")
	fmt.Println(detail.Content)

	return nil
}
