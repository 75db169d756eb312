package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in the workspace",
		Long:  "Lists top-level entries in the workspace with cursor pagination.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runList(limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	path := "/v1/entries"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var listResp EntryListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(listResp.Items) == 0 {
		fmt.Println("No entries found.")
		return nil
	}

	fmt.Printf("Found %d entries:\n\n", len(listResp.Items))
	for i, entry := range listResp.Items {
		marker := " "
		if entry.Pinned {
			marker = color.New(color.FgYellow).Sprint("*")
		}
		fmt.Printf("%d. %s %s [%s]\n", i+1, marker, entry.Title, entry.Kind)
		if !entry.Enabled {
			fmt.Println("   " + color.New(color.FgRed).Sprint("Enabled: no"))
		}
		if len(entry.Tags) > 0 {
			fmt.Printf("   Tags: %s\n", strings.Join(entry.Tags, ", "))
		}
		if entry.Summary != "" {
			fmt.Printf("   Summary: %s\n", truncate(entry.Summary, 80))
		}
		if entry.UpdatedAt != "" {
			fmt.Printf("   Updated: %s\n", entry.UpdatedAt)
		}
		fmt.Printf("   ID: %s\n", entry.ID)
		if i < len(listResp.Items)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	if listResp.HasMore && listResp.Cursor != "" {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("More results available. Use --cursor %s\n", listResp.Cursor)
	}

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
