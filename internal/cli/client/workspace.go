package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// WorkspaceInfo mirrors the server's workspace response.
type WorkspaceInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	Entries   struct {
		Total     int64 `json:"total"`
		Documents int64 `json:"documents"`
		Chunks    int64 `json:"chunks"`
		Pinned    int64 `json:"pinned"`
	} `json:"entries"`
}

// WorkspaceCmd creates the workspace command.
func WorkspaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workspace",
		Short: "Show the current workspace and its entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runWorkspace(outputJSON)
		},
	}
}

func runWorkspace(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/v1/workspace")
	if err != nil {
		return fmt.Errorf("failed to fetch workspace: %w", err)
	}

	var ws WorkspaceInfo
	if err := json.Unmarshal(resp.Data, &ws); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(ws, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Workspace: %s\n", ws.Name)
	fmt.Printf("ID: %s\n", ws.ID)
	fmt.Printf("Created: %s\n", ws.CreatedAt)
	fmt.Printf("Entries: %d total (%d documents, %d chapters, %d pinned)\n",
		ws.Entries.Total, ws.Entries.Documents, ws.Entries.Chunks, ws.Entries.Pinned)

	return nil
}
