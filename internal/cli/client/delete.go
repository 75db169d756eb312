package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func DeleteCmd() *cobra.Command {
	var (
		file  string
		batch bool
	)

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an entry by ID",
		Long: `Delete entries by ID. Deleting a document also removes its chapter entries.

Examples:
  # Delete a single entry
  loretex delete <entry_id>

  # Batch delete from JSON array of IDs
  echo '["id1","id2","id3"]' | loretex delete --batch

  # Batch delete from file
  loretex delete --batch --file ids.json`,
		Args: func(cmd *cobra.Command, args []string) error {
			batchFlag, _ := cmd.Flags().GetBool("batch")
			if batchFlag {
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("requires exactly 1 argument (entry_id) or use --batch flag")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if batch {
				return runBatchDelete(file, outputJSON)
			}
			return runDelete(args[0], outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file with JSON array of IDs")
	cmd.Flags().BoolVar(&batch, "batch", false, "Enable batch mode (expects JSON array of IDs)")

	return cmd
}

func runDelete(entryID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Delete(fmt.Sprintf("/v1/entries/%s", entryID))
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	var result struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Deleted entry: %s\n", result.ID)
	}

	return nil
}

// runBatchDelete issues one request per ID. Failures are reported per item
// and do not stop the rest of the batch.
func runBatchDelete(file string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	var input []byte
	if file != "" {
		input, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	if len(input) == 0 {
		return fmt.Errorf("no input provided")
	}

	var ids []string
	if err := json.Unmarshal(input, &ids); err != nil {
		return fmt.Errorf("failed to parse JSON array: %w - batch mode expects a JSON array of strings", err)
	}

	if len(ids) == 0 {
		return fmt.Errorf("empty batch: no IDs provided")
	}

	if len(ids) > maxBatchSize {
		return fmt.Errorf("batch size %d exceeds maximum of %d items", len(ids), maxBatchSize)
	}

	response := BatchResponse{
		Results: make([]BatchResult, 0, len(ids)),
		Total:   len(ids),
	}

	for _, id := range ids {
		if id == "" {
			response.Results = append(response.Results, BatchResult{
				Status: "failed",
				Error:  "empty ID",
			})
			response.Failed++
			continue
		}

		if _, err := api.Delete(fmt.Sprintf("/v1/entries/%s", id)); err != nil {
			response.Results = append(response.Results, BatchResult{
				ID:     id,
				Status: "failed",
				Error:  err.Error(),
			})
			response.Failed++
			continue
		}

		response.Results = append(response.Results, BatchResult{
			ID:     id,
			Status: "deleted",
		})
		response.Succeeded++
	}

	output, _ := json.MarshalIndent(response, "", "  ")
	fmt.Println(string(output))

	if response.Failed > 0 && !outputJSON {
		return fmt.Errorf("batch completed with %d failures", response.Failed)
	}

	return nil
}
