package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// CreateEntryRequest represents the create entry API request.
type CreateEntryRequest struct {
	Kind    string   `json:"kind,omitempty"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Summary string   `json:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Pinned  bool     `json:"pinned,omitempty"`
}

// CreateEntryBatchRequest represents the batch create API request.
type CreateEntryBatchRequest struct {
	Entries []CreateEntryRequest `json:"entries"`
}

// BatchResult represents a single result in a streaming batch operation.
type BatchResult struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Title  string `json:"title,omitempty"`
}

// BatchResponse represents the summary of a streaming batch operation.
type BatchResponse struct {
	Results   []BatchResult `json:"results"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

const maxBatchSize = 100

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var (
		file      string
		entryKind string
		title     string
		summary   string
		tags      string
		pin       bool
		batch     bool
		format    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry from stdin or file",
		Long: `Add an entry from JSON input (stdin or file) or markdown with flags.

Oversized content is split into chapter entries on the server; the returned
entry is the parent document.

Examples:
  # Add from JSON on stdin
  echo '{"title":"Refund policy","content":"# Refunds"}' | loretex add

  # Add from a markdown file with flags
  loretex add --file handbook.md --title "Employee Handbook"

  # Pin so it always leads assembled context
  loretex add --file style.md --title "Style Guide" --pin

  # Batch add from a JSON array (all-or-nothing, single request)
  echo '[{"title":"A","content":"..."},{"title":"B","content":"..."}]' | loretex add --batch

  # Streaming batch add from JSONL (one JSON object per line, best-effort)
  cat batch.jsonl | loretex add --batch --format jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if batch {
				if format == "jsonl" {
					return runStreamingBatchAdd(file, outputJSON)
				}
				return runBatchAdd(file, outputJSON)
			}
			return runAdd(file, entryKind, title, summary, tags, pin, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (JSON or markdown)")
	cmd.Flags().StringVarP(&entryKind, "kind", "k", "", "Entry kind (text or document)")
	cmd.Flags().StringVar(&title, "title", "", "Title (required with --file for markdown)")
	cmd.Flags().StringVar(&summary, "summary", "", "Summary (optional; skips automatic summarization)")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	cmd.Flags().BoolVar(&pin, "pin", false, "Pin the entry so it is always included in assembled context")
	cmd.Flags().BoolVar(&batch, "batch", false, "Enable batch mode (expects JSON array input)")
	cmd.Flags().StringVar(&format, "format", "json", "Batch input format: json (array) or jsonl (line-delimited)")

	return cmd
}

func runAdd(file, entryKind, title, summary, tags string, pin, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	var req CreateEntryRequest

	// Read input
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

	// Try to parse as JSON first
	if isJSONInput(input) {
		if err := json.Unmarshal(input, &req); err != nil {
			return fmt.Errorf("failed to parse JSON input: %w", err)
		}
	} else {
		// Treat as markdown
		if title == "" {
			return fmt.Errorf("--title is required when adding markdown content")
		}
		req.Content = string(input)
	}

	// Override with flags if provided
	if entryKind != "" {
		req.Kind = entryKind
	}
	if title != "" {
		req.Title = title
	}
	if summary != "" {
		req.Summary = summary
	}
	if tags != "" {
		req.Tags = splitTags(tags)
	}
	if pin {
		req.Pinned = true
	}

	// Validate
	if req.Title == "" {
		return fmt.Errorf("title is required")
	}
	if req.Content == "" {
		return fmt.Errorf("content is required")
	}

	resp, err := api.Post("/v1/entries", req)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	// Parse response
	var entry Entry
	if err := json.Unmarshal(resp.Data, &entry); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(entry, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Created entry: %s\n", entry.ID)
		fmt.Printf("Title: %s\n", entry.Title)
		fmt.Printf("Kind: %s\n", entry.Kind)
		if entry.Pinned {
			fmt.Println("Pinned: yes")
		}
	}

	return nil
}

func isJSONInput(input []byte) bool {
	s := strings.TrimSpace(string(input))
	return len(s) > 0 && (s[0] == '{' || s[0] == '[')
}

func splitTags(tags string) []string {
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// runBatchAdd sends the whole array in one request. The server persists the
// batch in a single transaction, so a failure means nothing was created.
func runBatchAdd(file string, outputJSON bool) error {
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

	var items []CreateEntryRequest
	if err := json.Unmarshal(input, &items); err != nil {
		return fmt.Errorf("failed to parse JSON array: %w - batch mode expects a JSON array", err)
	}

	if len(items) == 0 {
		return fmt.Errorf("empty batch: no items provided")
	}

	if len(items) > maxBatchSize {
		return fmt.Errorf("batch size %d exceeds maximum of %d items", len(items), maxBatchSize)
	}

	for i, item := range items {
		if item.Title == "" {
			return fmt.Errorf("item %d: title is required", i)
		}
		if item.Content == "" {
			return fmt.Errorf("item %d (%s): content is required", i, item.Title)
		}
	}

	resp, err := api.Post("/v1/entries/batch", CreateEntryBatchRequest{Entries: items})
	if err != nil {
		return fmt.Errorf("batch create failed (no entries were created): %w", err)
	}

	var listResp EntryListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Created %d entries:\n", len(listResp.Items))
		for _, entry := range listResp.Items {
			fmt.Printf("  %s: %s\n", entry.ID, entry.Title)
		}
	}

	return nil
}

// runStreamingBatchAdd processes JSONL input line by line. Each line is its
// own request, so earlier successes survive a later failure.
func runStreamingBatchAdd(file string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	var reader io.Reader
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		reader = f
	} else {
		reader = os.Stdin
	}

	scanner := bufio.NewScanner(reader)
	// Increase buffer size for large lines (up to 5MB per line)
	const maxScanTokenSize = 5 * 1024 * 1024
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	response := BatchResponse{
		Results: make([]BatchResult, 0),
	}

	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue // Skip empty lines
		}

		lineNum++
		response.Total++

		var item CreateEntryRequest
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			result := BatchResult{
				Status: "failed",
				Error:  fmt.Sprintf("line %d: failed to parse JSON: %v", lineNum, err),
			}
			response.Results = append(response.Results, result)
			response.Failed++
			if !outputJSON {
				fmt.Fprintf(os.Stderr, "Line %d: parse error: %v\n", lineNum, err)
			}
			continue
		}

		if item.Title == "" {
			result := BatchResult{
				Status: "failed",
				Error:  "title is required",
			}
			response.Results = append(response.Results, result)
			response.Failed++
			if !outputJSON {
				fmt.Fprintf(os.Stderr, "Line %d: title is required\n", lineNum)
			}
			continue
		}
		if item.Content == "" {
			result := BatchResult{
				Status: "failed",
				Error:  "content is required",
				Title:  item.Title,
			}
			response.Results = append(response.Results, result)
			response.Failed++
			if !outputJSON {
				fmt.Fprintf(os.Stderr, "Line %d: content is required\n", lineNum)
			}
			continue
		}

		resp, err := api.Post("/v1/entries", item)
		if err != nil {
			result := BatchResult{
				Status: "failed",
				Error:  err.Error(),
				Title:  item.Title,
			}
			response.Results = append(response.Results, result)
			response.Failed++
			if !outputJSON {
				fmt.Fprintf(os.Stderr, "Line %d: %v\n", lineNum, err)
			}
			continue
		}

		var entry Entry
		if err := json.Unmarshal(resp.Data, &entry); err != nil {
			result := BatchResult{
				Status: "failed",
				Error:  fmt.Sprintf("failed to parse response: %v", err),
				Title:  item.Title,
			}
			response.Results = append(response.Results, result)
			response.Failed++
			continue
		}

		response.Results = append(response.Results, BatchResult{
			ID:     entry.ID,
			Status: "created",
			Title:  entry.Title,
		})
		response.Succeeded++

		if !outputJSON {
			fmt.Printf("Created: %s - %s\n", entry.ID, entry.Title)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	if response.Total == 0 {
		return fmt.Errorf("no items provided")
	}

	// Output final summary
	if outputJSON {
		output, _ := json.MarshalIndent(response, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("\nBatch complete: %d succeeded, %d failed out of %d total\n",
			response.Succeeded, response.Failed, response.Total)
	}

	if response.Failed > 0 {
		return fmt.Errorf("batch completed with %d failures", response.Failed)
	}

	return nil
}
