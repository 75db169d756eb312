package client

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// InitUploadRequest is the request body for registering a source file.
type InitUploadRequest struct {
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
}

// Source mirrors the server's source response.
type Source struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
	Status    string `json:"status"`
	EntryID   string `json:"entry_id,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// InitUploadResponse is the server's response to a source registration.
type InitUploadResponse struct {
	Source    *Source `json:"source"`
	UploadURL string  `json:"upload_url"`
}

// SourceListResponse is the server's source listing response.
type SourceListResponse struct {
	Items []*Source `json:"items"`
}

// DownloadURLResponse carries a presigned download URL.
type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

// SourceCmd creates the source command group.
func SourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Source file commands",
		Long: `Commands for uploading and managing source files.

Uploaded documents (.txt, .md, .csv, .html, .pdf, .docx) are parsed into
knowledge entries on the server. Images (.png, .jpg, .gif, .webp) are
stored and described by a vision model.`,
	}

	cmd.AddCommand(SourceAddCmd())
	cmd.AddCommand(SourceGetCmd())
	cmd.AddCommand(SourceListCmd())
	cmd.AddCommand(SourceRemoveCmd())

	return cmd
}

// SourceAddCmd creates the source add command.
func SourceAddCmd() *cobra.Command {
	var mimeOverride string

	cmd := &cobra.Command{
		Use:   "add <filepath>",
		Short: "Upload a source file",
		Long: `Upload a file and ingest it into the knowledge bank.

Examples:
  # Upload a document; the parsed entry appears under the returned entry ID
  loretex source add architecture.pdf

  # Upload a reference image
  loretex source add mockup.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSourceAdd(args[0], mimeOverride, outputJSON)
		},
	}

	cmd.Flags().StringVar(&mimeOverride, "mime", "", "Override the detected MIME type")

	return cmd
}

func runSourceAdd(filePath, mimeOverride string, outputJSON bool) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	filename := filepath.Base(filePath)
	mimeType := detectMimeType(filename, mimeOverride)

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fmt.Errorf("failed to calculate hash: %w", err)
	}
	sha256Hash := hex.EncodeToString(hash.Sum(nil))

	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to reset file: %w", err)
	}

	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	initResp, err := api.Post("/v1/sources", InitUploadRequest{
		Filename:  filename,
		MimeType:  mimeType,
		SizeBytes: stat.Size(),
		SHA256:    sha256Hash,
	})
	if err != nil {
		return fmt.Errorf("failed to init upload: %w", err)
	}

	var uploadInfo InitUploadResponse
	if err := json.Unmarshal(initResp.Data, &uploadInfo); err != nil {
		return fmt.Errorf("failed to parse init response: %w", err)
	}
	if uploadInfo.Source == nil || uploadInfo.UploadURL == "" {
		return fmt.Errorf("server did not return an upload URL")
	}

	var onProgress ProgressFunc
	if !outputJSON {
		onProgress = stderrProgress(filename)
	}
	if err := api.UploadReaderWithProgress(uploadInfo.UploadURL, file, stat.Size(), mimeType, onProgress); err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	completeResp, err := api.Post(fmt.Sprintf("/v1/sources/%s/complete", uploadInfo.Source.ID), nil)
	if err != nil {
		return fmt.Errorf("failed to complete upload: %w", err)
	}

	var source Source
	if err := json.Unmarshal(completeResp.Data, &source); err != nil {
		return fmt.Errorf("failed to parse complete response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(source, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Uploaded source: %s\n", source.ID)
	fmt.Printf("Filename: %s\n", source.Filename)
	fmt.Printf("Status: %s\n", source.Status)
	if source.EntryID != "" {
		fmt.Printf("Entry: %s\n", source.EntryID)
	}
	if source.Error != "" {
		fmt.Printf("Error: %s\n", source.Error)
	}

	return nil
}

// stderrProgress returns a progress callback that redraws a percentage line on
// stderr, keeping stdout clean.
func stderrProgress(label string) ProgressFunc {
	return func(current, total int64) {
		if total <= 0 {
			return
		}
		percent := current * 100 / total
		fmt.Fprintf(os.Stderr, "\rUploading %s... %d%%", label, percent)
		if current >= total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

// SourceGetCmd creates the source get command.
func SourceGetCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "get <source_id>",
		Short: "Download a source file by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSourceGet(args[0], outputPath, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "dest", "o", "", "Output file path (default: original filename in current directory)")

	return cmd
}

func runSourceGet(sourceID, outputPath string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/v1/sources/%s/download", sourceID))
	if err != nil {
		return fmt.Errorf("failed to get download URL: %w", err)
	}

	var downloadResp DownloadURLResponse
	if err := json.Unmarshal(resp.Data, &downloadResp); err != nil {
		return fmt.Errorf("failed to parse download URL response: %w", err)
	}

	if downloadResp.DownloadURL == "" {
		return fmt.Errorf("no download URL returned")
	}

	if outputPath == "" {
		outputPath = extractFilenameFromURL(downloadResp.DownloadURL)
		if outputPath == "" {
			outputPath = sourceID
		}
	}

	if err := api.DownloadFile(downloadResp.DownloadURL, outputPath); err != nil {
		return fmt.Errorf("failed to download source: %w", err)
	}

	if outputJSON {
		result := map[string]interface{}{
			"success":   true,
			"source_id": sourceID,
			"path":      outputPath,
		}
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Downloaded source to %s\n", outputPath)
	}

	return nil
}

// SourceListCmd creates the source list command.
func SourceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List source files in the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSourceList(outputJSON)
		},
	}
}

func runSourceList(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/v1/sources")
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	var result SourceListResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(result.Items) == 0 {
		fmt.Println("No sources found.")
		return nil
	}

	for _, s := range result.Items {
		fmt.Printf("%s  %s %8s  %s\n", s.ID, colorStatus(s.Status), formatSize(s.SizeBytes), s.Filename)
		if s.Error != "" {
			fmt.Printf("  error: %s\n", s.Error)
		}
	}

	return nil
}

// colorStatus pads the status to a fixed column width before coloring so the
// ANSI codes do not break alignment.
func colorStatus(status string) string {
	padded := fmt.Sprintf("%-14s", status)
	switch status {
	case "ingested":
		return color.New(color.FgGreen).Sprint(padded)
	case "failed":
		return color.New(color.FgRed).Sprint(padded)
	default:
		return color.New(color.FgYellow).Sprint(padded)
	}
}

// SourceRemoveCmd creates the source rm command.
func SourceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <source_id>",
		Short: "Delete a source file",
		Long:  "Delete a source file and its stored object. Entries created from the source are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSourceRemove(args[0], outputJSON)
		},
	}
}

func runSourceRemove(sourceID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Delete(fmt.Sprintf("/v1/sources/%s", sourceID))
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	if outputJSON {
		var result map[string]string
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Deleted source: %s\n", sourceID)
	}

	return nil
}

// detectMimeType resolves the MIME type for an upload: an explicit override
// wins, then the filename extension, then a generic binary type.
func detectMimeType(filename, override string) string {
	if override != "" {
		return override
	}
	if mimeType := mime.TypeByExtension(filepath.Ext(filename)); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}

// extractFilenameFromURL extracts the last path component of a URL, ignoring
// query parameters.
func extractFilenameFromURL(url string) string {
	path := url
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	return filepath.Base(path)
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
