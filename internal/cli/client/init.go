package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const envFile = ".env"

func InitCmd() *cobra.Command {
	var apiKey string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize loretex in the current directory",
		Long:  "Writes a .env with the API key and verifies it against the server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(apiKey, apiURL, outputJSON)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (default: http://localhost:8080)")

	return cmd
}

func runInit(apiKey, apiURL string, outputJSON bool) error {
	if _, err := os.Stat(envFile); err == nil {
		return fmt.Errorf(".env already exists")
	}

	_ = godotenv.Load()
	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}
	if apiKey == "" {
		fmt.Print("Enter API key: ")
		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		apiKey = strings.TrimSpace(input)
		if apiKey == "" {
			return fmt.Errorf("API key is required")
		}
	}

	if !IsValidAPIKey(apiKey) {
		return fmt.Errorf("invalid API key format (expected: ltx_ + 64 hex characters)")
	}

	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	envData := fmt.Sprintf("LORETEX_API_KEY=%s\nLORETEX_API_URL=%s\n", apiKey, apiURL)
	if err := os.WriteFile(envFile, []byte(envData), 0600); err != nil {
		return fmt.Errorf("failed to create .env: %w", err)
	}

	api, err := NewAPIClientWithConfig(apiKey, apiURL)
	if err != nil {
		os.Remove(envFile)
		return fmt.Errorf("failed to create API client: %w", err)
	}

	// Verify the key actually resolves to a workspace before leaving config behind.
	resp, err := api.Get("/v1/auth/whoami")
	if err != nil {
		os.Remove(envFile)
		return fmt.Errorf("failed to verify API key: %w", err)
	}

	var whoami struct {
		WorkspaceID   string `json:"workspace_id"`
		WorkspaceName string `json:"workspace_name"`
	}
	if err := json.Unmarshal(resp.Data, &whoami); err != nil {
		os.Remove(envFile)
		return fmt.Errorf("failed to parse whoami response: %w", err)
	}

	if outputJSON {
		result := map[string]interface{}{
			"success":        true,
			"workspace_id":   whoami.WorkspaceID,
			"workspace_name": whoami.WorkspaceName,
			"env":            envFile,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Initialized loretex for workspace '%s'\n", whoami.WorkspaceName)
		fmt.Printf("Workspace ID: %s\n", whoami.WorkspaceID)
		fmt.Printf("Credentials saved to %s\n", envFile)
	}

	return nil
}
