package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func PinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <entry_id>",
		Short: "Pin an entry so it is always included in assembled context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSetEntryFlag(args[0], "pinned", true, outputJSON)
		},
	}
}

func UnpinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpin <entry_id>",
		Short: "Unpin an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSetEntryFlag(args[0], "pinned", false, outputJSON)
		},
	}
}

func EnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <entry_id>",
		Short: "Enable an entry for context assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSetEntryFlag(args[0], "enabled", true, outputJSON)
		},
	}
}

func DisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <entry_id>",
		Short: "Disable an entry without deleting it",
		Long: `Disable an entry without deleting it.

Disabled entries are kept in the knowledge bank but excluded from
assembled context until re-enabled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSetEntryFlag(args[0], "enabled", false, outputJSON)
		},
	}
}

func runSetEntryFlag(entryID, field string, value, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Patch(fmt.Sprintf("/v1/entries/%s", entryID), map[string]bool{field: value})
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(resp.Data, &entry); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(entry, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	state := map[bool]string{true: "on", false: "off"}[value]
	fmt.Printf("Entry %s: %s %s\n", entry.ID, field, state)
	return nil
}
