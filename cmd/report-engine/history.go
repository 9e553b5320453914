// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-engine/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs from the dedup ledger",
	Long: `History lists the (date, subject) pairs recorded in the run ledger.
A recorded pair is what makes a later run of the same date and subject
skip instead of regenerating.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := resolveSettings()

	ledger, err := history.Load(cfg.History.LedgerPath)
	if err != nil {
		return err
	}

	subject, _ := cmd.Flags().GetString("subject")
	entries := ledger.Entries()
	if subject != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Subject == subject {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %s\n", e.Date, e.Subject)
	}
	fmt.Printf("\n%d recorded runs\n", len(entries))
	return nil
}

func init() {
	historyCmd.Flags().String("subject", "", "filter by subject")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")

	rootCmd.AddCommand(historyCmd)
}
