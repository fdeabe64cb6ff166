package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	lookupCode   string
	lookupPrefer string
	lookupPrefix bool
	lookupLimit  int
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Search the ATECO recode dataset",
	Long:  "Resolves an activity code against the ATECO 2022/2025 recode workbook, including zero-padded and prefix variants.",
	RunE: func(cmd *cobra.Command, args []string) error {
		table := loadAtecoTable()
		if table == nil {
			return eris.Errorf("lookup: dataset not found at %s", cfg.Ateco.DatasetPath)
		}

		rows := table.Search(lookupCode, lookupPrefer, lookupPrefix)
		if !lookupPrefix && len(rows) > 1 {
			rows = rows[:1]
		}
		if lookupLimit > 0 && len(rows) > lookupLimit {
			rows = rows[:lookupLimit]
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"found": len(rows), "items": rows})
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupCode, "code", "", "activity code to search (required)")
	lookupCmd.Flags().StringVar(&lookupPrefer, "prefer", "", "taxonomy to search first (2022, 2025, 2025-camerale)")
	lookupCmd.Flags().BoolVar(&lookupPrefix, "prefix", false, "match codes by prefix instead of exactly")
	lookupCmd.Flags().IntVar(&lookupLimit, "limit", 50, "max rows to return in prefix mode")
	_ = lookupCmd.MarkFlagRequired("code")
	rootCmd.AddCommand(lookupCmd)
}
