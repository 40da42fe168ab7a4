package cmd

import (
	"encoding/json"
	"fmt"

	"collection-tracker/core/database"

	"github.com/spf13/cobra"
)

var statusSchema bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print tracker health as JSON",
	Long: `Prints the current tracker state: card count, baseline presence,
queued deltas and reconciliation timestamps. With --schema it also
dumps the live column layout of the state tables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := a.tracker.Status()
		if err != nil {
			return err
		}

		out := map[string]any{"status": status}
		if statusSchema {
			schema := make(map[string][]database.ColumnInfo)
			for _, table := range []string{"cards", "pending_deltas", "baseline_state", "tailer_cursor", "card_metadata", "states"} {
				columns, err := database.GetTableColumns(a.db, table)
				if err != nil {
					return err
				}
				schema[table] = columns
			}
			out["schema"] = schema
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusSchema, "schema", false, "include the state table schemas")
	RootCmd.AddCommand(statusCmd)
}
