package commands

import (
	"errors"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"springwatch/internal/store"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists recent runs from the history database.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		if a.cfg.History.DBPath == "" {
			return errors.New("history is disabled (set history.db_path in the config)")
		}
		db, err := store.Open(a.cfg.History.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.RecentRuns(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		printRuns(cmd, runs)
		return nil
	},
}

func printRuns(cmd *cobra.Command, runs []store.Run) {
	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"#", "Started", "Took", "Open", "New", "Emailed"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			r.Total,
			r.New,
			r.Notified,
		})
	}
	t.Render()
}
