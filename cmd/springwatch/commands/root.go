package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"springwatch/internal/domain"
	"springwatch/internal/poll"
	"springwatch/internal/store"
)

var (
	configPath string
	dataDir    string
	dryRun     bool
	every      time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "springwatch",
	Short: "springwatch emails newly opened spring week listings from Trackr.",
	Long: `springwatch scrapes the Trackr spring weeks board, compares the open
listings with the previous run and emails the companies that are new.

With --every it keeps running and repeats on that interval.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPipeline,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configPath, "config", "", "config file (default <data-dir>/config.yml)")
	f.StringVar(&dataDir, "data-dir", "", "directory holding config, .env and csv files (env SPRINGWATCH_DATA_DIR)")

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "write the listings file but do not send email")
	rootCmd.Flags().DurationVar(&every, "every", 0, "repeat on this interval instead of running once")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	deps, closeDeps, err := a.deps(dryRun)
	if err != nil {
		return err
	}
	defer closeDeps()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var seen firstSeenFunc
	if db, ok := deps.History.(*store.DB); ok {
		seen = func(l domain.Listing) time.Time {
			at, err := db.FirstSeen(ctx, l)
			if err != nil {
				return time.Time{}
			}
			return at
		}
	}

	if every <= 0 {
		sum, err := poll.RunOnce(ctx, deps)
		if err != nil {
			return err
		}
		printSummary(out, sum, seen)
		return nil
	}

	log.Printf("[poll] watching every %s", every)
	poll.Watch(ctx, every, deps, func(sum poll.Summary, err error) {
		if err == nil {
			printSummary(out, sum, seen)
		}
	})
	return nil
}
