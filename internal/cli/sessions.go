package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/offscroll/scrollguard/internal/session"
)

var (
	sessionsLimit int
	sessionsApp   string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored session records",
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Maximum number of records to show")
	sessionsCmd.Flags().StringVarP(&sessionsApp, "app", "a", "", "Only show sessions for this app")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var records []*session.Record
	if sessionsApp != "" {
		records, err = store.RecordsForApp(sessionsApp, sessionsLimit)
	} else {
		records, err = store.ListRecords(sessionsLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No session records found.")
		return nil
	}

	for _, r := range records {
		fmt.Printf("%s  %-32s %-12s %4d scrolls (%d blocked)  %6.2f avg vel  %s\n",
			r.CreatedAt.Format(time.DateTime),
			r.AppID,
			r.SessionType,
			r.TotalScrolls,
			r.BlockedScrolls,
			r.AverageVelocity,
			(time.Duration(r.DurationMillis()) * time.Millisecond).Round(time.Second),
		)
	}

	return nil
}
