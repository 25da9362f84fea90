package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/offscroll/scrollguard/internal/engine"
)

var (
	riskHour    int
	riskDay     string
	riskBattery int
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Predict doom-scrolling risk for a given context",
	Long: `Predict doom-scrolling risk for a given context.

Combines time of day, day of week, battery level and recent session history
into a risk score, and prints the blocking strategy that score selects.
Flags default to the current local time.`,
	RunE: runRisk,
}

func init() {
	now := time.Now()
	riskCmd.Flags().IntVar(&riskHour, "hour", now.Hour(), "Hour of day (0-23)")
	riskCmd.Flags().StringVar(&riskDay, "day", strings.ToLower(now.Weekday().String()), "Day of week")
	riskCmd.Flags().IntVar(&riskBattery, "battery", 100, "Battery level (0-100)")
	rootCmd.AddCommand(riskCmd)
}

func runRisk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := engine.New(cfg, store)

	risk, strategy, err := eng.PredictRisk(riskHour, riskDay, riskBattery)
	if err != nil {
		return fmt.Errorf("risk prediction failed: %w", err)
	}

	fmt.Printf("risk:     %.2f\n", risk)
	fmt.Printf("strategy: %s\n", strategy)

	return nil
}
