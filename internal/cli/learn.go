package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/offscroll/scrollguard/internal/engine"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Run a learning pass over stored session history",
	Long: `Run a learning pass over stored session history.

Reads the configured history window of finalized session records, computes
personalized detection thresholds, and prints them. With fewer than 10
sessions the defaults are kept.`,
	RunE: runLearn,
}

func init() {
	rootCmd.AddCommand(learnCmd)
}

func runLearn(cmd *cobra.Command, args []string) error {
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

	thresholds, err := eng.RunLearningPass()
	if err != nil {
		return fmt.Errorf("learning pass failed: %w", err)
	}

	fmt.Printf("velocity threshold:   %.2f scrolls/sec\n", thresholds.VelocityThreshold)
	fmt.Printf("duration threshold:   %s\n", time.Duration(thresholds.DurationThresholdMs)*time.Millisecond)
	fmt.Printf("confidence threshold: %.2f\n", thresholds.ConfidenceThreshold)
	fmt.Printf("adaptive:             %v\n", thresholds.Adaptive)

	return nil
}
