package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/offscroll/scrollguard/internal/classify"
	"github.com/offscroll/scrollguard/internal/engine"
	"github.com/offscroll/scrollguard/internal/logger"
	"github.com/offscroll/scrollguard/internal/session"
)

var (
	simulateInput   string
	simulateJSON    bool
	simulateNoStore bool
)

// simEvent is one line of a JSONL capture. Type defaults to "scroll".
type simEvent struct {
	Type string `json:"type,omitempty"`

	// scroll
	Ts  int64  `json:"ts,omitempty"`
	App string `json:"app,omitempty"`

	// content
	Tokens          []string `json:"tokens,omitempty"`
	ElementIDs      []string `json:"element_ids,omitempty"`
	ScrollableNodes int      `json:"scrollable_nodes,omitempty"`
	Video           bool     `json:"video,omitempty"`

	// context
	Hour    int    `json:"hour,omitempty"`
	Day     string `json:"day,omitempty"`
	Battery int    `json:"battery,omitempty"`
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a captured scroll event stream through the engine",
	Long: `Replay a captured scroll event stream through the engine.

Reads JSONL from stdin (or --input). Each line is one event:

  {"ts": 1000, "app": "com.instagram.android"}
  {"type": "content", "app": "com.instagram.android", "tokens": ["Reels"], "scrollable_nodes": 25}
  {"type": "context", "hour": 23, "day": "saturday", "battery": 15}
  {"type": "end"}

Scroll events print their verdict; a summary follows the stream.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&simulateInput, "input", "i", "", "Read events from a file instead of stdin")
	simulateCmd.Flags().BoolVar(&simulateJSON, "json", false, "Emit one JSON verdict per scroll event")
	simulateCmd.Flags().BoolVar(&simulateNoStore, "no-store", false, "Do not persist finalized sessions")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var store session.RecordStore
	if !simulateNoStore {
		store, err = openStore(cfg)
		if err != nil {
			return err
		}
	}

	eng := engine.New(cfg, store)
	defer func() { _ = eng.Close() }()

	var in io.Reader = os.Stdin
	if simulateInput != "" {
		f, err := os.Open(simulateInput)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var scrolls, doomEvents, blocked int

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event simEvent
		if err := json.Unmarshal(line, &event); err != nil {
			logger.Warn().Err(err).Msg("Skipping malformed event line")
			continue
		}

		switch event.Type {
		case "", "scroll":
			verdict := eng.HandleScroll(event.App, event.Ts)
			scrolls++
			if verdict.DoomScrolling {
				doomEvents++
			}
			if verdict.ShouldBlock {
				blocked++
			}
			if simulateJSON {
				out, err := json.Marshal(verdict)
				if err != nil {
					return fmt.Errorf("failed to marshal verdict: %w", err)
				}
				fmt.Println(string(out))
			}

		case "content":
			eng.HandleContentChange(&classify.SignalBundle{
				Tokens:          event.Tokens,
				ElementIDs:      event.ElementIDs,
				ScrollableNodes: event.ScrollableNodes,
				VideoIndicator:  event.Video,
			}, event.App)

		case "context":
			eng.SetContext(session.Context{
				Hour:         event.Hour,
				DayOfWeek:    event.Day,
				BatteryLevel: event.Battery,
			})

		case "end":
			eng.EndSession()

		default:
			logger.Warn().Str("type", event.Type).Msg("Skipping unknown event type")
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}

	eng.EndSession()

	snapshot := eng.Snapshot()
	fmt.Printf("events:   %d scrolls, %d doom, %d blocked\n", scrolls, doomEvents, blocked)
	fmt.Printf("thresholds: confidence %.2f (adaptive: %v)\n",
		snapshot.Thresholds.ConfidenceThreshold, snapshot.Thresholds.Adaptive)

	return nil
}
