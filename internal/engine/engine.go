// Package engine wires the detection pipeline together: it serializes host
// events into the scorer and aggregator, keeps the active classification and
// personalized thresholds applied, and runs the periodic learning pass.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/offscroll/scrollguard/internal/classify"
	"github.com/offscroll/scrollguard/internal/config"
	"github.com/offscroll/scrollguard/internal/learn"
	"github.com/offscroll/scrollguard/internal/logger"
	"github.com/offscroll/scrollguard/internal/score"
	"github.com/offscroll/scrollguard/internal/session"
)

// Engine is the behavioral pattern detection pipeline. All event entry
// points serialize behind one mutex: the scorer and aggregator see a strict
// single-writer event order even if the host delivers concurrently.
type Engine struct {
	mu sync.Mutex

	cfg        *config.Config
	scorer     *score.Scorer
	aggregator *session.Aggregator
	thresholds *learn.ThresholdManager
	store      session.RecordStore

	classification classify.Classification
}

// Verdict is the engine's answer to one scroll event.
type Verdict struct {
	Confidence    score.ConfidenceScore   `json:"confidence"`
	DoomScrolling bool                    `json:"doom_scrolling"`
	ShouldBlock   bool                    `json:"should_block"`
	Strategy      learn.Strategy          `json:"-"`
	StrategyName  string                  `json:"strategy"`
	Content       classify.Classification `json:"content"`
}

// Snapshot is a read-only view of the live pipeline state.
type Snapshot struct {
	App        string                       `json:"app,omitempty"`
	Analysis   score.Analysis               `json:"analysis"`
	Content    classify.Classification      `json:"content"`
	Thresholds learn.PersonalizedThresholds `json:"thresholds"`
}

// New creates an engine around the given configuration and record store.
// The store may be nil, in which case sessions are scored but not persisted
// and learning never leaves the defaults.
func New(cfg *config.Config, store session.RecordStore) *Engine {
	e := &Engine{
		cfg:        cfg,
		scorer:     score.NewScorer(),
		thresholds: learn.NewThresholdManager(),
		store:      store,
	}
	e.scorer.SetConfidenceThreshold(cfg.Detection.ConfidenceThreshold)
	e.aggregator = session.NewAggregator(e.scorer, e, cfg.Detection.SessionTimeoutMs)
	return e
}

// SaveRecord implements session.RecordSink: finalized records go to the
// store, and each finalization occasionally triggers TTL cleanup.
func (e *Engine) SaveRecord(record *session.Record) error {
	if e.store == nil {
		return nil
	}
	session.MaybeRunCleanup(e.store, e.cfg.Storage.RecordTTLDuration(), e.cfg.Storage.CleanupProbability)
	return e.store.SaveRecord(record)
}

// HandleScroll feeds one scroll event through the pipeline and returns the
// verdict for it. Events from untracked apps end any live session and yield
// an empty verdict.
func (e *Engine) HandleScroll(appID string, timestamp int64) Verdict {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.cfg.IsTracked(appID) {
		e.aggregator.EndSession()
		e.classification = classify.Classification{Category: classify.CategoryUnknown}
		return Verdict{Strategy: learn.StrategyMinimal, StrategyName: learn.StrategyMinimal.String()}
	}

	e.applyThresholds()

	confidence := e.aggregator.ProcessEvent(appID, timestamp)
	doom := e.scorer.IsDoomScrolling()

	verdict := Verdict{
		Confidence:    confidence,
		DoomScrolling: doom,
		ShouldBlock:   doom && e.classification.ShouldBlock,
		Strategy:      learn.SelectStrategy(confidence.Overall),
		Content:       e.classification,
	}
	verdict.StrategyName = verdict.Strategy.String()

	if verdict.ShouldBlock {
		logger.Debug().
			Str("app", appID).
			Float64("confidence", confidence.Overall).
			Str("category", string(e.classification.Category)).
			Str("strategy", verdict.StrategyName).
			Msg("Doom scrolling detected")
	}

	return verdict
}

// HandleContentChange classifies the newly visible screen and applies the
// result to all scroll events until the next content change.
func (e *Engine) HandleContentChange(bundle *classify.SignalBundle, appID string) classify.Classification {
	// Classification is pure; only the application to pipeline state needs
	// the lock
	result := classify.Classify(bundle, appID)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.classification = result
	e.aggregator.SetClassification(result)

	return result
}

// SetContext records the host-supplied environment for finalized records.
func (e *Engine) SetContext(ctx session.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aggregator.SetContext(ctx)
}

// EndSession finalizes the live session on an explicit host signal.
func (e *Engine) EndSession() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aggregator.EndSession()
}

// Snapshot returns the current pipeline state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		App:        e.aggregator.CurrentApp(),
		Analysis:   e.scorer.Analysis(),
		Content:    e.classification,
		Thresholds: e.thresholds.Current(),
	}
}

// CurrentStrategy returns the intervention strategy matching the live
// session's current confidence.
func (e *Engine) CurrentStrategy() learn.Strategy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return learn.SelectStrategy(e.scorer.Analysis().Confidence.Overall)
}

// Thresholds exposes the threshold manager, mainly for inspection commands.
func (e *Engine) Thresholds() *learn.ThresholdManager {
	return e.thresholds
}

// applyThresholds pushes the active confidence threshold into the scorer:
// the learned value when adaptive learning is on, the configured default
// otherwise. Called with the engine lock held.
func (e *Engine) applyThresholds() {
	t := e.thresholds.Current()
	if e.cfg.Learning.Enabled && t.Adaptive {
		e.scorer.SetConfidenceThreshold(t.ConfidenceThreshold)
	} else {
		e.scorer.SetConfidenceThreshold(e.cfg.Detection.ConfidenceThreshold)
	}
}

// RunLearningPass recomputes personalized thresholds from stored history
// and publishes them. Returns the published thresholds.
func (e *Engine) RunLearningPass() (learn.PersonalizedThresholds, error) {
	if e.store == nil {
		return e.thresholds.Current(), nil
	}

	since := time.Now().AddDate(0, 0, -e.cfg.Learning.HistoryDays)
	history, err := e.store.RecentRecords(since)
	if err != nil {
		return e.thresholds.Current(), err
	}

	t := learn.Learn(history)
	e.thresholds.Publish(t)
	return t, nil
}

// StartLearning runs periodic learning passes until the context is
// cancelled. Operates only on finalized records, so it never contends with
// the live pipeline beyond threshold publication.
func (e *Engine) StartLearning(ctx context.Context, interval time.Duration) {
	if e.store == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := e.RunLearningPass(); err != nil {
					logger.Warn().Err(err).Msg("Learning pass failed")
				}
			}
		}
	}()
}

// PredictRisk estimates near-term doom-scrolling risk from context and
// recent history, and picks the matching blocking strategy.
func (e *Engine) PredictRisk(hour int, dayOfWeek string, batteryLevel int) (float64, learn.Strategy, error) {
	var recent []*session.Record
	if e.store != nil {
		var err error
		recent, err = e.store.RecentRecords(time.Now().Add(-time.Hour))
		if err != nil {
			return 0, learn.StrategyMinimal, err
		}
	}

	risk := learn.PredictRisk(hour, dayOfWeek, batteryLevel, recent, time.Now())
	return risk, learn.SelectStrategy(risk), nil
}

// Close finalizes any live session and releases the store.
func (e *Engine) Close() error {
	e.EndSession()
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
