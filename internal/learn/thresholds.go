// Package learn implements the personalization layer: a single-pass
// statistical learner over finalized session records, atomic publication of
// the resulting thresholds, and contextual risk prediction with blocking
// strategy selection.
package learn

import (
	"sync"
	"time"

	"github.com/offscroll/scrollguard/internal/logger"
)

// Default thresholds used until enough history exists to personalize.
const (
	DefaultVelocityThreshold   = 5.0
	DefaultDurationThresholdMs = 120_000
	DefaultConfidenceThreshold = 0.7
)

// PersonalizedThresholds is the per-user sensitivity configuration produced
// by a learning pass. Immutable once published: each pass replaces the whole
// value, never merges into it.
type PersonalizedThresholds struct {
	// VelocityThreshold is the scrolls/sec rate considered rapid
	VelocityThreshold float64 `json:"velocity_threshold"`

	// DurationThresholdMs is the session length considered prolonged
	DurationThresholdMs int64 `json:"duration_threshold_ms"`

	// ConfidenceThreshold is the doom verdict cutoff for the scorer
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// Adaptive reports whether these values were learned rather than
	// defaulted
	Adaptive bool `json:"adaptive"`
}

// DefaultThresholds returns the fixed pre-personalization thresholds.
func DefaultThresholds() PersonalizedThresholds {
	return PersonalizedThresholds{
		VelocityThreshold:   DefaultVelocityThreshold,
		DurationThresholdMs: DefaultDurationThresholdMs,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		Adaptive:            false,
	}
}

// ThresholdManager publishes threshold values from the background learner to
// the live pipeline. Readers always observe a complete value — either the
// previous thresholds or the new ones, never a partial update.
type ThresholdManager struct {
	mu        sync.RWMutex
	current   PersonalizedThresholds
	updatedAt time.Time
}

// NewThresholdManager creates a manager holding the defaults.
func NewThresholdManager() *ThresholdManager {
	return &ThresholdManager{
		current:   DefaultThresholds(),
		updatedAt: time.Now(),
	}
}

// Current returns a copy of the active thresholds.
func (tm *ThresholdManager) Current() PersonalizedThresholds {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.current
}

// UpdatedAt returns when thresholds were last published.
func (tm *ThresholdManager) UpdatedAt() time.Time {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.updatedAt
}

// Publish replaces the active thresholds wholesale.
func (tm *ThresholdManager) Publish(t PersonalizedThresholds) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	logger.Info().
		Float64("velocity", t.VelocityThreshold).
		Int64("duration_ms", t.DurationThresholdMs).
		Float64("confidence", t.ConfidenceThreshold).
		Bool("adaptive", t.Adaptive).
		Msg("Publishing personalized thresholds")

	tm.current = t
	tm.updatedAt = time.Now()
}

// Reset restores the defaults.
func (tm *ThresholdManager) Reset() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.current = DefaultThresholds()
	tm.updatedAt = time.Now()
}
