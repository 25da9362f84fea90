// Package score implements the per-session scroll scorer: a stateful engine
// that consumes timestamped scroll events, maintains bounded rolling windows,
// and emits a weighted doom-scrolling confidence on every event. One scorer
// tracks exactly one foreground session; the session aggregator owns its
// lifecycle and resets it at every session boundary.
package score

import (
	"math"
	"time"
)

// Rolling window and rapid-scroll parameters.
const (
	// TimestampWindowMillis is the trailing span of the scroll timestamp window
	TimestampWindowMillis = 30_000

	// velocityWindowMillis is the span used to compute instantaneous velocity
	velocityWindowMillis = 1_000

	// velocitySampleCap and velocitySampleRetain bound the velocity sample
	// buffer: overflow past the cap trims down to the retain count
	velocitySampleCap    = 50
	velocitySampleRetain = 30

	// rapidVelocityMin and rapidGapMillis define a rapid scroll: faster than
	// 5 scrolls/sec with less than half a second since the previous event
	rapidVelocityMin = 5.0
	rapidGapMillis   = 500

	// RapidDoomCount is the consecutive-rapid count that forces a doom verdict
	RapidDoomCount = 10

	// DefaultConfidenceThreshold is the doom verdict threshold before any
	// personalized thresholds are learned
	DefaultConfidenceThreshold = 0.7

	// durationTargetMillis is the session length at which the duration
	// sub-score saturates
	durationTargetMillis = 120_000

	// pauseTargetMillis is the inter-event gap at which the pause sub-score
	// reaches zero
	pauseTargetMillis = 500
)

// Sub-score weights. Fixed, sum to 1.0.
const (
	weightVelocity    = 0.30
	weightConsistency = 0.25
	weightDuration    = 0.20
	weightPause       = 0.15
	weightContext     = 0.10
)

// subScoreSampleCount is how many trailing samples feed the velocity and
// consistency sub-scores, and how many trailing timestamps feed the pause
// sub-score (one more than the gap count).
const subScoreSampleCount = 10

// ConfidenceScore is the weighted doom-scrolling estimate for one event,
// with its five sub-scores. Every field is clamped to [0, 1].
type ConfidenceScore struct {
	Velocity    float64 `json:"velocity"`
	Consistency float64 `json:"consistency"`
	Duration    float64 `json:"duration"`
	Pause       float64 `json:"pause"`
	Context     float64 `json:"context"`
	Overall     float64 `json:"overall"`
}

// Analysis is a read-only snapshot of the live session.
type Analysis struct {
	DurationMillis   int64           `json:"duration_millis"`
	TotalScrolls     int             `json:"total_scrolls"`
	AverageVelocity  float64         `json:"average_velocity"`
	ConsecutiveRapid int             `json:"consecutive_rapid"`
	MaxRapid         int             `json:"max_rapid"`
	Confidence       ConfidenceScore `json:"confidence"`
	DoomScrolling    bool            `json:"doom_scrolling"`
}

// Scorer scores a single session's scroll stream. Not safe for concurrent
// use: the pipeline serializes events before they reach it.
type Scorer struct {
	timestamps *ageWindow
	velocities *boundedSamples

	started       bool
	startTime     int64
	lastEventTime int64

	consecutiveRapid int
	maxRapid         int
	totalScrolls     int
	velocitySum      float64

	lastScore ConfidenceScore

	confidenceThreshold float64

	// now supplies the wall clock for the time-of-day context score
	now func() time.Time
}

// NewScorer creates a scorer with the default confidence threshold.
func NewScorer() *Scorer {
	return &Scorer{
		timestamps:          newAgeWindow(TimestampWindowMillis),
		velocities:          newBoundedSamples(velocitySampleCap, velocitySampleRetain),
		confidenceThreshold: DefaultConfidenceThreshold,
		now:                 time.Now,
	}
}

// SetConfidenceThreshold overrides the doom verdict threshold, typically
// with a learned personalized value.
func (s *Scorer) SetConfidenceThreshold(threshold float64) {
	if threshold <= 0 || threshold > 1 {
		return
	}
	s.confidenceThreshold = threshold
}

// ConfidenceThreshold returns the active doom verdict threshold.
func (s *Scorer) ConfidenceThreshold() float64 {
	return s.confidenceThreshold
}

// RecordEvent folds one scroll event into the session window and returns the
// updated confidence. Timestamps are monotonic milliseconds; negative or
// regressing timestamps are clamped at the boundary so no negative value can
// reach the window.
func (s *Scorer) RecordEvent(timestamp int64) ConfidenceScore {
	if timestamp < 0 {
		timestamp = 0
	}
	if s.started && timestamp < s.lastEventTime {
		timestamp = s.lastEventTime
	}

	first := !s.started
	if first {
		s.started = true
		s.startTime = timestamp
	}

	// First event in a session has no preceding gap
	var gap int64
	if !first {
		gap = timestamp - s.lastEventTime
	}

	s.timestamps.Push(timestamp)

	velocity := float64(s.timestamps.CountSince(timestamp - velocityWindowMillis))
	s.velocities.Push(velocity)
	s.velocitySum += velocity

	if !first && velocity > rapidVelocityMin && gap < rapidGapMillis {
		s.consecutiveRapid++
		if s.consecutiveRapid > s.maxRapid {
			s.maxRapid = s.consecutiveRapid
		}
	} else {
		s.consecutiveRapid = 0
	}

	s.totalScrolls++
	s.lastEventTime = timestamp

	s.lastScore = s.computeScore(timestamp)
	return s.lastScore
}

func (s *Scorer) computeScore(timestamp int64) ConfidenceScore {
	recent := s.velocities.Tail(subScoreSampleCount)

	score := ConfidenceScore{
		Velocity:    clamp01(mean(recent) / rapidVelocityMin),
		Consistency: consistencyScore(recent),
		Duration:    clamp01(float64(timestamp-s.startTime) / durationTargetMillis),
		Pause:       s.pauseScore(),
		Context:     contextScore(s.now().Hour()),
	}

	score.Overall = clamp01(weightVelocity*score.Velocity +
		weightConsistency*score.Consistency +
		weightDuration*score.Duration +
		weightPause*score.Pause +
		weightContext*score.Context)

	return score
}

// consistencyScore rewards a steady scroll rate: low variance relative to
// the mean scores high. Needs at least 3 samples to be meaningful.
func consistencyScore(samples []float64) float64 {
	if len(samples) < 3 {
		return 0
	}
	m := mean(samples)
	if m == 0 {
		return 0
	}
	return clamp01(1 - stddev(samples, m)/m)
}

// pauseScore rewards short gaps between events: an average gap at or above
// the pause target scores zero. Uses the trailing inter-event gaps.
func (s *Scorer) pauseScore() float64 {
	tail := s.timestamps.Tail(subScoreSampleCount)
	if len(tail) < 2 {
		return 0
	}
	total := tail[len(tail)-1] - tail[0]
	avgGap := float64(total) / float64(len(tail)-1)
	return clamp01(1 - avgGap/pauseTargetMillis)
}

// contextScore is a fixed lookup by hour of day: late night is the highest
// risk window, lunch and evening are elevated.
func contextScore(hour int) float64 {
	switch {
	case hour >= 22 || hour <= 1:
		return 0.8
	case hour >= 17 && hour <= 19:
		return 0.7
	case hour == 12 || hour == 13:
		return 0.6
	default:
		return 0.3
	}
}

// IsDoomScrolling reports the current verdict: confidence at or above the
// active threshold, or a rapid-scroll streak of RapidDoomCount or more.
func (s *Scorer) IsDoomScrolling() bool {
	if !s.started {
		return false
	}
	return s.lastScore.Overall >= s.confidenceThreshold || s.consecutiveRapid >= RapidDoomCount
}

// Analysis returns a read-only snapshot of the session. An empty session
// yields all-zero values.
func (s *Scorer) Analysis() Analysis {
	if !s.started {
		return Analysis{}
	}
	return Analysis{
		DurationMillis:   s.lastEventTime - s.startTime,
		TotalScrolls:     s.totalScrolls,
		AverageVelocity:  s.velocitySum / float64(s.totalScrolls),
		ConsecutiveRapid: s.consecutiveRapid,
		MaxRapid:         s.maxRapid,
		Confidence:       s.lastScore,
		DoomScrolling:    s.IsDoomScrolling(),
	}
}

// Reset clears all session state. Idempotent: resetting an already-reset
// scorer leaves the same zeroed state. The confidence threshold survives a
// reset, since it belongs to the user, not the session.
func (s *Scorer) Reset() {
	s.timestamps.Reset()
	s.velocities.Reset()
	s.started = false
	s.startTime = 0
	s.lastEventTime = 0
	s.consecutiveRapid = 0
	s.maxRapid = 0
	s.totalScrolls = 0
	s.velocitySum = 0
	s.lastScore = ConfidenceScore{}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
