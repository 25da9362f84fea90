package learn

import (
	"github.com/offscroll/scrollguard/internal/logger"
	"github.com/offscroll/scrollguard/internal/session"
)

// MinSessionsToLearn is the history size below which the learner returns
// the fixed defaults instead of personalizing.
const MinSessionsToLearn = 10

// doomSessionDurationFactor scales the observed mean doomscroll duration
// down so intervention fires before a typical doom session completes.
const doomSessionDurationFactor = 0.7

// Learn computes personalized thresholds from finalized session history.
// Pure: identical history always yields identical thresholds, and the input
// is never mutated. With fewer than MinSessionsToLearn records the fixed
// defaults are returned with Adaptive=false.
func Learn(history []*session.Record) PersonalizedThresholds {
	if len(history) < MinSessionsToLearn {
		logger.Debug().
			Int("sessions", len(history)).
			Int("required", MinSessionsToLearn).
			Msg("Insufficient history, using default thresholds")
		return DefaultThresholds()
	}

	var doom, productive []*session.Record
	for _, r := range history {
		switch r.SessionType {
		case session.TypeDoomScroll:
			doom = append(doom, r)
		case session.TypeProductive:
			productive = append(productive, r)
		}
	}

	t := PersonalizedThresholds{
		VelocityThreshold:   velocityThreshold(doom, productive),
		DurationThresholdMs: durationThreshold(doom),
		ConfidenceThreshold: confidenceThreshold(doom),
		Adaptive:            true,
	}

	logger.Debug().
		Int("history", len(history)).
		Int("doom", len(doom)).
		Int("productive", len(productive)).
		Float64("confidence", t.ConfidenceThreshold).
		Msg("Learned personalized thresholds")

	return t
}

// velocityThreshold is the mean scroll velocity across the labeled (doom
// and productive) sessions: the midpoint between the user's two modes.
func velocityThreshold(doom, productive []*session.Record) float64 {
	total := 0.0
	count := 0
	for _, r := range doom {
		total += r.AverageVelocity
		count++
	}
	for _, r := range productive {
		total += r.AverageVelocity
		count++
	}
	if count == 0 {
		return DefaultVelocityThreshold
	}
	return total / float64(count)
}

// durationThreshold is a scaled-down mean of the user's doomscroll session
// lengths.
func durationThreshold(doom []*session.Record) int64 {
	if len(doom) == 0 {
		return DefaultDurationThresholdMs
	}
	var total int64
	for _, r := range doom {
		total += r.DurationMillis()
	}
	avg := float64(total) / float64(len(doom))
	return int64(avg * doomSessionDurationFactor)
}

// confidenceThreshold is a tiered lookup on how intense the user's doom
// sessions are: heavy doomscrollers get a more sensitive (lower) cutoff.
func confidenceThreshold(doom []*session.Record) float64 {
	if len(doom) == 0 {
		return 0.8
	}

	var scrolls int
	var velocity float64
	for _, r := range doom {
		scrolls += r.TotalScrolls
		velocity += r.AverageVelocity
	}
	avgScrolls := float64(scrolls) / float64(len(doom))
	avgVelocity := velocity / float64(len(doom))

	switch {
	case avgScrolls > 100 && avgVelocity > 8.0:
		return 0.6
	case avgScrolls > 50 && avgVelocity > 5.0:
		return 0.7
	default:
		return 0.8
	}
}
