package learn

import (
	"strings"
	"time"

	"github.com/offscroll/scrollguard/internal/session"
)

// Strategy is the ordered intervention intensity, monotonic in strength.
type Strategy int

const (
	StrategyMinimal Strategy = iota
	StrategyGentle
	StrategyModerate
	StrategyAggressive
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyMinimal:
		return "minimal"
	case StrategyGentle:
		return "gentle"
	case StrategyModerate:
		return "moderate"
	case StrategyAggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// Strategy selection cutoffs. Boundaries are exclusive lower bounds: a risk
// of exactly 0.8 selects Moderate, not Aggressive.
const (
	aggressiveAbove = 0.8
	moderateAbove   = 0.6
	gentleAbove     = 0.4
)

// recentDoomWindow is how far back a finished doomscroll session still
// raises near-term risk.
const recentDoomWindow = time.Hour

// Additive risk contributions per factor.
const (
	riskLateNight   = 0.3
	riskEvening     = 0.2
	riskLunch       = 0.15
	riskTimeBase    = 0.1
	riskWeekend     = 0.2
	riskWeekday     = 0.1
	riskBatteryLow  = 0.2
	riskBatteryMid  = 0.1
	riskBatteryHigh = 0.05
	riskRecentDoom  = 0.3
)

// PredictRisk estimates near-term doom-scrolling likelihood from context
// alone, independent of any live scroll events. Four fixed-table factors are
// summed and clamped to 1.0. Out-of-range inputs are clamped at the
// boundary. asOf anchors the recent-doomscroll lookback.
func PredictRisk(hour int, dayOfWeek string, batteryLevel int, recent []*session.Record, asOf time.Time) float64 {
	if hour < 0 {
		hour = 0
	}
	if hour > 23 {
		hour = 23
	}
	if batteryLevel < 0 {
		batteryLevel = 0
	}
	if batteryLevel > 100 {
		batteryLevel = 100
	}

	risk := timeOfDayRisk(hour) + dayRisk(dayOfWeek) + batteryRisk(batteryLevel)

	if hasRecentDoomSession(recent, asOf) {
		risk += riskRecentDoom
	}

	if risk > 1.0 {
		risk = 1.0
	}
	return risk
}

func timeOfDayRisk(hour int) float64 {
	switch {
	case hour >= 22 || hour <= 1:
		return riskLateNight
	case hour >= 17 && hour <= 21:
		return riskEvening
	case hour == 12 || hour == 13:
		return riskLunch
	default:
		return riskTimeBase
	}
}

func dayRisk(dayOfWeek string) float64 {
	switch strings.ToLower(dayOfWeek) {
	case "saturday", "sunday":
		return riskWeekend
	default:
		return riskWeekday
	}
}

func batteryRisk(batteryLevel int) float64 {
	switch {
	case batteryLevel <= 20:
		return riskBatteryLow
	case batteryLevel <= 50:
		return riskBatteryMid
	default:
		return riskBatteryHigh
	}
}

func hasRecentDoomSession(recent []*session.Record, asOf time.Time) bool {
	cutoff := asOf.Add(-recentDoomWindow)
	for _, r := range recent {
		if r.SessionType == session.TypeDoomScroll && !r.CreatedAt.Before(cutoff) && !r.CreatedAt.After(asOf) {
			return true
		}
	}
	return false
}

// SelectStrategy maps a risk score to an intervention strategy. Monotone
// step function with strict-greater boundaries.
func SelectStrategy(risk float64) Strategy {
	switch {
	case risk > aggressiveAbove:
		return StrategyAggressive
	case risk > moderateAbove:
		return StrategyModerate
	case risk > gentleAbove:
		return StrategyGentle
	default:
		return StrategyMinimal
	}
}
