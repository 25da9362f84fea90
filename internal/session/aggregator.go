package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/offscroll/scrollguard/internal/classify"
	"github.com/offscroll/scrollguard/internal/logger"
	"github.com/offscroll/scrollguard/internal/score"
)

// DefaultTimeoutMillis is the inactivity gap that ends a session.
const DefaultTimeoutMillis = 30_000

// Session type boundaries: a doom verdict only labels the whole session
// after a minute of scrolling, and short quiet sessions count as productive.
const (
	doomSessionMinMillis = 60_000
	productiveMaxScrolls = 20
)

// RecordSink receives finalized session records. Implemented by the sqlite
// store; tests substitute an in-memory sink.
type RecordSink interface {
	SaveRecord(record *Record) error
}

// Aggregator owns session boundary detection. It feeds scroll events to the
// scorer, tracks the live session's blocking state, and finalizes exactly
// one Record per non-empty session on app switch, inactivity timeout, or an
// explicit end signal from the host.
//
// Timeout detection is reactive: the 30s boundary is checked when the next
// event arrives. A session that never sees another event is only finalized
// when the host signals EndSession — a documented limitation of the
// cooperative model, not a defect.
type Aggregator struct {
	scorer *score.Scorer
	sink   RecordSink

	timeoutMillis int64

	active        bool
	appID         string
	lastEventTime int64

	blockedScrolls int
	classification classify.Classification

	ctx Context
}

// NewAggregator creates an aggregator around the given scorer and sink.
func NewAggregator(scorer *score.Scorer, sink RecordSink, timeoutMillis int64) *Aggregator {
	if timeoutMillis <= 0 {
		timeoutMillis = DefaultTimeoutMillis
	}
	return &Aggregator{
		scorer:        scorer,
		sink:          sink,
		timeoutMillis: timeoutMillis,
	}
}

// SetContext records the host-supplied environment (clamped at the
// boundary) for the next finalized record.
func (a *Aggregator) SetContext(ctx Context) {
	a.ctx = ctx.Clamped()
}

// SetClassification updates the classification of the currently visible
// content. Applies to all scroll events until the next content change.
func (a *Aggregator) SetClassification(c classify.Classification) {
	a.classification = c
}

// ProcessEvent handles one scroll event: closes the outgoing session first
// if the event crosses a boundary, then scores the event inside the live
// session. Returns the updated confidence.
func (a *Aggregator) ProcessEvent(appID string, timestamp int64) score.ConfidenceScore {
	if a.active {
		switch {
		case appID != a.appID:
			a.finalize(a.lastEventTime)
		case timestamp-a.lastEventTime > a.timeoutMillis:
			a.finalize(a.lastEventTime)
		}
	}

	if !a.active {
		a.active = true
		a.appID = appID
		a.blockedScrolls = 0
	}

	confidence := a.scorer.RecordEvent(timestamp)
	a.lastEventTime = timestamp

	if a.scorer.IsDoomScrolling() && a.classification.ShouldBlock {
		a.blockedScrolls++
	}

	return confidence
}

// EndSession finalizes the live session on an explicit host signal
// (app closed, service shutdown). Safe to call with no session active.
func (a *Aggregator) EndSession() {
	if a.active {
		a.finalize(a.lastEventTime)
	}
}

// Active reports whether a session is currently live.
func (a *Aggregator) Active() bool {
	return a.active
}

// CurrentApp returns the app owning the live session, or empty.
func (a *Aggregator) CurrentApp() string {
	if !a.active {
		return ""
	}
	return a.appID
}

// finalize turns the live session into a Record, emits it, and resets the
// scorer. Sessions with zero scroll events emit nothing.
func (a *Aggregator) finalize(endTime int64) {
	analysis := a.scorer.Analysis()

	defer func() {
		a.scorer.Reset()
		a.active = false
		a.appID = ""
		a.blockedScrolls = 0
	}()

	if analysis.TotalScrolls == 0 {
		return
	}

	record := &Record{
		ID:                  uuid.NewString(),
		AppID:               a.appID,
		StartTime:           endTime - analysis.DurationMillis,
		EndTime:             endTime,
		TotalScrolls:        analysis.TotalScrolls,
		BlockedScrolls:      a.blockedScrolls,
		AverageVelocity:     analysis.AverageVelocity,
		MaxConsecutiveRapid: analysis.MaxRapid,
		SessionType:         classifySession(analysis),
		Hour:                a.ctx.Hour,
		DayOfWeek:           a.ctx.DayOfWeek,
		BatteryLevel:        a.ctx.BatteryLevel,
		CreatedAt:           time.Now(),
	}

	if a.sink != nil {
		if err := a.sink.SaveRecord(record); err != nil {
			logger.Warn().
				Err(err).
				Str("app", record.AppID).
				Msg("Failed to persist session record")
		}
	}

	logger.Debug().
		Str("app", record.AppID).
		Str("type", string(record.SessionType)).
		Int("scrolls", record.TotalScrolls).
		Int64("duration_ms", record.DurationMillis()).
		Msg("Finalized session")
}

// classifySession labels a finished session from its final analysis.
func classifySession(analysis score.Analysis) Type {
	switch {
	case analysis.DoomScrolling && analysis.DurationMillis > doomSessionMinMillis:
		return TypeDoomScroll
	case !analysis.DoomScrolling && analysis.TotalScrolls < productiveMaxScrolls:
		return TypeProductive
	default:
		return TypeMixed
	}
}
