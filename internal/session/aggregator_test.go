package session

import (
	"testing"
	"time"

	"github.com/offscroll/scrollguard/internal/classify"
	"github.com/offscroll/scrollguard/internal/score"
)

// memorySink collects finalized records for assertions
type memorySink struct {
	records []*Record
}

func (m *memorySink) SaveRecord(record *Record) error {
	m.records = append(m.records, record)
	return nil
}

func newTestAggregator(t *testing.T) (*Aggregator, *memorySink, *score.Scorer) {
	t.Helper()
	scorer := score.NewScorer()
	sink := &memorySink{}
	agg := NewAggregator(scorer, sink, DefaultTimeoutMillis)
	agg.SetContext(Context{Hour: 14, DayOfWeek: "tuesday", BatteryLevel: 80})
	return agg, sink, scorer
}

func TestAppSwitchFinalizesSession(t *testing.T) {
	agg, sink, _ := newTestAggregator(t)

	for i := 0; i < 5; i++ {
		agg.ProcessEvent("com.instagram.android", int64(i*1000))
	}
	agg.ProcessEvent("com.google.android.youtube", 6000)

	if len(sink.records) != 1 {
		t.Fatalf("Expected 1 finalized record after app switch, got %d", len(sink.records))
	}

	record := sink.records[0]
	if record.AppID != "com.instagram.android" {
		t.Errorf("Expected record for outgoing app, got %s", record.AppID)
	}
	if record.TotalScrolls != 5 {
		t.Errorf("Expected 5 scrolls, got %d", record.TotalScrolls)
	}
	if agg.CurrentApp() != "com.google.android.youtube" {
		t.Errorf("Expected new session for incoming app, got %s", agg.CurrentApp())
	}
}

func TestInactivityTimeoutFinalizesSession(t *testing.T) {
	agg, sink, _ := newTestAggregator(t)

	agg.ProcessEvent("com.instagram.android", 0)
	agg.ProcessEvent("com.instagram.android", 1000)

	// Gap beyond the timeout starts a fresh session in the same app
	agg.ProcessEvent("com.instagram.android", 1000+DefaultTimeoutMillis+1)

	if len(sink.records) != 1 {
		t.Fatalf("Expected 1 finalized record after timeout, got %d", len(sink.records))
	}
	if sink.records[0].TotalScrolls != 2 {
		t.Errorf("Expected 2 scrolls in finalized session, got %d", sink.records[0].TotalScrolls)
	}

	// Gap exactly at the timeout keeps the session alive
	agg.ProcessEvent("com.instagram.android", 1000+2*DefaultTimeoutMillis+1)
	if len(sink.records) != 1 {
		t.Errorf("Gap equal to timeout must not finalize, got %d records", len(sink.records))
	}
}

func TestEmptySessionEmitsNoRecord(t *testing.T) {
	agg, sink, _ := newTestAggregator(t)

	agg.EndSession()
	agg.EndSession()

	if len(sink.records) != 0 {
		t.Errorf("Expected no records for empty sessions, got %d", len(sink.records))
	}
}

func TestExplicitEndSession(t *testing.T) {
	agg, sink, _ := newTestAggregator(t)

	for i := 0; i < 3; i++ {
		agg.ProcessEvent("com.reddit.frontpage", int64(i*500))
	}
	agg.EndSession()

	if len(sink.records) != 1 {
		t.Fatalf("Expected 1 record after explicit end, got %d", len(sink.records))
	}
	if agg.Active() {
		t.Error("Expected no active session after explicit end")
	}

	record := sink.records[0]
	if record.ID == "" {
		t.Error("Record should carry an ID")
	}
	if record.Hour != 14 || record.DayOfWeek != "tuesday" || record.BatteryLevel != 80 {
		t.Errorf("Record should carry the host context, got %+v", record)
	}

	// A second end signal is a no-op
	agg.EndSession()
	if len(sink.records) != 1 {
		t.Errorf("Expected no extra record from repeated end, got %d", len(sink.records))
	}
}

func TestProductiveSessionLabel(t *testing.T) {
	agg, sink, _ := newTestAggregator(t)

	// Few slow scrolls: productive
	ts := int64(0)
	for i := 0; i < 8; i++ {
		agg.ProcessEvent("com.instagram.android", ts)
		ts += 2000
	}
	agg.EndSession()

	if len(sink.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(sink.records))
	}
	if got := sink.records[0].SessionType; got != TypeProductive {
		t.Errorf("Expected %s session, got %s", TypeProductive, got)
	}
}

func TestDoomSessionLabel(t *testing.T) {
	agg, sink, _ := newTestAggregator(t)

	// Sustained rapid scrolling for over a minute
	ts := int64(0)
	for ts < 70_000 {
		agg.ProcessEvent("com.zhiliaoapp.musically", ts)
		ts += 80
	}
	agg.EndSession()

	if len(sink.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(sink.records))
	}
	if got := sink.records[0].SessionType; got != TypeDoomScroll {
		t.Errorf("Expected %s session, got %s", TypeDoomScroll, got)
	}
	if sink.records[0].MaxConsecutiveRapid < score.RapidDoomCount {
		t.Errorf("Expected a rapid streak in the record, got %d", sink.records[0].MaxConsecutiveRapid)
	}
}

func TestMixedSessionLabel(t *testing.T) {
	agg, sink, _ := newTestAggregator(t)

	// Many slow scrolls: not doom, but too many to be productive
	ts := int64(0)
	for i := 0; i < 30; i++ {
		agg.ProcessEvent("com.twitter.android", ts)
		ts += 2000
	}
	agg.EndSession()

	if len(sink.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(sink.records))
	}
	if got := sink.records[0].SessionType; got != TypeMixed {
		t.Errorf("Expected %s session, got %s", TypeMixed, got)
	}
}

func TestBlockedScrollCounting(t *testing.T) {
	agg, sink, _ := newTestAggregator(t)

	agg.SetClassification(classify.Classification{
		Category:    classify.CategoryShortFormFeed,
		ShouldBlock: true,
		Confidence:  0.8,
	})

	// Rapid burst long enough to cross the doom verdict
	ts := int64(0)
	for i := 0; i < 40; i++ {
		agg.ProcessEvent("com.zhiliaoapp.musically", ts)
		ts += 80
	}
	agg.EndSession()

	if len(sink.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0].BlockedScrolls == 0 {
		t.Error("Expected blocked scrolls once doom verdict holds on blockable content")
	}
	if sink.records[0].BlockedScrolls >= sink.records[0].TotalScrolls {
		t.Error("Early pre-verdict scrolls must not count as blocked")
	}
}

func TestNoBlockedScrollsOnUnblockableContent(t *testing.T) {
	agg, sink, _ := newTestAggregator(t)

	agg.SetClassification(classify.Classification{
		Category:    classify.CategoryMessaging,
		ShouldBlock: false,
		Confidence:  0.7,
	})

	ts := int64(0)
	for i := 0; i < 40; i++ {
		agg.ProcessEvent("com.zhiliaoapp.musically", ts)
		ts += 80
	}
	agg.EndSession()

	if len(sink.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(sink.records))
	}
	if got := sink.records[0].BlockedScrolls; got != 0 {
		t.Errorf("Expected no blocked scrolls on messaging content, got %d", got)
	}
}

func TestContextClamping(t *testing.T) {
	agg, sink, _ := newTestAggregator(t)
	agg.SetContext(Context{Hour: 30, DayOfWeek: "friday", BatteryLevel: -5})

	agg.ProcessEvent("com.example.app", 0)
	agg.EndSession()

	if len(sink.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.Hour != 23 {
		t.Errorf("Expected hour clamped to 23, got %d", record.Hour)
	}
	if record.BatteryLevel != 0 {
		t.Errorf("Expected battery clamped to 0, got %d", record.BatteryLevel)
	}
}

func TestRecordTimesSpanSession(t *testing.T) {
	agg, sink, _ := newTestAggregator(t)

	agg.ProcessEvent("com.example.app", 10_000)
	agg.ProcessEvent("com.example.app", 12_000)
	agg.ProcessEvent("com.example.app", 15_000)
	agg.EndSession()

	if len(sink.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.StartTime != 10_000 || record.EndTime != 15_000 {
		t.Errorf("Expected span [10000, 15000], got [%d, %d]", record.StartTime, record.EndTime)
	}
	if record.DurationMillis() != 5000 {
		t.Errorf("Expected 5000ms duration, got %d", record.DurationMillis())
	}
	if time.Since(record.CreatedAt) > time.Minute {
		t.Error("CreatedAt should be set at finalization")
	}
}
