package engine

import (
	"testing"
	"time"

	"github.com/offscroll/scrollguard/internal/classify"
	"github.com/offscroll/scrollguard/internal/config"
	"github.com/offscroll/scrollguard/internal/learn"
	"github.com/offscroll/scrollguard/internal/session"
)

// memoryStore is an in-memory session.RecordStore for pipeline tests.
type memoryStore struct {
	records []*session.Record
	closed  bool
}

func (m *memoryStore) SaveRecord(record *session.Record) error {
	m.records = append(m.records, record)
	return nil
}

func (m *memoryStore) ListRecords(limit int) ([]*session.Record, error) {
	return m.records, nil
}

func (m *memoryStore) RecordsForApp(appID string, limit int) ([]*session.Record, error) {
	var out []*session.Record
	for _, r := range m.records {
		if r.AppID == appID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) RecentRecords(since time.Time) ([]*session.Record, error) {
	var out []*session.Record
	for _, r := range m.records {
		if !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) CleanupOldRecords(ttl time.Duration) (int64, error) {
	return 0, nil
}

func (m *memoryStore) Close() error {
	m.closed = true
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *memoryStore) {
	t.Helper()

	store := &memoryStore{}
	return New(config.DefaultConfig(), store), store
}

func shortFormBundle() *classify.SignalBundle {
	return &classify.SignalBundle{
		Tokens:          []string{"Reels", "For You"},
		ScrollableNodes: 25,
	}
}

func TestUntrackedAppIgnored(t *testing.T) {
	e, store := newTestEngine(t)

	verdict := e.HandleScroll("com.example.calculator", 1000)

	if verdict.DoomScrolling || verdict.ShouldBlock {
		t.Error("Untracked app should never produce a doom verdict")
	}
	if got := e.Snapshot(); got.App != "" {
		t.Errorf("Expected no live session for untracked app, got %q", got.App)
	}
	if len(store.records) != 0 {
		t.Errorf("Expected no records, got %d", len(store.records))
	}
}

func TestUntrackedAppEndsLiveSession(t *testing.T) {
	e, store := newTestEngine(t)

	ts := int64(1000)
	for i := 0; i < 25; i++ {
		e.HandleScroll("com.instagram.android", ts)
		ts += 1000
	}
	e.HandleScroll("com.example.calculator", ts)

	if len(store.records) != 1 {
		t.Fatalf("Expected the live session to finalize, got %d records", len(store.records))
	}
	if store.records[0].AppID != "com.instagram.android" {
		t.Errorf("Expected instagram record, got %s", store.records[0].AppID)
	}
}

func TestRapidBurstVerdict(t *testing.T) {
	e, _ := newTestEngine(t)

	e.HandleContentChange(shortFormBundle(), "com.instagram.android")

	var verdict Verdict
	ts := int64(1000)
	for i := 0; i < 20; i++ {
		verdict = e.HandleScroll("com.instagram.android", ts)
		ts += 80
	}

	if !verdict.DoomScrolling {
		t.Error("Expected doom verdict after a sustained rapid burst")
	}
	if !verdict.ShouldBlock {
		t.Error("Doom scrolling on blockable content should block")
	}
	if verdict.Content.Category != classify.CategoryShortFormFeed {
		t.Errorf("Expected short form feed content, got %s", verdict.Content.Category)
	}
	if got := e.CurrentStrategy(); got != verdict.Strategy {
		t.Errorf("Expected current strategy %s, got %s", verdict.Strategy, got)
	}
}

func TestNoBlockWithoutBlockableContent(t *testing.T) {
	e, _ := newTestEngine(t)

	e.HandleContentChange(&classify.SignalBundle{
		Tokens:          []string{"Chats", "Messages"},
		ScrollableNodes: 5,
	}, "com.instagram.android")

	var verdict Verdict
	ts := int64(1000)
	for i := 0; i < 20; i++ {
		verdict = e.HandleScroll("com.instagram.android", ts)
		ts += 80
	}

	if !verdict.DoomScrolling {
		t.Error("Rapid burst should still score as doom scrolling")
	}
	if verdict.ShouldBlock {
		t.Error("Messaging content should never block")
	}
}

func TestCloseFinalizesSession(t *testing.T) {
	e, store := newTestEngine(t)

	ts := int64(1000)
	for i := 0; i < 5; i++ {
		e.HandleScroll("com.instagram.android", ts)
		ts += 1000
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if len(store.records) != 1 {
		t.Fatalf("Expected 1 record after close, got %d", len(store.records))
	}
	if !store.closed {
		t.Error("Close should release the store")
	}
}

func TestRunLearningPassPublishes(t *testing.T) {
	e, store := newTestEngine(t)

	now := time.Now()
	for i := 0; i < 12; i++ {
		store.records = append(store.records, &session.Record{
			ID:              "r" + string(rune('a'+i)),
			AppID:           "com.instagram.android",
			StartTime:       0,
			EndTime:         200_000,
			TotalScrolls:    120,
			AverageVelocity: 9.0,
			SessionType:     session.TypeDoomScroll,
			CreatedAt:       now,
		})
	}

	thresholds, err := e.RunLearningPass()
	if err != nil {
		t.Fatalf("RunLearningPass failed: %v", err)
	}

	if !thresholds.Adaptive {
		t.Error("Expected adaptive thresholds after a full learning pass")
	}
	if thresholds.ConfidenceThreshold != 0.6 {
		t.Errorf("Expected lowered confidence threshold 0.6, got %.2f", thresholds.ConfidenceThreshold)
	}
	if got := e.Snapshot().Thresholds; got != thresholds {
		t.Error("Snapshot should expose the published thresholds")
	}
}

func TestLearningPassWithThinHistory(t *testing.T) {
	e, _ := newTestEngine(t)

	thresholds, err := e.RunLearningPass()
	if err != nil {
		t.Fatalf("RunLearningPass failed: %v", err)
	}

	if thresholds != learn.DefaultThresholds() {
		t.Errorf("Expected default thresholds with no history, got %+v", thresholds)
	}
}

func TestPredictRiskUsesRecentHistory(t *testing.T) {
	e, store := newTestEngine(t)

	store.records = append(store.records, &session.Record{
		ID:          "recent-doom",
		AppID:       "com.instagram.android",
		SessionType: session.TypeDoomScroll,
		CreatedAt:   time.Now().Add(-10 * time.Minute),
	})

	risk, strategy, err := e.PredictRisk(23, "saturday", 15)
	if err != nil {
		t.Fatalf("PredictRisk failed: %v", err)
	}

	if risk <= 0.8 {
		t.Errorf("Expected saturated risk, got %.2f", risk)
	}
	if strategy != learn.StrategyAggressive {
		t.Errorf("Expected aggressive strategy, got %s", strategy)
	}
}

func TestNilStorePipeline(t *testing.T) {
	e := New(config.DefaultConfig(), nil)

	ts := int64(1000)
	for i := 0; i < 5; i++ {
		e.HandleScroll("com.instagram.android", ts)
		ts += 1000
	}

	if _, err := e.RunLearningPass(); err != nil {
		t.Errorf("Learning pass with nil store should be a no-op, got %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close with nil store should succeed, got %v", err)
	}
}
