package session

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/offscroll/scrollguard/internal/logger"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// RecordStore defines the interface for session record persistence
type RecordStore interface {
	RecordSink

	// ListRecords returns the newest records up to limit, oldest first
	ListRecords(limit int) ([]*Record, error)

	// RecordsForApp returns the newest records for one app, oldest first
	RecordsForApp(appID string, limit int) ([]*Record, error)

	// RecentRecords returns records whose session ended at or after the
	// given wall-clock time, oldest first
	RecentRecords(since time.Time) ([]*Record, error)

	// CleanupOldRecords removes records older than the given TTL
	CleanupOldRecords(ttl time.Duration) (int64, error)

	// Close releases the underlying database
	Close() error
}

// SQLiteStore implements RecordStore using SQLite
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-backed record store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, ".scrollguard", "sessions.db")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	// WAL mode for better concurrency between the pipeline and the learner
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug().
		Str("path", dbPath).
		Msg("Opened session store")

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_records (
		id TEXT PRIMARY KEY,
		app_id TEXT NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL,
		total_scrolls INTEGER NOT NULL,
		blocked_scrolls INTEGER NOT NULL,
		average_velocity REAL NOT NULL,
		max_consecutive_rapid INTEGER NOT NULL,
		session_type TEXT NOT NULL,
		hour INTEGER NOT NULL,
		day_of_week TEXT NOT NULL,
		battery_level INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_created ON session_records(created_at);
	CREATE INDEX IF NOT EXISTS idx_records_app ON session_records(app_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRecord persists a finalized session record
func (s *SQLiteStore) SaveRecord(record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO session_records (id, app_id, start_time, end_time, total_scrolls, blocked_scrolls,
			average_velocity, max_consecutive_rapid, session_type, hour, day_of_week, battery_level, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.AppID,
		record.StartTime,
		record.EndTime,
		record.TotalScrolls,
		record.BlockedScrolls,
		record.AverageVelocity,
		record.MaxConsecutiveRapid,
		string(record.SessionType),
		record.Hour,
		record.DayOfWeek,
		record.BatteryLevel,
		createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	return nil
}

// ListRecords returns the newest records up to limit, oldest first
func (s *SQLiteStore) ListRecords(limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		selectRecords+` ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	reverse(records)
	return records, nil
}

// RecordsForApp returns the newest records for one app, oldest first
func (s *SQLiteStore) RecordsForApp(appID string, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		selectRecords+` WHERE app_id = ? ORDER BY created_at DESC LIMIT ?`,
		appID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for app: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	reverse(records)
	return records, nil
}

// RecentRecords returns records created at or after the given time, oldest first
func (s *SQLiteStore) RecentRecords(since time.Time) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		selectRecords+` WHERE created_at >= ? ORDER BY created_at ASC`,
		since.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

const selectRecords = `SELECT id, app_id, start_time, end_time, total_scrolls, blocked_scrolls,
	average_velocity, max_consecutive_rapid, session_type, hour, day_of_week, battery_level, created_at
	FROM session_records`

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record

	for rows.Next() {
		var record Record
		var sessionType string
		var createdAt int64

		if err := rows.Scan(
			&record.ID,
			&record.AppID,
			&record.StartTime,
			&record.EndTime,
			&record.TotalScrolls,
			&record.BlockedScrolls,
			&record.AverageVelocity,
			&record.MaxConsecutiveRapid,
			&sessionType,
			&record.Hour,
			&record.DayOfWeek,
			&record.BatteryLevel,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		record.SessionType = Type(sessionType)
		record.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, &record)
	}

	return records, rows.Err()
}

func reverse(records []*Record) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}

// CleanupOldRecords removes records older than the given TTL
func (s *SQLiteStore) CleanupOldRecords(ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl).Unix()

	result, err := s.db.Exec("DELETE FROM session_records WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old records: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		logger.Debug().
			Int64("deleted", deleted).
			Str("ttl", ttl.String()).
			Msg("Cleaned up old session records")
	}

	return deleted, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MaybeRunCleanup runs TTL cleanup with the given probability, so routine
// event handling only occasionally pays the cleanup cost
func MaybeRunCleanup(store RecordStore, ttl time.Duration, probability float64) {
	if rand.Float64() > probability {
		return
	}

	go func() {
		if _, err := store.CleanupOldRecords(ttl); err != nil {
			logger.Debug().Err(err).Msg("Failed to cleanup old records")
		}
	}()
}
