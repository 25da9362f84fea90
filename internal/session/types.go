// Package session owns session lifecycle: boundary detection, folding live
// scorer and classifier output into immutable session records, and record
// persistence.
package session

import "time"

// Type labels how a finished session was spent
type Type string

const (
	TypeProductive Type = "productive"
	TypeDoomScroll Type = "doomscroll"
	TypeMixed      Type = "mixed"
)

// Record is the immutable summary of one completed session. Created once at
// the session boundary and never mutated afterwards; owned by storage.
type Record struct {
	ID                  string    `json:"id"`
	AppID               string    `json:"app_id"`
	StartTime           int64     `json:"start_time"`
	EndTime             int64     `json:"end_time"`
	TotalScrolls        int       `json:"total_scrolls"`
	BlockedScrolls      int       `json:"blocked_scrolls"`
	AverageVelocity     float64   `json:"average_velocity"`
	MaxConsecutiveRapid int       `json:"max_consecutive_rapid"`
	SessionType         Type      `json:"session_type"`
	Hour                int       `json:"hour"`
	DayOfWeek           string    `json:"day_of_week"`
	BatteryLevel        int       `json:"battery_level"`
	CreatedAt           time.Time `json:"created_at"`
}

// DurationMillis returns the session length.
func (r *Record) DurationMillis() int64 {
	return r.EndTime - r.StartTime
}

// Context carries the host-supplied environment at the time a session is
// finalized. Battery levels outside [0, 100] are clamped at the boundary.
type Context struct {
	Hour         int
	DayOfWeek    string
	BatteryLevel int
}

// Clamped returns a copy with all fields forced into their valid ranges.
func (c Context) Clamped() Context {
	if c.Hour < 0 {
		c.Hour = 0
	}
	if c.Hour > 23 {
		c.Hour = 23
	}
	if c.BatteryLevel < 0 {
		c.BatteryLevel = 0
	}
	if c.BatteryLevel > 100 {
		c.BatteryLevel = 100
	}
	return c
}
