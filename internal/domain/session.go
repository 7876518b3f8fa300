package domain

import "time"

// IntervalType distinguishes study intervals from breaks in the timer.
type IntervalType string

const (
	StudyInterval IntervalType = "study"
	BreakInterval IntervalType = "break"
)

// Interval is one run of the study timer.
type Interval struct {
	ID        string     `json:"id"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	// Duration is the planned length in seconds.
	Duration  int          `json:"duration"`
	Type      IntervalType `json:"type"`
	Completed bool         `json:"completed"`
}

// SessionRecord is one entry of the append-only study-session log.
type SessionRecord struct {
	Label           string    `json:"label"`
	DurationSeconds int       `json:"durationSeconds"`
	Timestamp       time.Time `json:"timestamp"`
}

// StreakRecord is the persisted state of the daily streak.
type StreakRecord struct {
	LastStudyDate string `json:"lastStudyDate"`
	CurrentStreak int    `json:"currentStreak"`
}

// LastViewed names the most recently studied note or label.
type LastViewed struct {
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats is a read model derived from the session log, the last-viewed map and the streak record.
type Stats struct {
	TotalNotes int         `json:"totalNotes"`
	StudyHours float64     `json:"studyHours"`
	LastViewed *LastViewed `json:"lastViewed"`
	Streak     int         `json:"streak"`
}
