package models

import "time"

// AttemptLog is one recorded practice attempt
type AttemptLog struct {
	ID         int64     `json:"id" db:"id"`
	LessonID   string    `json:"lesson_id" db:"lesson_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	SpotKey    string    `json:"spot_key" db:"spot_key"`
	Note       string    `json:"note" db:"note"`
	Outcome    string    `json:"outcome" db:"outcome"`
	Graduated  bool      `json:"graduated" db:"graduated"`
	Interval   float64   `json:"interval" db:"interval_days"`
	LessonDate string    `json:"lesson_date" db:"lesson_date"` // YYYY-MM-DD
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// OutcomeStats aggregates attempts for one user
type OutcomeStats struct {
	Lessons   int `db:"lessons"`
	Attempts  int `db:"attempts"`
	Easy      int `db:"easy"`
	Good      int `db:"good"`
	Hard      int `db:"hard"`
	Fail      int `db:"fail"`
	Graduated int `db:"graduated"`
}
