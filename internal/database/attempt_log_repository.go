package database

import (
	"context"
	"fmt"

	"github.com/hentity/fretty/pkg/models"
)

// AttemptLogRepository records practice attempts for statistics
type AttemptLogRepository struct{}

// NewAttemptLogRepository creates a new repository instance
func NewAttemptLogRepository() *AttemptLogRepository {
	return &AttemptLogRepository{}
}

// Record inserts one attempt
func (r *AttemptLogRepository) Record(ctx context.Context, entry *models.AttemptLog) error {
	query := DB.Rebind(`
		INSERT INTO attempt_log (
			lesson_id, user_id, spot_key, note, outcome, graduated, interval_days, lesson_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := DB.ExecContext(ctx, query,
		entry.LessonID,
		entry.UserID,
		entry.SpotKey,
		entry.Note,
		entry.Outcome,
		entry.Graduated,
		entry.Interval,
		entry.LessonDate,
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// GetByLesson returns the attempts of one lesson in the order they were made
func (r *AttemptLogRepository) GetByLesson(ctx context.Context, lessonID string) ([]models.AttemptLog, error) {
	var entries []models.AttemptLog
	query := DB.Rebind(`
		SELECT id, lesson_id, user_id, spot_key, note, outcome, graduated, interval_days, lesson_date, created_at
		FROM attempt_log
		WHERE lesson_id = ?
		ORDER BY id ASC
	`)
	if err := DB.SelectContext(ctx, &entries, query, lessonID); err != nil {
		return nil, fmt.Errorf("failed to get lesson attempts: %w", err)
	}
	return entries, nil
}

// GetStats aggregates every attempt a user has made
func (r *AttemptLogRepository) GetStats(ctx context.Context, userID int64) (*models.OutcomeStats, error) {
	query := DB.Rebind(`
		SELECT
			COUNT(DISTINCT lesson_id) AS lessons,
			COUNT(*) AS attempts,
			COALESCE(SUM(CASE WHEN outcome = 'easy' THEN 1 ELSE 0 END), 0) AS easy,
			COALESCE(SUM(CASE WHEN outcome = 'good' THEN 1 ELSE 0 END), 0) AS good,
			COALESCE(SUM(CASE WHEN outcome = 'hard' THEN 1 ELSE 0 END), 0) AS hard,
			COALESCE(SUM(CASE WHEN outcome = 'fail' THEN 1 ELSE 0 END), 0) AS fail,
			COALESCE(SUM(CASE WHEN graduated THEN 1 ELSE 0 END), 0) AS graduated
		FROM attempt_log
		WHERE user_id = ?
	`)
	var stats models.OutcomeStats
	if err := DB.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return &stats, nil
}
