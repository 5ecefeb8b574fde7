package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hentity/fretty/internal/spaced_repetition"
)

// ErrProgressNotFound is returned when a user has no saved progress yet
var ErrProgressNotFound = errors.New("progress not found")

// ErrProgressConflict is returned when progress was saved by someone else
// after it was loaded
var ErrProgressConflict = errors.New("progress changed since it was loaded")

// ProgressRepository loads and saves learner snapshots
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// Load returns the saved progress for a user
func (r *ProgressRepository) Load(ctx context.Context, userID int64) (*spaced_repetition.Progress, error) {
	progress, _, err := r.LoadVersion(ctx, userID)
	return progress, err
}

// LoadVersion returns the saved progress and its version for SaveVersion
func (r *ProgressRepository) LoadVersion(ctx context.Context, userID int64) (*spaced_repetition.Progress, int64, error) {
	var row struct {
		Snapshot string `db:"snapshot"`
		Version  int64  `db:"version"`
	}
	query := DB.Rebind("SELECT snapshot, version FROM progress WHERE user_id = ?")
	err := DB.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrProgressNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get progress: %w", err)
	}

	var progress spaced_repetition.Progress
	if err := json.Unmarshal([]byte(row.Snapshot), &progress); err != nil {
		return nil, 0, fmt.Errorf("failed to decode progress for user %d: %w", userID, err)
	}
	if err := progress.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid progress for user %d: %w", userID, err)
	}
	return &progress, row.Version, nil
}

func encodeProgress(progress *spaced_repetition.Progress) (snapshot, lastReview string, err error) {
	data, err := json.Marshal(progress)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode progress: %w", err)
	}
	if progress.LastReviewDate != nil {
		lastReview = progress.LastReviewDate.String()
	}
	return string(data), lastReview, nil
}

// Save stores the progress snapshot, replacing any previous one
func (r *ProgressRepository) Save(ctx context.Context, userID int64, progress *spaced_repetition.Progress) error {
	snapshot, lastReview, err := encodeProgress(progress)
	if err != nil {
		return err
	}

	query := DB.Rebind(`
		INSERT INTO progress (user_id, snapshot, last_review_date) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			snapshot = excluded.snapshot,
			last_review_date = excluded.last_review_date,
			version = progress.version + 1,
			updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := DB.ExecContext(ctx, query, userID, snapshot, lastReview); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// SaveVersion overwrites the snapshot only if it is still at version, and
// returns the new version. ErrProgressConflict means another writer got there first.
func (r *ProgressRepository) SaveVersion(ctx context.Context, userID int64, progress *spaced_repetition.Progress, version int64) (int64, error) {
	snapshot, lastReview, err := encodeProgress(progress)
	if err != nil {
		return 0, err
	}

	query := DB.Rebind(`
		UPDATE progress SET
			snapshot = ?,
			last_review_date = ?,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND version = ?
	`)
	result, err := DB.ExecContext(ctx, query, snapshot, lastReview, userID, version)
	if err != nil {
		return 0, fmt.Errorf("failed to save progress: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to save progress: %w", err)
	}
	if rows == 0 {
		return 0, ErrProgressConflict
	}
	return version + 1, nil
}

// Delete removes a user's progress
func (r *ProgressRepository) Delete(ctx context.Context, userID int64) error {
	query := DB.Rebind("DELETE FROM progress WHERE user_id = ?")
	if _, err := DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}
