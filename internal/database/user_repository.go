package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hentity/fretty/pkg/models"
)

// ErrUserNotFound is returned when no user has the requested ID
var ErrUserNotFound = errors.New("user not found")

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

const userColumns = `telegram_id, chat_id, username, first_name, notification_enabled,
	notification_hour, last_reminder_date, created_at, updated_at`

// GetByID returns a user by Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := DB.Rebind("SELECT " + userColumns + " FROM users WHERE telegram_id = ?")
	err := DB.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

// GetAll returns all users
func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := DB.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// GetUsersForNotification returns users with reminders enabled for the given hour
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	var users []models.User
	query := DB.Rebind("SELECT " + userColumns + " FROM users WHERE notification_enabled = ? AND notification_hour = ?")
	if err := DB.SelectContext(ctx, &users, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}

// Create inserts a new user or refreshes the profile fields if it exists
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := DB.Rebind(`
		INSERT INTO users (telegram_id, chat_id, username, first_name, notification_enabled, notification_hour)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
			chat_id = excluded.chat_id,
			username = excluded.username,
			first_name = excluded.first_name,
			updated_at = CURRENT_TIMESTAMP
	`)
	_, err := DB.ExecContext(ctx, query,
		user.ID,
		user.ChatID,
		user.Username,
		user.FirstName,
		user.NotificationEnabled,
		user.NotificationHour,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateNotificationSettings changes whether and when reminders are sent
func (r *UserRepository) UpdateNotificationSettings(ctx context.Context, userID int64, enabled bool, hour int) error {
	query := DB.Rebind(`
		UPDATE users SET notification_enabled = ?, notification_hour = ?, updated_at = CURRENT_TIMESTAMP
		WHERE telegram_id = ?
	`)
	return r.execOne(ctx, query, enabled, hour, userID)
}

// MarkReminded records the date the last reminder was sent
func (r *UserRepository) MarkReminded(ctx context.Context, userID int64, date models.Date) error {
	query := DB.Rebind(`UPDATE users SET last_reminder_date = ? WHERE telegram_id = ?`)
	return r.execOne(ctx, query, date.String(), userID)
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	result, err := DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
