package models

import "time"

// User is a Telegram user practicing with the bot
type User struct {
	ID                  int64     `json:"id" db:"telegram_id"` // Telegram user ID
	ChatID              int64     `json:"chat_id" db:"chat_id"`
	Username            string    `json:"username" db:"username"`
	FirstName           string    `json:"first_name" db:"first_name"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"` // hour of day for reminders (0-23)
	LastReminderDate    string    `json:"last_reminder_date" db:"last_reminder_date"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}
