package bot

import (
	"time"

	"github.com/hentity/fretty/internal/fretboard"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Number of frets on the practiced fretboard
	Frets int
	// Reminder hour given to new users
	DefaultNotificationHour int
	// Lessons untouched for this long are dropped from memory
	SessionIdleTimeout time.Duration
	// Timeout for handling a single update
	UpdateTimeout time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		Frets:                   fretboard.DefaultFrets,
		DefaultNotificationHour: 18,
		SessionIdleTimeout:      time.Hour * 6,
		UpdateTimeout:           time.Second * 30,
	}
}
