package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hentity/fretty/internal/spaced_repetition"
)

// Default notification window (local hours, inclusive)
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Config is the application configuration, read from the environment
type Config struct {
	TelegramToken         string
	DBType                string // sqlite or postgres
	DatabaseURL           string // postgres DSN
	DBPath                string // sqlite file
	SchedulerEnabled      bool
	NotificationStartHour int
	NotificationEndHour   int
	Location              *time.Location
	AdminUserIDs          map[int64]bool
	Params                spaced_repetition.Params
}

// Load reads an optional .env file and then the environment
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read env file: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelegramToken:         getenv("TELEGRAM_BOT_TOKEN"),
		DBType:                strings.ToLower(getenv("DB_TYPE")),
		DatabaseURL:           getenv("DATABASE_URL"),
		DBPath:                getenv("DB_PATH"),
		SchedulerEnabled:      getenv("ENABLE_SCHEDULER") != "false",
		NotificationStartHour: DefaultNotificationStartHour,
		NotificationEndHour:   DefaultNotificationEndHour,
		Location:              time.Local,
		AdminUserIDs:          make(map[int64]bool),
		Params:                spaced_repetition.DefaultParams(),
	}
	if cfg.DBType == "" {
		cfg.DBType = "sqlite"
	}
	if cfg.DBType != "sqlite" && cfg.DBType != "postgres" {
		return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.DBType)
	}
	if cfg.DBType == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when DB_TYPE=postgres")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "data/fretty.db"
	}

	var err error
	if cfg.NotificationStartHour, err = hourFromEnv(getenv, "NOTIFICATION_START_HOUR", DefaultNotificationStartHour); err != nil {
		return nil, err
	}
	if cfg.NotificationEndHour, err = hourFromEnv(getenv, "NOTIFICATION_END_HOUR", DefaultNotificationEndHour); err != nil {
		return nil, err
	}

	if tz := getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	if ids := getenv("ADMIN_USER_IDS"); ids != "" {
		for _, idStr := range strings.Split(ids, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: Invalid admin user ID: %s", idStr)
				continue
			}
			cfg.AdminUserIDs[id] = true
		}
	}

	if path := getenv("SCHEDULER_PARAMS_FILE"); path != "" {
		params, err := LoadParams(path)
		if err != nil {
			return nil, err
		}
		cfg.Params = params
	}
	if n := getenv("MAX_DAILY_SPOTS"); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_DAILY_SPOTS: %w", err)
		}
		cfg.Params.MaxDailySpots = v
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadParams reads scheduler parameters from a YAML file.
// Keys missing from the file keep their default values.
func LoadParams(path string) (spaced_repetition.Params, error) {
	params := spaced_repetition.DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("failed to read scheduler params: %w", err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("failed to parse scheduler params: %w", err)
	}
	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("scheduler params %s: %w", path, err)
	}
	return params, nil
}

func hourFromEnv(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	h, err := strconv.Atoi(v)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid %s %q: want an hour 0-23", key, v)
	}
	return h, nil
}
