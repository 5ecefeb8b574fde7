package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect opens the database for the given driver ("sqlite" or "postgres").
// For sqlite dsn is a file path (its directory is created) or ":memory:".
func Connect(dbType, dsn string) error {
	driver := "sqlite3"
	if dbType == "postgres" {
		driver = "postgres"
	} else if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	DB = db
	if err := initializeSchema(); err != nil {
		db.Close()
		DB = nil
		return err
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		err := DB.Close()
		DB = nil
		return err
	}
	return nil
}

// isPostgres reports whether the open connection uses the postgres driver
func isPostgres() bool {
	return DB.DriverName() == "postgres"
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if isPostgres() {
		serial = "SERIAL PRIMARY KEY"
	}

	statements := []struct {
		table string
		ddl   string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				telegram_id BIGINT PRIMARY KEY,
				chat_id BIGINT NOT NULL DEFAULT 0,
				username TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				notification_enabled BOOLEAN NOT NULL DEFAULT true,
				notification_hour INTEGER NOT NULL DEFAULT 18,
				last_reminder_date TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"progress", `
			CREATE TABLE IF NOT EXISTS progress (
				user_id BIGINT PRIMARY KEY REFERENCES users(telegram_id),
				snapshot TEXT NOT NULL,
				last_review_date TEXT NOT NULL DEFAULT '',
				version BIGINT NOT NULL DEFAULT 1,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"attempt_log", `
			CREATE TABLE IF NOT EXISTS attempt_log (
				id ` + serial + `,
				lesson_id TEXT NOT NULL,
				user_id BIGINT NOT NULL REFERENCES users(telegram_id),
				spot_key TEXT NOT NULL,
				note TEXT NOT NULL,
				outcome TEXT NOT NULL,
				graduated BOOLEAN NOT NULL DEFAULT false,
				interval_days REAL NOT NULL DEFAULT 1,
				lesson_date TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
	}
	for _, st := range statements {
		if _, err := DB.Exec(st.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", st.table, err)
		}
	}

	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS idx_attempt_log_user ON attempt_log(user_id, lesson_date)`); err != nil {
		return fmt.Errorf("failed to create attempt_log index: %w", err)
	}
	return nil
}
