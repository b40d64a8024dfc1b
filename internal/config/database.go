package config

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trips (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			destination VARCHAR(255) NOT NULL,
			start_date TIMESTAMP NOT NULL,
			end_date TIMESTAMP NOT NULL,
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			status VARCHAR(16) NOT NULL DEFAULT 'upcoming',
			created_by VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trip_members (
			trip_id VARCHAR(36) NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			cost_ratio DOUBLE PRECISION NOT NULL DEFAULT 0,
			role VARCHAR(16) NOT NULL DEFAULT 'view',
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (trip_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS trip_items (
			id VARCHAR(36) PRIMARY KEY,
			trip_id VARCHAR(36) NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			item_type VARCHAR(32) NOT NULL,
			item_ref VARCHAR(255) NOT NULL,
			price DOUBLE PRECISION,
			payload TEXT,
			added_by VARCHAR(36) NOT NULL REFERENCES users(id),
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			trip_item_id VARCHAR(36) NOT NULL REFERENCES trip_items(id) ON DELETE CASCADE,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			up BOOLEAN NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (trip_item_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			trip_id VARCHAR(36) REFERENCES trips(id) ON DELETE CASCADE,
			kind VARCHAR(32) NOT NULL,
			message TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notification_preferences (
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			kind VARCHAR(32) NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			PRIMARY KEY (user_id, kind)
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id VARCHAR(36) PRIMARY KEY,
			trip_id VARCHAR(36) NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			sender_id VARCHAR(36) NOT NULL REFERENCES users(id),
			content TEXT NOT NULL,
			attachment_url TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cancellation_votes (
			trip_id VARCHAR(36) NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (trip_id, user_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_trip_items_trip_id ON trip_items(trip_id)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_chat_messages_trip_created ON chat_messages(trip_id, created_at)",
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			slog.Warn("failed to create index", "error", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
