package postgres

import (
	"database/sql"

	log "github.com/sirupsen/logrus"
)

// RunMigrations executes database migrations.
func RunMigrations(db *sql.DB, service string) error {
	migrations := getServiceMigrations(service)
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Infof("Migrations completed for service: %s", service)
	return nil
}

func getServiceMigrations(service string) []string {
	documents := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			follower_count INTEGER NOT NULL DEFAULT 0,
			rewarded BOOLEAN NOT NULL DEFAULT FALSE,
			blocked BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			caption TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS likes (
			post_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (post_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS followers (
			user_id VARCHAR(36) NOT NULL,
			follower_id VARCHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, follower_id)
		)`,
		`CREATE TABLE IF NOT EXISTS following (
			user_id VARCHAR(36) NOT NULL,
			following_id VARCHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, following_id)
		)`,
		`CREATE TABLE IF NOT EXISTS chats (
			id VARCHAR(36) PRIMARY KEY,
			members TEXT[] NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id VARCHAR(36) PRIMARY KEY,
			chat_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id VARCHAR(36) PRIMARY KEY,
			reported_user_id VARCHAR(36) NOT NULL,
			reporter_id VARCHAR(36) NOT NULL,
			category VARCHAR(50) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_reported_user
			ON reports (reported_user_id)`,
	}

	derived := []string{
		`CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR(36) PRIMARY KEY,
			type VARCHAR(20) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			sender_id VARCHAR(36) NOT NULL,
			sender_username VARCHAR(255) NOT NULL,
			post_id VARCHAR(36) NOT NULL DEFAULT '',
			chat_id VARCHAR(36) NOT NULL DEFAULT '',
			message_text TEXT NOT NULL DEFAULT '',
			source_key VARCHAR(255) NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user
			ON notifications (user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS admin_inbox (
			id SERIAL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			reporter_id VARCHAR(36) NOT NULL DEFAULT '',
			category VARCHAR(50) NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL,
			source_key VARCHAR(255) NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS idempotency_keys (
			event_id VARCHAR(36) PRIMARY KEY,
			processed_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
	}

	switch service {
	case "api":
		return documents
	case "engine":
		return append(documents, derived...)
	default:
		return append(documents, derived...)
	}
}
