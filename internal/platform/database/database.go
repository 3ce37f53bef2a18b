package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the schema. Statements are idempotent so startup can run
// them unconditionally.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id BIGSERIAL PRIMARY KEY,
			uuid UUID NOT NULL UNIQUE,
			pseudo VARCHAR(32) NOT NULL,
			body TEXT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'published',
			is_public BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id BIGSERIAL PRIMARY KEY,
			post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			pseudo VARCHAR(32) NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS reactions (
			id BIGSERIAL PRIMARY KEY,
			subject_type VARCHAR(16) NOT NULL,
			subject_id BIGINT NOT NULL,
			emoji VARCHAR(16) NOT NULL,
			identity_hash VARCHAR(64) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (subject_type, subject_id, emoji, identity_hash)
		)`,
		`CREATE TABLE IF NOT EXISTS rejected_messages (
			id BIGSERIAL PRIMARY KEY,
			type VARCHAR(32) NOT NULL,
			pseudo VARCHAR(32),
			body TEXT NOT NULL,
			post_id BIGINT REFERENCES posts(id) ON DELETE SET NULL,
			post_uuid VARCHAR(36),
			reason TEXT,
			assistant_decision VARCHAR(32),
			toxicity_score SMALLINT,
			identity_hash VARCHAR(64),
			identity_encrypted TEXT,
			user_agent VARCHAR(255),
			assistant_payload JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rejected_messages_identity_hash ON rejected_messages (identity_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_rejected_messages_post_uuid ON rejected_messages (post_uuid)`,
		`CREATE TABLE IF NOT EXISTS suspended_identities (
			id BIGSERIAL PRIMARY KEY,
			identity_hash VARCHAR(64) NOT NULL UNIQUE,
			identity_encrypted TEXT NOT NULL,
			reason TEXT,
			suspended_until TIMESTAMPTZ,
			rejected_message_id BIGINT REFERENCES rejected_messages(id) ON DELETE SET NULL,
			created_by VARCHAR(64),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_suspended_identities_until ON suspended_identities (suspended_until)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
