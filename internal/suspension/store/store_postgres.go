package store

import (
	"context"
	"database/sql"
	"fmt"

	"confide/internal/suspension"
)

// PostgresStore persists suspension records in PostgreSQL. This store is
// pure I/O — active-ban logic and duration arithmetic belong in the service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed suspension store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert relies on the unique index on identity_hash so concurrent
// suspensions of the same identity never create duplicate rows.
func (s *PostgresStore) Upsert(ctx context.Context, record *suspension.SuspendedIdentity) (*suspension.SuspendedIdentity, error) {
	query := `
		INSERT INTO suspended_identities
			(identity_hash, identity_encrypted, reason, suspended_until, rejected_message_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (identity_hash) DO UPDATE SET
			identity_encrypted = EXCLUDED.identity_encrypted,
			reason = EXCLUDED.reason,
			suspended_until = EXCLUDED.suspended_until,
			rejected_message_id = EXCLUDED.rejected_message_id,
			created_by = EXCLUDED.created_by,
			updated_at = NOW()
		RETURNING id, identity_hash, identity_encrypted, reason, suspended_until,
			rejected_message_id, created_by, created_at, updated_at
	`
	stored, err := scanSuspendedIdentity(s.db.QueryRowContext(ctx, query,
		record.IdentityHash,
		record.IdentityEncrypted,
		nullString(record.Reason),
		record.SuspendedUntil,
		record.RejectedMessageID,
		nullString(record.CreatedBy),
	))
	if err != nil {
		return nil, fmt.Errorf("upsert suspension: %w", err)
	}
	return stored, nil
}

func (s *PostgresStore) FindByHash(ctx context.Context, identityHash string) (*suspension.SuspendedIdentity, error) {
	query := `
		SELECT id, identity_hash, identity_encrypted, reason, suspended_until,
			rejected_message_id, created_by, created_at, updated_at
		FROM suspended_identities
		WHERE identity_hash = $1
	`
	record, err := scanSuspendedIdentity(s.db.QueryRowContext(ctx, query, identityHash))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find suspension: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*suspension.SuspendedIdentity, error) {
	query := `
		SELECT id, identity_hash, identity_encrypted, reason, suspended_until,
			rejected_message_id, created_by, created_at, updated_at
		FROM suspended_identities
		ORDER BY id DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list suspensions: %w", err)
	}
	defer rows.Close()

	var records []*suspension.SuspendedIdentity
	for rows.Next() {
		record, err := scanSuspendedIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan suspension: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type row interface {
	Scan(dest ...any) error
}

func scanSuspendedIdentity(r row) (*suspension.SuspendedIdentity, error) {
	var record suspension.SuspendedIdentity
	var reason, createdBy sql.NullString
	var until sql.NullTime
	var rejectedMessageID sql.NullInt64

	if err := r.Scan(
		&record.ID,
		&record.IdentityHash,
		&record.IdentityEncrypted,
		&reason,
		&until,
		&rejectedMessageID,
		&createdBy,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}

	record.Reason = reason.String
	record.CreatedBy = createdBy.String
	if until.Valid {
		record.SuspendedUntil = &until.Time
	}
	if rejectedMessageID.Valid {
		record.RejectedMessageID = &rejectedMessageID.Int64
	}
	return &record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
