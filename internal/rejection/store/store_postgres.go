package store

import (
	"context"
	"database/sql"
	"fmt"

	"confide/internal/moderation"
	"confide/internal/rejection"
)

// PostgresStore persists ledger entries in PostgreSQL. Only INSERT and
// SELECT are issued against rejected_messages; the table is an audit log.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry *rejection.RejectedMessage) (*rejection.RejectedMessage, error) {
	query := `
		INSERT INTO rejected_messages
			(type, pseudo, body, post_id, post_uuid, reason, assistant_decision,
			 toxicity_score, identity_hash, identity_encrypted, user_agent, assistant_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	stored := *entry
	err := s.db.QueryRowContext(ctx, query,
		string(entry.Type),
		nullString(entry.Pseudo),
		entry.Body,
		entry.PostID,
		nullString(entry.PostUUID),
		nullString(entry.Reason),
		nullString(entry.AssistantDecision),
		entry.ToxicityScore,
		nullString(entry.IdentityHash),
		nullString(entry.IdentityEncrypted),
		nullString(entry.UserAgent),
		nullBytes(entry.AssistantPayload),
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("append rejection: %w", err)
	}
	return &stored, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*rejection.RejectedMessage, error) {
	query := selectColumns + ` WHERE id = $1`
	entry, err := scanRejectedMessage(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find rejection: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) List(ctx context.Context, page, perPage int) (*rejection.Page, error) {
	page, perPage = clampPage(page, perPage)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rejected_messages`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rejections: %w", err)
	}

	query := selectColumns + ` ORDER BY id DESC LIMIT $1 OFFSET $2`
	rows, err := s.db.QueryContext(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list rejections: %w", err)
	}
	defer rows.Close()

	entries := make([]*rejection.RejectedMessage, 0, perPage)
	for rows.Next() {
		entry, err := scanRejectedMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rejection: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &rejection.Page{
		Entries:    entries,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

const selectColumns = `
	SELECT id, type, pseudo, body, post_id, post_uuid, reason, assistant_decision,
		toxicity_score, identity_hash, identity_encrypted, user_agent, assistant_payload, created_at
	FROM rejected_messages`

type row interface {
	Scan(dest ...any) error
}

func scanRejectedMessage(r row) (*rejection.RejectedMessage, error) {
	var entry rejection.RejectedMessage
	var submissionType string
	var pseudo, postUUID, reason, decision, identityHash, identityEncrypted, userAgent sql.NullString
	var postID sql.NullInt64
	var toxicity sql.NullInt64
	var payload []byte

	if err := r.Scan(
		&entry.ID,
		&submissionType,
		&pseudo,
		&entry.Body,
		&postID,
		&postUUID,
		&reason,
		&decision,
		&toxicity,
		&identityHash,
		&identityEncrypted,
		&userAgent,
		&payload,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}

	entry.Type = moderation.SubmissionType(submissionType)
	entry.Pseudo = pseudo.String
	entry.PostUUID = postUUID.String
	entry.Reason = reason.String
	entry.AssistantDecision = decision.String
	entry.IdentityHash = identityHash.String
	entry.IdentityEncrypted = identityEncrypted.String
	entry.UserAgent = userAgent.String
	entry.AssistantPayload = payload
	if postID.Valid {
		entry.PostID = &postID.Int64
	}
	if toxicity.Valid {
		score := int(toxicity.Int64)
		entry.ToxicityScore = &score
	}
	return &entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
