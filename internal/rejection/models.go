package rejection

import (
	"encoding/json"
	"time"

	"confide/internal/moderation"
)

// RejectedMessage is one declined submission attempt. Rows are append-only:
// the ledger is the evidentiary basis for suspensions and is never updated
// or deleted after creation.
type RejectedMessage struct {
	ID                int64                     `json:"id"`
	Type              moderation.SubmissionType `json:"type"`
	Pseudo            string                    `json:"pseudo,omitempty"`
	Body              string                    `json:"body"`
	PostID            *int64                    `json:"post_id,omitempty"`
	PostUUID          string                    `json:"post_uuid,omitempty"`
	Reason            string                    `json:"reason,omitempty"`
	AssistantDecision string                    `json:"assistant_decision,omitempty"`
	ToxicityScore     *int                      `json:"toxicity_score,omitempty"`
	IdentityHash      string                    `json:"identity_hash,omitempty"`
	IdentityEncrypted string                    `json:"-"`
	UserAgent         string                    `json:"user_agent,omitempty"`
	AssistantPayload  json.RawMessage           `json:"assistant_payload,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
}

// HasIdentity reports whether the submitter's network identity was captured
// at rejection time. Without it there is nothing to key a suspension on.
func (r *RejectedMessage) HasIdentity() bool {
	return r.IdentityHash != "" && r.IdentityEncrypted != ""
}

// Page is one page of ledger entries, newest-first.
type Page struct {
	Entries    []*RejectedMessage `json:"data"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalPages int                `json:"total_pages"`
}
