package moderation

import "encoding/json"

// SubmissionType distinguishes standalone posts from replies; replies are
// judged in the context of their parent post.
type SubmissionType string

const (
	TypePost  SubmissionType = "POST"
	TypeReply SubmissionType = "REPLY"
)

// Decision values preserved verbatim from the assistant for audit.
const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

// Rejection reasons surfaced to callers. Operators distinguish the two in
// the ledger: "unavailable" means no assistant is configured at all.
const (
	ReasonUnavailable = "moderation unavailable"
	ReasonFailed      = "moderation failed"
)

// Verdict is the typed outcome of one moderation pass.
//
// Invariant: Approved is true only when Decision is "APPROVED" and the
// assistant reply parsed cleanly. Every other path — missing assistant,
// transport failure, timeout, malformed reply — produces a rejection.
type Verdict struct {
	Approved      bool
	Reason        string
	ToxicityScore int
	Decision      string
	RawPayload    json.RawMessage
}

// rejected builds the uniform fail-closed verdict.
func rejected(reason string) Verdict {
	return Verdict{
		Approved:      false,
		Reason:        reason,
		ToxicityScore: 10,
		Decision:      DecisionRejected,
	}
}

// assistantPayload is the structured reply the assistant is expected to
// produce. Only `decision` is mandatory.
type assistantPayload struct {
	Decision      *string `json:"decision"`
	Reasoning     string  `json:"reasoning"`
	ToxicityScore int     `json:"toxicity_score"`
}
