package gate

import (
	"context"
	"fmt"
	"log/slog"

	"confide/internal/content"
	"confide/internal/identity"
	"confide/internal/moderation"
	"confide/internal/platform/metrics"
	"confide/internal/rejection"
	dErrors "confide/pkg/domain-errors"
)

// SuspendedMessage is the exact denial shown to banned submitters.
const SuspendedMessage = "Your account is suspended from posting."

// Moderator renders a verdict on one submission.
type Moderator interface {
	Moderate(ctx context.Context, submissionType moderation.SubmissionType, parentBody, replyBody string) moderation.Verdict
}

// BanChecker answers whether an identity hash is currently suspended.
type BanChecker interface {
	IsBanned(ctx context.Context, identityHash string) (bool, error)
}

// Ledger records declined submissions.
type Ledger interface {
	Record(ctx context.Context, entry *rejection.RejectedMessage) (*rejection.RejectedMessage, error)
}

// ContentWriter receives approved submissions.
type ContentWriter interface {
	CreatePost(ctx context.Context, pseudo, body string) (*content.Post, error)
	CreateComment(ctx context.Context, postUUID, pseudo, body string) (*content.Comment, error)
	GetPost(ctx context.Context, postUUID string) (*content.Post, error)
}

// Broadcaster fans accepted content out to live clients.
type Broadcaster interface {
	PublishPost(ctx context.Context, post *content.Post)
	PublishComment(ctx context.Context, postUUID string, comment *content.Comment)
}

// Gate is the single entry point for public submissions. Every post and
// comment passes the same sequence: suspension check, moderation, then either
// a ledger entry or a stored record. Content is never persisted before the
// verdict.
type Gate struct {
	hasher      *identity.Hasher
	suspensions BanChecker
	moderator   Moderator
	rejections  Ledger
	content     ContentWriter
	broadcaster Broadcaster
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

type Option func(*Gate)

func WithBroadcaster(b Broadcaster) Option {
	return func(g *Gate) {
		g.broadcaster = b
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func New(hasher *identity.Hasher, suspensions BanChecker, moderator Moderator, rejections Ledger, writer ContentWriter, opts ...Option) (*Gate, error) {
	if hasher == nil {
		return nil, fmt.Errorf("identity hasher is required")
	}
	if suspensions == nil {
		return nil, fmt.Errorf("suspension checker is required")
	}
	if moderator == nil {
		return nil, fmt.Errorf("moderator is required")
	}
	if rejections == nil {
		return nil, fmt.Errorf("rejection ledger is required")
	}
	if writer == nil {
		return nil, fmt.Errorf("content writer is required")
	}

	g := &Gate{
		hasher:      hasher,
		suspensions: suspensions,
		moderator:   moderator,
		rejections:  rejections,
		content:     writer,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Submission is one public attempt to post or reply.
type Submission struct {
	Pseudo     string
	Body       string
	RemoteAddr string
	UserAgent  string
}

// SubmitPost runs a new post through the pipeline. On approval the post is
// stored and announced; on rejection a ledger entry is written and the caller
// gets a forbidden error.
func (g *Gate) SubmitPost(ctx context.Context, sub Submission) (*content.Post, error) {
	if err := content.ValidateSubmission(sub.Pseudo, sub.Body); err != nil {
		return nil, err
	}

	id, banned, err := g.admit(ctx, sub.RemoteAddr)
	if err != nil {
		return nil, err
	}
	if banned {
		g.recordSubmission(moderation.TypePost, "suspended")
		return nil, dErrors.New(dErrors.CodeForbidden, SuspendedMessage)
	}

	verdict := g.moderator.Moderate(ctx, moderation.TypePost, sub.Body, "")
	if !verdict.Approved {
		g.recordRejection(ctx, moderation.TypePost, sub, id, verdict, nil, "")
		g.recordSubmission(moderation.TypePost, "rejected")
		return nil, rejectionError(verdict)
	}

	post, err := g.content.CreatePost(ctx, sub.Pseudo, sub.Body)
	if err != nil {
		return nil, err
	}
	if g.broadcaster != nil {
		g.broadcaster.PublishPost(ctx, post)
	}
	g.recordSubmission(moderation.TypePost, "accepted")
	return post, nil
}

// SubmitComment runs a reply through the pipeline. The parent post's body is
// sent alongside the reply so moderation judges it in context.
func (g *Gate) SubmitComment(ctx context.Context, postUUID string, sub Submission) (*content.Comment, error) {
	if err := content.ValidateSubmission(sub.Pseudo, sub.Body); err != nil {
		return nil, err
	}

	parent, err := g.content.GetPost(ctx, postUUID)
	if err != nil {
		return nil, err
	}

	id, banned, err := g.admit(ctx, sub.RemoteAddr)
	if err != nil {
		return nil, err
	}
	if banned {
		g.recordSubmission(moderation.TypeReply, "suspended")
		return nil, dErrors.New(dErrors.CodeForbidden, SuspendedMessage)
	}

	verdict := g.moderator.Moderate(ctx, moderation.TypeReply, parent.Body, sub.Body)
	if !verdict.Approved {
		g.recordRejection(ctx, moderation.TypeReply, sub, id, verdict, &parent.ID, parent.UUID)
		g.recordSubmission(moderation.TypeReply, "rejected")
		return nil, rejectionError(verdict)
	}

	comment, err := g.content.CreateComment(ctx, postUUID, sub.Pseudo, sub.Body)
	if err != nil {
		return nil, err
	}
	if g.broadcaster != nil {
		g.broadcaster.PublishComment(ctx, postUUID, comment)
	}
	g.recordSubmission(moderation.TypeReply, "accepted")
	return comment, nil
}

// admit resolves the submitter identity and checks the ban list. A failing
// ban lookup admits the submission; moderation downstream remains the
// fail-closed layer.
func (g *Gate) admit(ctx context.Context, remoteAddr string) (identity.Identity, bool, error) {
	id, known := g.hasher.Resolve(remoteAddr)
	if !known {
		return identity.Identity{}, false, nil
	}

	banned, err := g.suspensions.IsBanned(ctx, id.Hash)
	if err != nil {
		g.logger.ErrorContext(ctx, "suspension check failed, admitting to moderation", "error", err)
		return id, false, nil
	}
	if banned && g.metrics != nil {
		g.metrics.RecordSuspensionDenial()
	}
	return id, banned, nil
}

func (g *Gate) recordRejection(ctx context.Context, submissionType moderation.SubmissionType, sub Submission, id identity.Identity, verdict moderation.Verdict, postID *int64, postUUID string) {
	score := verdict.ToxicityScore
	entry := &rejection.RejectedMessage{
		Type:              submissionType,
		Pseudo:            sub.Pseudo,
		Body:              sub.Body,
		PostID:            postID,
		PostUUID:          postUUID,
		Reason:            verdict.Reason,
		AssistantDecision: verdict.Decision,
		ToxicityScore:     &score,
		IdentityHash:      id.Hash,
		IdentityEncrypted: id.Encrypted,
		UserAgent:         sub.UserAgent,
		AssistantPayload:  verdict.RawPayload,
	}
	if _, err := g.rejections.Record(ctx, entry); err != nil {
		// The submitter still gets the rejection even if the audit write
		// fails.
		g.logger.ErrorContext(ctx, "failed to record rejection", "error", err)
	}
}

func rejectionError(verdict moderation.Verdict) error {
	message := "your message was rejected by moderation"
	if verdict.Reason != "" {
		message = fmt.Sprintf("%s: %s", message, verdict.Reason)
	}
	return dErrors.New(dErrors.CodeUnprocessable, message)
}

func (g *Gate) recordSubmission(submissionType moderation.SubmissionType, outcome string) {
	if g.metrics != nil {
		g.metrics.RecordSubmission(string(submissionType), outcome)
	}
}
