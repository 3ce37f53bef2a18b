package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"confide/internal/assistant"
	"confide/internal/platform/metrics"
)

// Client is the subset of the assistant API the gateway drives. Tests
// substitute a fake to walk the state machine deterministically.
type Client interface {
	CreateThread(ctx context.Context) (string, error)
	AddMessage(ctx context.Context, threadID, content string) error
	StartRun(ctx context.Context, threadID, assistantID string) (string, error)
	GetRunStatus(ctx context.Context, threadID, runID string) (assistant.RunStatus, error)
	LatestAssistantReply(ctx context.Context, threadID string) (string, bool, error)
}

// Sleeper abstracts the poll delay so tests can simulate elapsed attempts
// instantly.
type Sleeper func(ctx context.Context, d time.Duration)

func realSleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// Gateway owns the poll/verdict state machine. It is strictly fail-closed:
// every ambiguous, erroring, slow, or malformed path results in rejection,
// never silent approval.
type Gateway struct {
	client       Client
	assistantID  string
	pollInterval time.Duration
	pollAttempts int
	sleep        Sleeper
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Gateway)

func WithSleeper(sleep Sleeper) Option {
	return func(g *Gateway) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

func WithPollPolicy(interval time.Duration, attempts int) Option {
	return func(g *Gateway) {
		if interval > 0 {
			g.pollInterval = interval
		}
		if attempts > 0 {
			g.pollAttempts = attempts
		}
	}
}

// New builds a Gateway. An empty assistantID is allowed and makes Moderate
// reject everything without network calls.
func New(client Client, assistantID string, opts ...Option) (*Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("assistant client is required")
	}

	g := &Gateway{
		client:       client,
		assistantID:  assistantID,
		pollInterval: time.Second,
		pollAttempts: 12,
		sleep:        realSleep,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Moderate submits the content to the assistant and maps its reply into a
// Verdict. For replies, parentBody carries the post being replied to so the
// assistant judges the reply in context.
func (g *Gateway) Moderate(ctx context.Context, submissionType SubmissionType, parentBody, replyBody string) Verdict {
	if g.assistantID == "" {
		// No moderation capability must never default to auto-approval.
		return rejected(ReasonUnavailable)
	}

	prompt := buildPrompt(submissionType, parentBody, replyBody)

	threadID, err := g.client.CreateThread(ctx)
	if err != nil {
		return g.failed(ctx, "create thread", err)
	}
	if err := g.client.AddMessage(ctx, threadID, prompt); err != nil {
		return g.failed(ctx, "add message", err)
	}
	runID, err := g.client.StartRun(ctx, threadID, g.assistantID)
	if err != nil {
		return g.failed(ctx, "start run", err)
	}

	status, err := g.pollRun(ctx, threadID, runID)
	if err != nil {
		return g.failed(ctx, "poll run", err)
	}
	if status != assistant.RunStatusCompleted {
		g.logger.WarnContext(ctx, "moderation run did not complete", "status", string(status))
		g.recordCall(string(status))
		return rejected(ReasonFailed)
	}

	reply, found, err := g.client.LatestAssistantReply(ctx, threadID)
	if err != nil {
		return g.failed(ctx, "fetch reply", err)
	}
	if !found {
		g.logger.WarnContext(ctx, "moderation run completed without an assistant reply")
		g.recordCall("no_reply")
		return rejected(ReasonFailed)
	}

	g.recordCall("completed")
	return parseVerdict(reply)
}

// pollRun samples the run status until it leaves {queued, in_progress} or
// the attempt budget is exhausted. The budget bounds worst-case latency to
// pollAttempts x pollInterval; exhaustion yields the still-pending status,
// which the caller treats as a timeout.
func (g *Gateway) pollRun(ctx context.Context, threadID, runID string) (assistant.RunStatus, error) {
	status, err := g.client.GetRunStatus(ctx, threadID, runID)
	if err != nil {
		return "", err
	}

	for attempt := 0; status.Pending() && attempt < g.pollAttempts; attempt++ {
		g.sleep(ctx, g.pollInterval)
		status, err = g.client.GetRunStatus(ctx, threadID, runID)
		if err != nil {
			return "", err
		}
	}
	return status, nil
}

// parseVerdict is the single total function from a raw assistant reply to a
// Verdict. Approval is only reachable through a well-formed JSON object whose
// decision field equals "APPROVED"; anything else rejects.
func parseVerdict(reply string) Verdict {
	var payload assistantPayload
	if err := json.Unmarshal([]byte(reply), &payload); err != nil {
		return rejected(ReasonFailed)
	}
	if payload.Decision == nil {
		return rejected(ReasonFailed)
	}

	return Verdict{
		Approved:      *payload.Decision == DecisionApproved,
		Reason:        payload.Reasoning,
		ToxicityScore: payload.ToxicityScore,
		Decision:      *payload.Decision,
		RawPayload:    json.RawMessage(reply),
	}
}

func buildPrompt(submissionType SubmissionType, parentBody, replyBody string) string {
	if submissionType == TypeReply {
		return fmt.Sprintf("TYPE: %s / CONFESSION: %s / COMMENT: %s", submissionType, parentBody, replyBody)
	}
	return fmt.Sprintf("TYPE: %s / CONFESSION: %s", submissionType, parentBody)
}

func (g *Gateway) failed(ctx context.Context, op string, err error) Verdict {
	g.logger.ErrorContext(ctx, "moderation call failed", "op", op, "error", err)
	g.recordCall("error")
	return rejected(ReasonFailed)
}

func (g *Gateway) recordCall(status string) {
	if g.metrics != nil {
		g.metrics.RecordAssistantCall(status)
	}
}
