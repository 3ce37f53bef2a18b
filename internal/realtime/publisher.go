package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"confide/internal/content"
)

const (
	channelPosts    = "confide.posts"
	channelComments = "confide.comments"
)

// Publisher fans accepted content out to connected frontends over Redis
// pub/sub. Publishing is best effort: a broker outage never fails the
// submission that triggered it.
type Publisher struct {
	client *redis.Client
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New returns a publisher. A nil client yields a no-op publisher so the
// pipeline works without Redis configured.
func New(client *redis.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type postEvent struct {
	Event string        `json:"event"`
	Post  *content.Post `json:"post"`
}

type commentEvent struct {
	Event    string           `json:"event"`
	PostUUID string           `json:"post_uuid"`
	Comment  *content.Comment `json:"comment"`
}

// PublishPost announces a newly accepted post.
func (p *Publisher) PublishPost(ctx context.Context, post *content.Post) {
	p.publish(ctx, channelPosts, postEvent{Event: "post.created", Post: post})
}

// PublishComment announces a newly accepted comment.
func (p *Publisher) PublishComment(ctx context.Context, postUUID string, comment *content.Comment) {
	p.publish(ctx, channelComments, commentEvent{
		Event:    "comment.created",
		PostUUID: postUUID,
		Comment:  comment,
	})
}

func (p *Publisher) publish(ctx context.Context, channel string, event any) {
	if p.client == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode realtime event", "channel", channel, "error", err)
		return
	}
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		p.logger.WarnContext(ctx, "failed to publish realtime event", "channel", channel, "error", err)
	}
}
