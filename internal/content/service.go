package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	dErrors "confide/pkg/domain-errors"
	"confide/pkg/platform/sentinel"
)

// Store persists posts, comments and reactions.
type Store interface {
	CreatePost(ctx context.Context, post *Post) (*Post, error)
	FindPostByUUID(ctx context.Context, uuid string) (*Post, error)
	ListPosts(ctx context.Context, publicOnly bool, page, perPage int) (*PostPage, error)
	UpdatePostStatus(ctx context.Context, id int64, status PostStatus, isPublic bool) (*Post, error)
	DeletePost(ctx context.Context, id int64) error
	CreateComment(ctx context.Context, comment *Comment) (*Comment, error)
	ListComments(ctx context.Context, postID int64, page, perPage int) (*CommentPage, error)
	ToggleReaction(ctx context.Context, reaction *Reaction) (bool, error)
}

const (
	maxPseudoLength = 50
	maxBodyLength   = 5000
	maxEmojiLength  = 16
)

// Service owns accepted content. Submissions reach it only after the
// moderation pipeline has approved them.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("content store is required")
	}
	svc := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ValidateSubmission checks pseudo and body limits before the submission is
// sent through moderation.
func ValidateSubmission(pseudo, body string) error {
	if strings.TrimSpace(body) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "body is required")
	}
	if len(body) > maxBodyLength {
		return dErrors.New(dErrors.CodeBadRequest, "body exceeds maximum length")
	}
	if len(pseudo) > maxPseudoLength {
		return dErrors.New(dErrors.CodeBadRequest, "pseudo exceeds maximum length")
	}
	return nil
}

// CreatePost stores an approved post as published and publicly visible.
func (s *Service) CreatePost(ctx context.Context, pseudo, body string) (*Post, error) {
	post := &Post{
		UUID:     uuid.NewString(),
		Pseudo:   pseudo,
		Body:     body,
		Status:   StatusPublished,
		IsPublic: true,
	}
	stored, err := s.store.CreatePost(ctx, post)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create post")
	}

	s.logger.InfoContext(ctx, "post created", "post_uuid", stored.UUID)
	return stored, nil
}

// GetPost fetches a post by its public identifier.
func (s *Service) GetPost(ctx context.Context, postUUID string) (*Post, error) {
	if _, err := uuid.Parse(postUUID); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid post identifier")
	}
	post, err := s.store.FindPostByUUID(ctx, postUUID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load post")
	}
	if post == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "post not found")
	}
	return post, nil
}

// ListPosts returns the public feed, newest first.
func (s *Service) ListPosts(ctx context.Context, page, perPage int) (*PostPage, error) {
	page, perPage = clampPagination(page, perPage)
	result, err := s.store.ListPosts(ctx, true, page, perPage)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list posts")
	}
	return result, nil
}

// ListAllPosts returns every post regardless of visibility, for the admin
// surface.
func (s *Service) ListAllPosts(ctx context.Context, page, perPage int) (*PostPage, error) {
	page, perPage = clampPagination(page, perPage)
	result, err := s.store.ListPosts(ctx, false, page, perPage)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list posts")
	}
	return result, nil
}

// UpdatePostStatus changes a post's publication state.
func (s *Service) UpdatePostStatus(ctx context.Context, postUUID string, status PostStatus, isPublic bool) (*Post, error) {
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid post status")
	}
	post, err := s.GetPost(ctx, postUUID)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.UpdatePostStatus(ctx, post.ID, status, isPublic)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "post not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update post")
	}

	s.logger.InfoContext(ctx, "post status updated",
		"post_uuid", postUUID,
		"status", string(status),
		"is_public", isPublic,
	)
	return updated, nil
}

// DeletePost removes a post and its comments.
func (s *Service) DeletePost(ctx context.Context, postUUID string) error {
	post, err := s.GetPost(ctx, postUUID)
	if err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, post.ID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "post not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete post")
	}

	s.logger.InfoContext(ctx, "post deleted", "post_uuid", postUUID)
	return nil
}

// CreateComment stores an approved comment on a post.
func (s *Service) CreateComment(ctx context.Context, postUUID, pseudo, body string) (*Comment, error) {
	post, err := s.GetPost(ctx, postUUID)
	if err != nil {
		return nil, err
	}
	comment := &Comment{
		PostID: post.ID,
		Pseudo: pseudo,
		Body:   body,
	}
	stored, err := s.store.CreateComment(ctx, comment)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "post not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create comment")
	}

	s.logger.InfoContext(ctx, "comment created", "post_uuid", postUUID, "comment_id", stored.ID)
	return stored, nil
}

// ListComments returns a page of a post's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, postUUID string, page, perPage int) (*CommentPage, error) {
	post, err := s.GetPost(ctx, postUUID)
	if err != nil {
		return nil, err
	}
	page, perPage = clampPagination(page, perPage)
	result, err := s.store.ListComments(ctx, post.ID, page, perPage)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list comments")
	}
	return result, nil
}

// ToggleReaction flips one identity's emoji on a subject. Anonymous callers
// without a resolvable identity cannot react.
func (s *Service) ToggleReaction(ctx context.Context, subjectType SubjectType, subjectID int64, emoji, identityHash string) (bool, error) {
	if identityHash == "" {
		return false, dErrors.New(dErrors.CodeUnprocessable, "no identity captured for this request")
	}
	if emoji == "" || len(emoji) > maxEmojiLength {
		return false, dErrors.New(dErrors.CodeBadRequest, "invalid emoji")
	}
	if subjectType != SubjectPost && subjectType != SubjectComment {
		return false, dErrors.New(dErrors.CodeBadRequest, "invalid reaction subject")
	}

	added, err := s.store.ToggleReaction(ctx, &Reaction{
		SubjectType:  subjectType,
		SubjectID:    subjectID,
		Emoji:        emoji,
		IdentityHash: identityHash,
	})
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to toggle reaction")
	}
	return added, nil
}

func clampPagination(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
