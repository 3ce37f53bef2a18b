package rejection

import (
	"context"
	"fmt"
	"log/slog"

	dErrors "confide/pkg/domain-errors"
)

// Store persists ledger entries. Append and read only — there is
// deliberately no update or delete operation.
type Store interface {
	Append(ctx context.Context, entry *RejectedMessage) (*RejectedMessage, error)
	FindByID(ctx context.Context, id int64) (*RejectedMessage, error)
	List(ctx context.Context, page, perPage int) (*Page, error)
}

// Service is the append-only rejection ledger.
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
		return nil, fmt.Errorf("rejection store is required")
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

// Record appends one rejection with the best-available identity and the
// assistant's raw decision artifacts.
func (s *Service) Record(ctx context.Context, entry *RejectedMessage) (*RejectedMessage, error) {
	stored, err := s.store.Append(ctx, entry)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record rejection")
	}

	s.logger.InfoContext(ctx, "rejection recorded",
		"rejection_id", stored.ID,
		"type", string(stored.Type),
		"reason", stored.Reason,
		"identity_captured", stored.HasIdentity(),
	)
	return stored, nil
}

// Get fetches one ledger entry for the admin suspend flow.
func (s *Service) Get(ctx context.Context, id int64) (*RejectedMessage, error) {
	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rejection")
	}
	if entry == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "rejection not found")
	}
	return entry, nil
}

// List returns a page of entries by recency for the admin view.
func (s *Service) List(ctx context.Context, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	result, err := s.store.List(ctx, page, perPage)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rejections")
	}
	return result, nil
}
