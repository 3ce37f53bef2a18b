package suspension

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dErrors "confide/pkg/domain-errors"
)

// Store persists suspension records. Upsert must be atomic per identity
// hash so concurrent suspensions of the same identity collapse into one row.
type Store interface {
	// Upsert inserts or replaces the record keyed by IdentityHash and
	// returns the stored row.
	Upsert(ctx context.Context, record *SuspendedIdentity) (*SuspendedIdentity, error)
	// FindByHash returns the record for the hash, or nil when absent.
	FindByHash(ctx context.Context, identityHash string) (*SuspendedIdentity, error)
	// List returns all records newest-first.
	List(ctx context.Context) ([]*SuspendedIdentity, error)
}

// Clock is injected for deterministic expiry tests.
type Clock func() time.Time

// Service answers "is this identity currently suspended" and applies admin
// suspensions. Ban checks are best-effort: an unknown identity is never
// treated as banned.
type Service struct {
	store  Store
	clock  Clock
	logger *slog.Logger
}

type Option func(*Service)

func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("suspension store is required")
	}
	svc := &Service{
		store:  store,
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// IsBanned reports whether the identity hash has an active suspension.
// An empty hash (no network address captured) is not banned; submission
// proceeds and moderation still applies.
func (s *Service) IsBanned(ctx context.Context, identityHash string) (bool, error) {
	if identityHash == "" {
		return false, nil
	}
	record, err := s.store.FindByHash(ctx, identityHash)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check suspension")
	}
	if record == nil {
		return false, nil
	}
	return record.Active(s.clock()), nil
}

// SuspendParams carries everything needed to create or extend a ban.
type SuspendParams struct {
	IdentityHash      string
	IdentityEncrypted string
	Duration          DurationSpec
	CustomMonths      int
	Reason            string
	RejectedMessageID *int64
	AdminID           string
}

// Suspend upserts a ban for the identity. The duration is validated before
// any persistence; a missing identity is a distinct unprocessable error
// since there is nothing to key the ban on.
func (s *Service) Suspend(ctx context.Context, params SuspendParams) (*SuspendedIdentity, error) {
	months, err := resolveMonths(params.Duration, params.CustomMonths)
	if err != nil {
		return nil, err
	}
	if params.IdentityHash == "" || params.IdentityEncrypted == "" {
		return nil, dErrors.New(dErrors.CodeUnprocessable, "suspension unavailable: no identity captured for this message")
	}

	now := s.clock()
	var until *time.Time
	if months != nil {
		t := addMonths(now, *months)
		until = &t
	}

	record := &SuspendedIdentity{
		IdentityHash:      params.IdentityHash,
		IdentityEncrypted: params.IdentityEncrypted,
		Reason:            params.Reason,
		SuspendedUntil:    until,
		RejectedMessageID: params.RejectedMessageID,
		CreatedBy:         params.AdminID,
	}

	stored, err := s.store.Upsert(ctx, record)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist suspension")
	}

	s.logger.InfoContext(ctx, "identity suspended",
		"identity_hash", stored.IdentityHash,
		"duration", string(params.Duration),
		"permanent", stored.SuspendedUntil == nil,
		"admin_id", params.AdminID,
	)
	return stored, nil
}

// List returns every suspension record, active or expired, newest-first.
func (s *Service) List(ctx context.Context) ([]*SuspendedIdentity, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list suspensions")
	}
	return records, nil
}
