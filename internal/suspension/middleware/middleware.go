package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"confide/internal/platform/metrics"
	"confide/pkg/platform/httputil"
	"confide/pkg/platform/middleware/metadata"
)

// BanChecker answers whether a hashed identity currently holds an active
// suspension.
type BanChecker interface {
	IsBanned(ctx context.Context, identityHash string) (bool, error)
}

// IdentityHasher derives the one-way lookup key from a raw network address.
type IdentityHasher interface {
	Hash(rawAddr string) string
}

// Middleware gates submission endpoints on the suspension registry before
// moderation is even attempted.
type Middleware struct {
	checker BanChecker
	hasher  IdentityHasher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(checker BanChecker, hasher IdentityHasher, logger *slog.Logger, m *metrics.Metrics) *Middleware {
	return &Middleware{
		checker: checker,
		hasher:  hasher,
		logger:  logger,
		metrics: m,
	}
}

// CheckSuspended rejects requests from actively suspended identities with a
// 403. A request with no capturable address passes through: absence is
// "unknown", not "banned", and the moderation gate still applies. Registry
// errors also fail open here — the moderation gate downstream is the
// fail-closed layer for content.
func (m *Middleware) CheckSuspended(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rawAddr := metadata.GetClientIP(ctx)
		if rawAddr == "" {
			next.ServeHTTP(w, r)
			return
		}

		banned, err := m.checker.IsBanned(ctx, m.hasher.Hash(rawAddr))
		if err != nil {
			m.logger.ErrorContext(ctx, "suspension check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if banned {
			if m.metrics != nil {
				m.metrics.RecordSuspensionDenial()
			}
			httputil.WriteJSON(w, http.StatusForbidden, map[string]string{
				"message": "Your account is suspended from posting.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
