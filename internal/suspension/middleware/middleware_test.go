package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"confide/internal/identity"
	"confide/internal/suspension/middleware"
	"confide/pkg/platform/middleware/metadata"
)

type fakeChecker struct {
	banned map[string]bool
	err    error
	calls  int
}

func (f *fakeChecker) IsBanned(_ context.Context, identityHash string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.banned[identityHash], nil
}

type MiddlewareSuite struct {
	suite.Suite
	hasher  *identity.Hasher
	checker *fakeChecker
	handler http.Handler
	reached bool
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	var err error
	s.hasher, err = identity.NewHasher("test-secret")
	s.Require().NoError(err)

	s.checker = &fakeChecker{banned: make(map[string]bool)}
	s.reached = false

	m := middleware.New(s.checker, s.hasher, slog.Default(), nil)
	s.handler = m.CheckSuspended(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.reached = true
		w.WriteHeader(http.StatusOK)
	}))
}

func (s *MiddlewareSuite) serve(clientIP string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
	req = req.WithContext(metadata.WithClientMetadata(req.Context(), clientIP, "test-agent"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *MiddlewareSuite) TestUnbannedPassesThrough() {
	rec := s.serve("203.0.113.7")
	s.Equal(http.StatusOK, rec.Code)
	s.True(s.reached)
	s.Equal(1, s.checker.calls)
}

func (s *MiddlewareSuite) TestBannedIsDenied() {
	s.checker.banned[s.hasher.Hash("203.0.113.7")] = true

	rec := s.serve("203.0.113.7")
	s.Equal(http.StatusForbidden, rec.Code)
	s.False(s.reached)
	s.JSONEq(`{"message":"Your account is suspended from posting."}`, rec.Body.String())
}

func (s *MiddlewareSuite) TestUnknownAddressSkipsCheck() {
	rec := s.serve("")
	s.Equal(http.StatusOK, rec.Code)
	s.True(s.reached)
	s.Zero(s.checker.calls)
}

func (s *MiddlewareSuite) TestCheckerFailureAdmits() {
	s.checker.err = errors.New("store down")

	rec := s.serve("203.0.113.7")
	s.Equal(http.StatusOK, rec.Code)
	s.True(s.reached)
}
