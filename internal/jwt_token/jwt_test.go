package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "confide/pkg/domain-errors"
)

type JWTServiceSuite struct {
	suite.Suite
	svc *JWTService
}

func TestJWTServiceSuite(t *testing.T) {
	suite.Run(t, new(JWTServiceSuite))
}

func (s *JWTServiceSuite) SetupTest() {
	s.svc = NewJWTService("test-signing-key", "confide")
}

func (s *JWTServiceSuite) TestRoundTrip() {
	token, err := s.svc.GenerateAccessToken("admin-1", "admin@example.com", time.Hour)
	s.Require().NoError(err)
	s.NotEmpty(token)

	claims, err := s.svc.ValidateToken(token)
	s.Require().NoError(err)
	s.Equal("admin-1", claims.AdminID)
	s.Equal("admin@example.com", claims.Email)
	s.Equal("confide", claims.Issuer)
}

func (s *JWTServiceSuite) TestExpiredToken() {
	token, err := s.svc.GenerateAccessToken("admin-1", "admin@example.com", -time.Minute)
	s.Require().NoError(err)

	_, err = s.svc.ValidateToken(token)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	s.Contains(err.Error(), "expired")
}

func (s *JWTServiceSuite) TestWrongKey() {
	other := NewJWTService("different-key", "confide")
	token, err := other.GenerateAccessToken("admin-1", "admin@example.com", time.Hour)
	s.Require().NoError(err)

	_, err = s.svc.ValidateToken(token)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}

func (s *JWTServiceSuite) TestGarbageToken() {
	_, err := s.svc.ValidateToken("not-a-token")
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
}
