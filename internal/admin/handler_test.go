package admin_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"confide/internal/admin"
	jwttoken "confide/internal/jwt_token"
)

type HandlerSuite struct {
	suite.Suite
	handler *admin.Handler
	tokens  *jwttoken.JWTService
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	s.Require().NoError(err)

	s.tokens = jwttoken.NewJWTService("test-signing-key", "confide")
	s.handler = admin.New("admin@example.com", string(hash), s.tokens, slog.Default())
}

func (s *HandlerSuite) login(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handler.Login(rec, req)
	return rec
}

func (s *HandlerSuite) TestLoginSuccess() {
	rec := s.login(`{"email":"admin@example.com","password":"correct-horse"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("Bearer", resp.TokenType)

	claims, err := s.tokens.ValidateToken(resp.AccessToken)
	s.Require().NoError(err)
	s.Equal("admin@example.com", claims.Email)
}

func (s *HandlerSuite) TestLoginWrongPassword() {
	rec := s.login(`{"email":"admin@example.com","password":"wrong"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestLoginWrongEmail() {
	rec := s.login(`{"email":"other@example.com","password":"correct-horse"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestLoginMalformedBody() {
	rec := s.login(`{`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestLoginUnconfiguredAccount() {
	handler := admin.New("", "", s.tokens, slog.Default())
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"email":"a","password":"b"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}
