package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	jwttoken "confide/internal/jwt_token"
	dErrors "confide/pkg/domain-errors"
	"confide/pkg/platform/httputil"
)

const accessTokenTTL = 12 * time.Hour

// Handler authenticates the single configured operator account and issues
// bearer tokens for the admin surface.
type Handler struct {
	email        string
	passwordHash string
	tokens       *jwttoken.JWTService
	logger       *slog.Logger
}

func New(email, passwordHash string, tokens *jwttoken.JWTService, logger *slog.Logger) *Handler {
	return &Handler{
		email:        email,
		passwordHash: passwordHash,
		tokens:       tokens,
		logger:       logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login handles POST /admin/login. Both the unknown-email and wrong-password
// paths return the same error so the endpoint does not confirm which admin
// address is configured.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	if h.email == "" || h.passwordHash == "" {
		h.logger.WarnContext(ctx, "admin login attempted with no admin account configured")
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
		return
	}

	if req.Email != h.email ||
		bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)) != nil {
		h.logger.WarnContext(ctx, "admin login failed", "email", req.Email)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
		return
	}

	token, err := h.tokens.GenerateAccessToken("admin", h.email, accessTokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue admin token", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token"))
		return
	}

	h.logger.InfoContext(ctx, "admin logged in", "email", h.email)
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(accessTokenTTL.Seconds()),
	})
}
