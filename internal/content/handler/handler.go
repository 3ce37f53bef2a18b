package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"confide/internal/content"
	"confide/internal/gate"
	dErrors "confide/pkg/domain-errors"
	"confide/pkg/platform/httputil"
	"confide/pkg/platform/middleware/metadata"
)

// IdentityHasher derives the one-way reaction key from a raw network address.
type IdentityHasher interface {
	Hash(rawAddr string) string
}

// Handler serves the public content surface and the admin content endpoints.
// Writes go through the submission gate; reads go straight to the content
// service.
type Handler struct {
	gate    *gate.Gate
	content *content.Service
	hasher  IdentityHasher
	logger  *slog.Logger
}

func New(g *gate.Gate, contentService *content.Service, hasher IdentityHasher, logger *slog.Logger) *Handler {
	return &Handler{
		gate:    g,
		content: contentService,
		hasher:  hasher,
		logger:  logger,
	}
}

type submitRequest struct {
	Pseudo string `json:"pseudo"`
	Body   string `json:"body"`
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

type reactionResponse struct {
	Added bool `json:"added"`
}

type updatePostRequest struct {
	Status   string `json:"status"`
	IsPublic bool   `json:"is_public"`
}

// CreatePost handles POST /posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	post, err := h.gate.SubmitPost(ctx, gate.Submission{
		Pseudo:     req.Pseudo,
		Body:       req.Body,
		RemoteAddr: metadata.GetClientIP(ctx),
		UserAgent:  metadata.GetUserAgent(ctx),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, post)
}

// ListPosts handles GET /posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	result, err := h.content.ListPosts(r.Context(), page, perPage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetPost handles GET /posts/{uuid}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.GetPost(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// CreateComment handles POST /posts/{uuid}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	comment, err := h.gate.SubmitComment(ctx, chi.URLParam(r, "uuid"), gate.Submission{
		Pseudo:     req.Pseudo,
		Body:       req.Body,
		RemoteAddr: metadata.GetClientIP(ctx),
		UserAgent:  metadata.GetUserAgent(ctx),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// ListComments handles GET /posts/{uuid}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	result, err := h.content.ListComments(r.Context(), chi.URLParam(r, "uuid"), page, perPage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// ReactToPost handles POST /posts/{uuid}/reactions.
func (h *Handler) ReactToPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := h.content.GetPost(ctx, chi.URLParam(r, "uuid"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.toggleReaction(w, r, content.SubjectPost, post.ID)
}

// ReactToComment handles POST /comments/{id}/reactions.
func (h *Handler) ReactToComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid comment identifier"))
		return
	}
	h.toggleReaction(w, r, content.SubjectComment, commentID)
}

func (h *Handler) toggleReaction(w http.ResponseWriter, r *http.Request, subjectType content.SubjectType, subjectID int64) {
	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	identityHash := ""
	if addr := metadata.GetClientIP(ctx); addr != "" {
		identityHash = h.hasher.Hash(addr)
	}

	added, err := h.content.ToggleReaction(ctx, subjectType, subjectID, req.Emoji, identityHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reactionResponse{Added: added})
}

// AdminListPosts handles GET /admin/posts.
func (h *Handler) AdminListPosts(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	result, err := h.content.ListAllPosts(r.Context(), page, perPage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// AdminUpdatePost handles PATCH /admin/posts/{uuid}.
func (h *Handler) AdminUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	post, err := h.content.UpdatePostStatus(r.Context(), chi.URLParam(r, "uuid"), content.PostStatus(req.Status), req.IsPublic)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

// AdminDeletePost handles DELETE /admin/posts/{uuid}.
func (h *Handler) AdminDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeletePost(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return page, perPage
}
