package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	platformMiddleware "confide/internal/platform/middleware"
	"confide/internal/rejection"
	"confide/internal/suspension"
	dErrors "confide/pkg/domain-errors"
	"confide/pkg/platform/httputil"
)

// AddressDecrypter recovers a submitter address from its stored ciphertext.
// A false return means the ciphertext predates the current key or is corrupt.
type AddressDecrypter interface {
	Decrypt(ciphertext string) (string, bool)
}

// Handler serves the admin moderation ledger and the suspend action.
type Handler struct {
	rejections  *rejection.Service
	suspensions *suspension.Service
	decrypter   AddressDecrypter
	logger      *slog.Logger
}

func New(rejections *rejection.Service, suspensions *suspension.Service, decrypter AddressDecrypter, logger *slog.Logger) *Handler {
	return &Handler{
		rejections:  rejections,
		suspensions: suspensions,
		decrypter:   decrypter,
		logger:      logger,
	}
}

// entryView decorates a ledger entry with admin-only details derived at read
// time: the recovered address and a human-readable device summary.
type entryView struct {
	*rejection.RejectedMessage
	Address string `json:"address,omitempty"`
	Device  string `json:"device,omitempty"`
}

type pageView struct {
	Entries    []entryView `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
}

// suspensionView carries the recovered address alongside a suspension record.
// The address exists nowhere else in clear text; it is decrypted per request
// for this admin-only response.
type suspensionView struct {
	*suspension.SuspendedIdentity
	Address string `json:"address,omitempty"`
}

type suspendRequest struct {
	Duration     string `json:"duration"`
	CustomMonths int    `json:"custom_months,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// List handles GET /admin/rejections.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	result, err := h.rejections.List(r.Context(), page, perPage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries := make([]entryView, 0, len(result.Entries))
	for _, entry := range result.Entries {
		entries = append(entries, h.decorate(entry))
	}

	httputil.WriteJSON(w, http.StatusOK, pageView{
		Entries:    entries,
		Total:      result.Total,
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalPages: result.TotalPages,
	})
}

// Get handles GET /admin/rejections/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid rejection identifier"))
		return
	}
	entry, err := h.rejections.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.decorate(entry))
}

// Suspend handles POST /admin/rejections/{id}/suspend. The ban is keyed on
// the identity captured when the message was rejected.
func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid rejection identifier"))
		return
	}

	var req suspendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	ctx := r.Context()
	entry, err := h.rejections.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = entry.Reason
	}

	record, err := h.suspensions.Suspend(ctx, suspension.SuspendParams{
		IdentityHash:      entry.IdentityHash,
		IdentityEncrypted: entry.IdentityEncrypted,
		Duration:          suspension.DurationSpec(req.Duration),
		CustomMonths:      req.CustomMonths,
		Reason:            reason,
		RejectedMessageID: &entry.ID,
		AdminID:           platformMiddleware.GetAdminID(ctx),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, h.decorateSuspension(record))
}

// ListSuspensions handles GET /admin/suspensions.
func (h *Handler) ListSuspensions(w http.ResponseWriter, r *http.Request) {
	records, err := h.suspensions.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	views := make([]suspensionView, 0, len(records))
	for _, record := range records {
		views = append(views, h.decorateSuspension(record))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"data": views})
}

func (h *Handler) decorateSuspension(record *suspension.SuspendedIdentity) suspensionView {
	view := suspensionView{SuspendedIdentity: record}
	if addr, ok := h.decrypter.Decrypt(record.IdentityEncrypted); ok {
		view.Address = addr
	}
	return view
}

func (h *Handler) decorate(entry *rejection.RejectedMessage) entryView {
	view := entryView{RejectedMessage: entry}
	if entry.IdentityEncrypted != "" {
		if addr, ok := h.decrypter.Decrypt(entry.IdentityEncrypted); ok {
			view.Address = addr
		}
	}
	if entry.UserAgent != "" {
		view.Device = deviceSummary(entry.UserAgent)
	}
	return view
}

// deviceSummary condenses a raw User-Agent into "Browser version on OS".
func deviceSummary(rawUA string) string {
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return rawUA
	}
	summary := name
	if version != "" {
		summary += " " + version
	}
	if os := ua.OS(); os != "" {
		summary += " on " + os
	}
	return summary
}
