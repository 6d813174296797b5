package registrations

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/volunteerhub/backend/internal/api"
	"github.com/volunteerhub/backend/internal/identity"
	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/internal/posts"
	"github.com/volunteerhub/backend/internal/store"
)

// AuditReader serves the administrative audit listing.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]store.AuditEntry, error)
}

// Handler holds registration HTTP handlers. cache and auditLog may be
// nil.
type Handler struct {
	svc      *Service
	cache    *posts.Cache
	auditLog AuditReader
	verifier identity.Verifier
}

func NewHandler(svc *Service, cache *posts.Cache, auditLog AuditReader, verifier identity.Verifier) *Handler {
	return &Handler{svc: svc, cache: cache, auditLog: auditLog, verifier: verifier}
}

// Register runs the counted-signup workflow.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PostID == "" || req.VolunteerEmail == "" {
		api.Error(w, http.StatusBadRequest, "postId and volunteerEmail are required")
		return
	}

	resp, err := h.svc.Register(r.Context(), req)
	switch {
	case errors.Is(err, store.ErrInvalidID):
		api.Error(w, http.StatusBadRequest, "invalid post id")
		return
	case errors.Is(err, store.ErrNotFound):
		api.Error(w, http.StatusNotFound, "post not found")
		return
	case errors.Is(err, ErrCapacityExhausted):
		api.Error(w, http.StatusBadRequest, ErrCapacityExhausted.Error())
		return
	case errors.Is(err, ErrAlreadyRegistered):
		api.Error(w, http.StatusBadRequest, ErrAlreadyRegistered.Error())
		return
	case err != nil:
		log.Printf("registration error: %v", err)
		api.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	// The teaser shows remaining capacity; drop stale entries.
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			log.Printf("teaser cache invalidate error: %v", err)
		}
	}
	api.WriteJSON(w, http.StatusCreated, resp)
}

// HasRegistered reports whether a (post, email) pair is already
// registered. Front-ends use it to decide whether to show the signup
// control.
func (h *Handler) HasRegistered(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("postId")
	email := r.URL.Query().Get("email")
	if postID == "" || email == "" {
		api.Error(w, http.StatusBadRequest, "postId and email query parameters are required")
		return
	}
	registered, err := h.svc.HasRegistered(r.Context(), postID, email)
	if err != nil {
		log.Printf("registration lookup error: %v", err)
		api.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]bool{"registered": registered})
}

// MyRequests lists a volunteer's registrations.
func (h *Handler) MyRequests(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		api.Error(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	regs, err := h.svc.ListByVolunteer(r.Context(), email)
	if err != nil {
		log.Printf("my-volunteer-requests error: %v", err)
		api.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	api.WriteJSON(w, http.StatusOK, regs)
}

// Cancel deletes a registration; the email query parameter must match
// the stored volunteer email.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	email := r.URL.Query().Get("email")
	if email == "" {
		api.Error(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	if err := h.verifier.Verify(r.Context(), r, email); err != nil {
		api.Error(w, http.StatusForbidden, "identity not verified")
		return
	}

	err := h.svc.Cancel(r.Context(), id, email)
	switch {
	case errors.Is(err, store.ErrInvalidID):
		api.Error(w, http.StatusBadRequest, "invalid registration id")
		return
	case errors.Is(err, store.ErrNotFound):
		api.Error(w, http.StatusNotFound, "registration not found")
		return
	case errors.Is(err, ErrNotVolunteer):
		api.Error(w, http.StatusForbidden, "only the registered volunteer may cancel")
		return
	case err != nil:
		log.Printf("cancel registration error: %v", err)
		api.Error(w, http.StatusInternalServerError, "failed to cancel registration")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]int64{"deletedCount": 1})
}

// Audit returns recent registration audit entries.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	if h.auditLog == nil {
		api.Error(w, http.StatusNotFound, "audit log not configured")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	entries, err := h.auditLog.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("audit query error: %v", err)
		api.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if entries == nil {
		entries = []store.AuditEntry{}
	}
	api.WriteJSON(w, http.StatusOK, entries)
}
