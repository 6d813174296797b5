package posts

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/volunteerhub/backend/internal/api"
	"github.com/volunteerhub/backend/internal/identity"
	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/internal/store"
)

const defaultTeaserLimit = 6

// Store defines the interface for post persistence.
type Store interface {
	Insert(ctx context.Context, p *models.Post) error
	List(ctx context.Context, f models.PostFilter) ([]models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	ListByOwner(ctx context.Context, email string) ([]models.Post, error)
	Update(ctx context.Context, id string, patch models.PostPatch, at time.Time) error
	Delete(ctx context.Context, id string) error
	SetVolunteersNeeded(ctx context.Context, id string, value int) error
}

// Handler holds post catalog HTTP handlers. cache may be nil, in which
// case the teaser is served straight from the store.
type Handler struct {
	posts    Store
	cache    *Cache
	verifier identity.Verifier
}

func NewHandler(posts Store, cache *Cache, verifier identity.Verifier) *Handler {
	return &Handler{posts: posts, cache: cache, verifier: verifier}
}

func (h *Handler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		log.Printf("teaser cache invalidate error: %v", err)
	}
}

// Create stores a new opportunity. volunteersNeeded defaults to 1 when
// absent or null.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var post models.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if post.VolunteersNeeded == nil {
		one := 1
		post.VolunteersNeeded = &one
	}
	if *post.VolunteersNeeded < 0 {
		api.Error(w, http.StatusBadRequest, "volunteersNeeded must not be negative")
		return
	}
	post.ID = primitive.NilObjectID
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Time{}

	if err := h.posts.Insert(r.Context(), &post); err != nil {
		log.Printf("post insert error: %v", err)
		api.Error(w, http.StatusInternalServerError, "failed to save post")
		return
	}
	h.invalidate(r.Context())
	api.WriteJSON(w, http.StatusCreated, post)
}

// List serves the full listing with optional search, sort and limit
// query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f := models.PostFilter{
		Search:         r.URL.Query().Get("search"),
		SortByDeadline: r.URL.Query().Get("sort") != "",
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}
	h.serveList(w, r, f)
}

// ListAll serves every post sorted by deadline ascending.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	f := models.PostFilter{
		Search:         r.URL.Query().Get("search"),
		SortByDeadline: true,
	}
	h.serveList(w, r, f)
}

// Teaser serves the first N posts sorted by deadline, through the
// Redis cache when one is wired.
func (h *Handler) Teaser(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultTeaserLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	if h.cache != nil {
		if cached, ok := h.cache.GetTeaser(r.Context(), limit); ok {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}
	}

	posts, err := h.posts.List(r.Context(), models.PostFilter{SortByDeadline: true, Limit: limit})
	if err != nil {
		log.Printf("teaser list error: %v", err)
		api.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	if h.cache != nil {
		if err := h.cache.SetTeaser(r.Context(), limit, posts); err != nil {
			log.Printf("teaser cache set error: %v", err)
		}
	}
	api.WriteJSON(w, http.StatusOK, posts)
}

func (h *Handler) serveList(w http.ResponseWriter, r *http.Request, f models.PostFilter) {
	posts, err := h.posts.List(r.Context(), f)
	if err != nil {
		log.Printf("post list error: %v", err)
		api.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	api.WriteJSON(w, http.StatusOK, posts)
}

// Get returns a single post. 400 on a malformed id, 404 when absent.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := h.posts.GetByID(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrInvalidID):
		api.Error(w, http.StatusBadRequest, "invalid post id")
	case errors.Is(err, store.ErrNotFound):
		api.Error(w, http.StatusNotFound, "post not found")
	case err != nil:
		log.Printf("post get error: %v", err)
		api.Error(w, http.StatusInternalServerError, "database error")
	default:
		api.WriteJSON(w, http.StatusOK, post)
	}
}

// Update mutates a post. Ownership is re-asserted on every call: the
// organizerEmail in the body must match the stored owner.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.PostPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := h.posts.GetByID(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrInvalidID):
		api.Error(w, http.StatusBadRequest, "invalid post id")
		return
	case errors.Is(err, store.ErrNotFound):
		api.Error(w, http.StatusNotFound, "post not found")
		return
	case err != nil:
		log.Printf("post get error: %v", err)
		api.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := h.verifier.Verify(r.Context(), r, patch.OrganizerEmail); err != nil {
		api.Error(w, http.StatusForbidden, "identity not verified")
		return
	}
	if patch.OrganizerEmail != existing.OrganizerEmail {
		api.Error(w, http.StatusForbidden, "only the organizer may update this post")
		return
	}

	err = h.posts.Update(r.Context(), id, patch, time.Now())
	switch {
	case errors.Is(err, store.ErrNoChange):
		api.Error(w, http.StatusBadRequest, "no fields changed")
		return
	case errors.Is(err, store.ErrNotFound):
		api.Error(w, http.StatusNotFound, "post not found")
		return
	case err != nil:
		log.Printf("post update error: %v", err)
		api.Error(w, http.StatusInternalServerError, "failed to update post")
		return
	}
	h.invalidate(r.Context())

	merged, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		log.Printf("post re-fetch error: %v", err)
		api.Error(w, http.StatusInternalServerError, "failed to update post")
		return
	}
	api.WriteJSON(w, http.StatusOK, merged)
}

// Delete removes a post. When an email query parameter is supplied it
// must match the stored owner.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.posts.GetByID(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrInvalidID):
		api.Error(w, http.StatusBadRequest, "invalid post id")
		return
	case errors.Is(err, store.ErrNotFound):
		api.Error(w, http.StatusNotFound, "post not found")
		return
	case err != nil:
		log.Printf("post get error: %v", err)
		api.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	if email := r.URL.Query().Get("email"); email != "" {
		if err := h.verifier.Verify(r.Context(), r, email); err != nil {
			api.Error(w, http.StatusForbidden, "identity not verified")
			return
		}
		if email != existing.OrganizerEmail {
			api.Error(w, http.StatusForbidden, "only the organizer may delete this post")
			return
		}
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.Error(w, http.StatusNotFound, "post not found")
			return
		}
		log.Printf("post delete error: %v", err)
		api.Error(w, http.StatusInternalServerError, "failed to delete post")
		return
	}
	h.invalidate(r.Context())
	api.WriteJSON(w, http.StatusOK, map[string]int64{"deletedCount": 1})
}

// MyPosts lists an organizer's posts sorted by deadline ascending.
func (h *Handler) MyPosts(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		api.Error(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	posts, err := h.posts.ListByOwner(r.Context(), email)
	if err != nil {
		log.Printf("my-posts error: %v", err)
		api.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	api.WriteJSON(w, http.StatusOK, posts)
}

// SetVolunteers is the administrative counter overwrite, distinct from
// the guarded decrement in the registration workflow.
func (h *Handler) SetVolunteers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		VolunteersNeeded *int `json:"volunteersNeeded"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VolunteersNeeded == nil {
		api.Error(w, http.StatusBadRequest, "volunteersNeeded is required")
		return
	}
	if *req.VolunteersNeeded < 0 {
		api.Error(w, http.StatusBadRequest, "volunteersNeeded must not be negative")
		return
	}

	err := h.posts.SetVolunteersNeeded(r.Context(), id, *req.VolunteersNeeded)
	switch {
	case errors.Is(err, store.ErrInvalidID):
		api.Error(w, http.StatusBadRequest, "invalid post id")
		return
	case errors.Is(err, store.ErrNotFound):
		api.Error(w, http.StatusNotFound, "post not found")
		return
	case err != nil:
		log.Printf("set volunteersNeeded error: %v", err)
		api.Error(w, http.StatusInternalServerError, "failed to update post")
		return
	}
	h.invalidate(r.Context())
	api.WriteJSON(w, http.StatusOK, map[string]int{"volunteersNeeded": *req.VolunteersNeeded})
}
