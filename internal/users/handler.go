package users

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/volunteerhub/backend/internal/api"
	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/internal/store"
)

// Store defines the interface for user persistence.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	RefreshSignIn(ctx context.Context, email, name, photoURL string, at time.Time) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	Touch(ctx context.Context, email string, at time.Time) (matched, modified int64, err error)
}

// Handler holds user directory HTTP handlers.
type Handler struct {
	users Store
}

func NewHandler(users Store) *Handler {
	return &Handler{users: users}
}

// upsertResponse is the refresh-path body: the merged record plus a
// flag reporting whether the store modified anything.
type upsertResponse struct {
	models.User
	Updated bool `json:"updated"`
}

// Upsert creates a user on first sight of an email and refreshes
// last-seen data on every later call. Existing non-empty values win
// over missing incoming ones.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		api.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	existing, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("user lookup error: %v", err)
		api.Error(w, http.StatusInternalServerError, "failed to process user")
		return
	}

	now := time.Now()

	if existing != nil {
		updated, err := h.users.RefreshSignIn(r.Context(), req.Email, req.Name, req.PhotoURL, now)
		if err != nil {
			log.Printf("user refresh error: %v", err)
			api.Error(w, http.StatusInternalServerError, "failed to process user")
			return
		}
		// Re-fetch to return the merged record.
		merged, err := h.users.FindByEmail(r.Context(), req.Email)
		if err != nil {
			log.Printf("user re-fetch error: %v", err)
			api.Error(w, http.StatusInternalServerError, "failed to process user")
			return
		}
		api.WriteJSON(w, http.StatusOK, upsertResponse{User: *merged, Updated: updated})
		return
	}

	user := models.User{
		Name:           req.Name,
		Email:          req.Email,
		PhotoURL:       req.PhotoURL,
		Provider:       req.Provider,
		Role:           "user",
		CreatedAt:      now,
		LastSignInTime: now,
	}
	if user.Provider == "" {
		user.Provider = "google"
	}
	if err := h.users.Insert(r.Context(), &user); err != nil {
		log.Printf("user insert error: %v", err)
		api.Error(w, http.StatusInternalServerError, "failed to process user")
		return
	}
	api.WriteJSON(w, http.StatusCreated, user)
}

// List returns all users. Administrative surface, no filtering.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		log.Printf("user list error: %v", err)
		api.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	api.WriteJSON(w, http.StatusOK, users)
}

// Touch unconditionally refreshes lastSignInTime for an email. An
// unknown email matches zero documents and still succeeds.
func (h *Handler) Touch(w http.ResponseWriter, r *http.Request) {
	var req models.TouchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		api.Error(w, http.StatusBadRequest, "email is required")
		return
	}
	at := req.LastSignInTime
	if at.IsZero() {
		at = time.Now()
	}
	matched, modified, err := h.users.Touch(r.Context(), req.Email, at)
	if err != nil {
		log.Printf("user touch error: %v", err)
		api.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]int64{
		"matchedCount":  matched,
		"modifiedCount": modified,
	})
}
