package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/volunteerhub/backend/internal/models"
	"github.com/volunteerhub/backend/internal/store"
)

// fakeUsers mimics the Mongo user store's upsert-relevant behavior.
type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*models.User{}}
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Insert(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = primitive.NewObjectID()
	cp := *u
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUsers) RefreshSignIn(ctx context.Context, email, name, photoURL string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return false, nil
	}
	u.LastSignInTime = at
	if name != "" {
		u.Name = name
	}
	if photoURL != "" {
		u.PhotoURL = photoURL
	}
	return true, nil
}

func (f *fakeUsers) List(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.byEmail {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) Touch(ctx context.Context, email string, at time.Time) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return 0, 0, nil
	}
	u.LastSignInTime = at
	return 1, 1, nil
}

func doJSON(t *testing.T, h http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestUpsertCreatesNewUser(t *testing.T) {
	h := NewHandler(newFakeUsers())

	rec := doJSON(t, h.Upsert, http.MethodPost, `{"email":"a@x.com","name":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var u models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "A", u.Name)
	assert.Equal(t, "user", u.Role)
	assert.Equal(t, "google", u.Provider, "provider defaults to google")
	assert.False(t, u.CreatedAt.IsZero())
	assert.False(t, u.ID.IsZero())
}

func TestUpsertKeepsExistingValues(t *testing.T) {
	users := newFakeUsers()
	h := NewHandler(users)

	rec := doJSON(t, h.Upsert, http.MethodPost, `{"email":"a@x.com","name":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	firstSeen := created.LastSignInTime

	// Second call carries no name; the stored one must survive.
	rec = doJSON(t, h.Upsert, http.MethodPost, `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		models.User
		Updated bool `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "A", resp.Name)
	assert.True(t, resp.Updated)
	assert.True(t, resp.LastSignInTime.After(firstSeen) || resp.LastSignInTime.Equal(firstSeen))
}

func TestUpsertOverwritesWithIncomingValues(t *testing.T) {
	h := NewHandler(newFakeUsers())

	doJSON(t, h.Upsert, http.MethodPost, `{"email":"a@x.com","name":"A"}`)
	rec := doJSON(t, h.Upsert, http.MethodPost, `{"email":"a@x.com","name":"B","photoURL":"http://p"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "B", resp.Name)
	assert.Equal(t, "http://p", resp.PhotoURL)
}

func TestUpsertRequiresEmail(t *testing.T) {
	h := NewHandler(newFakeUsers())
	rec := doJSON(t, h.Upsert, http.MethodPost, `{"name":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTouchUnknownEmailMatchesZero(t *testing.T) {
	h := NewHandler(newFakeUsers())

	rec := doJSON(t, h.Touch, http.MethodPatch, `{"email":"ghost@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp["matchedCount"])
}

func TestListReturnsEmptyArray(t *testing.T) {
	h := NewHandler(newFakeUsers())

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}
