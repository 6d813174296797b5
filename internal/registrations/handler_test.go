package registrations

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volunteerhub/backend/internal/identity"
	"github.com/volunteerhub/backend/internal/models"
)

func newTestRouter(posts *fakePosts, regs *fakeRegs) *chi.Mux {
	svc := NewService(posts, regs, nil)
	h := NewHandler(svc, nil, nil, identity.Passthrough{})
	r := chi.NewRouter()
	r.Post("/api/volunteers", h.Register)
	r.Get("/api/volunteers", h.HasRegistered)
	r.Get("/my-volunteer-requests", h.MyRequests)
	r.Delete("/volunteer-requests/{id}", h.Cancel)
	return r
}

func postRegistration(t *testing.T, r http.Handler, postID, email string) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"postId":%q,"volunteerName":"V","volunteerEmail":%q}`, postID, email)
	req := httptest.NewRequest(http.MethodPost, "/api/volunteers", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// Walks the canonical two-slot scenario: X gets 1, Y gets 0, Z gets a
// 400 with no record written.
func TestRegisterEndpointCountsDown(t *testing.T) {
	posts := newFakePosts()
	regs := newFakeRegs()
	r := newTestRouter(posts, regs)

	postID := posts.add("Two slots", 2)

	rec := postRegistration(t, r, postID, "x@example.com")
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.NewVolunteersNeeded)

	rec = postRegistration(t, r, postID, "y@example.com")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.NewVolunteersNeeded)

	rec = postRegistration(t, r, postID, "z@example.com")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2, regs.count())
}

func TestRegisterEndpointStatusCodes(t *testing.T) {
	posts := newFakePosts()
	regs := newFakeRegs()
	r := newTestRouter(posts, regs)

	postID := posts.add("One slot", 1)

	// Missing required fields.
	req := httptest.NewRequest(http.MethodPost, "/api/volunteers", strings.NewReader(`{"postId":""}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed id.
	rec = postRegistration(t, r, "zzz", "a@example.com")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown post.
	rec = postRegistration(t, r, "65b2f0a1c9e77a0012345678", "a@example.com")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Duplicate pair.
	rec = postRegistration(t, r, postID, "a@example.com")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = postRegistration(t, r, postID, "a@example.com")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHasRegisteredEndpoint(t *testing.T) {
	posts := newFakePosts()
	regs := newFakeRegs()
	r := newTestRouter(posts, regs)

	postID := posts.add("Check me", 1)

	get := func(url string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/api/volunteers?postId=" + postID)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "email is required")

	rec = get("/api/volunteers?postId=" + postID + "&email=v@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp["registered"])

	postRegistration(t, r, postID, "v@example.com")

	rec = get("/api/volunteers?postId=" + postID + "&email=v@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp["registered"])
}

func TestCancelEndpoint(t *testing.T) {
	posts := newFakePosts()
	regs := newFakeRegs()
	r := newTestRouter(posts, regs)

	postID := posts.add("Cancelable", 2)
	rec := postRegistration(t, r, postID, "v@example.com")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	del := func(url string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, url, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec = del("/volunteer-requests/" + created.RegistrationID)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "email is required")

	rec = del("/volunteer-requests/" + created.RegistrationID + "?email=other@example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, regs.count())

	rec = del("/volunteer-requests/" + created.RegistrationID + "?email=v@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, regs.count())

	// The slot is not returned to the post.
	req := httptest.NewRequest(http.MethodGet, "/my-volunteer-requests?email=v@example.com", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}
