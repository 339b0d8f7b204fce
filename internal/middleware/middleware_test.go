package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeplant/web/internal/auth"
	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/pkg/backend"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeChecker struct {
	st   *models.AuthStatus
	err  error
	hits int
}

func (f *fakeChecker) AuthStatus(context.Context, []*http.Cookie) (*models.AuthStatus, error) {
	f.hits++
	return f.st, f.err
}

func gated(checker StatusChecker) (*gin.Engine, *auth.Sessions) {
	sessions := auth.NewSessions(auth.NewJWTService("s", 10), nil, "tp_session", false)
	r := gin.New()
	r.GET("/api/me", AuthGate(sessions, checker, nil), func(c *gin.Context) {
		c.String(http.StatusOK, Identity(c).Username+"|"+Credentials(c)[0].Value)
	})
	return r, sessions
}

func TestAuthGateDeniesJSONAndRedirectsHTML(t *testing.T) {
	r, _ := gated(&fakeChecker{st: &models.AuthStatus{IsAuthenticated: false}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/login"`)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAuthGateBackendErrorDenies(t *testing.T) {
	r, _ := gated(&fakeChecker{err: &backend.Error{Kind: backend.KindTransport}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthGateMintsTokenThenSkipsBackend(t *testing.T) {
	checker := &fakeChecker{st: &models.AuthStatus{IsAuthenticated: true, User: &models.User{ID: "1", Username: "alice"}}}
	r, _ := gated(checker)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "abc"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice|abc", w.Body.String())
	assert.Equal(t, 1, checker.hits)

	again := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	again.AddCookie(&http.Cookie{Name: "sessionid", Value: "abc"})
	for _, ck := range w.Result().Cookies() {
		again.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, again)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, checker.hits)
}

type fakeLookup struct{ err error }

func (f fakeLookup) MyOrganizer(context.Context, []*http.Cookie) (*models.OrganizerProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.OrganizerProfile{Name: "Green Earth Society"}, nil
}

func TestRequireOrganizer(t *testing.T) {
	run := func(l OrganizerLookup) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/x", RequireOrganizer(l, nil), func(c *gin.Context) {
			c.String(http.StatusOK, Organizer(c).Name)
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		return w
	}

	w := run(fakeLookup{})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Green Earth Society", w.Body.String())

	w = run(fakeLookup{err: &backend.Error{Kind: backend.KindStatus, StatusCode: http.StatusNotFound}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), ErrCodeOrganizerProfileRequired)
}

func TestCORSEchoesAllowedOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS("http://localhost:3000"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
