package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeplant/web/pkg/backend"
)

func init() { gin.SetMode(gin.TestMode) }

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) Body {
	t.Helper()
	var b Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestBackendErrorUsesBackendMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	BackendError(c, &backend.Error{Op: "join event", Kind: backend.KindStatus, StatusCode: 409, Message: "Event is full"}, "Join failed", "Failed to join event")

	assert.Equal(t, http.StatusConflict, w.Code)
	b := decodeBody(t, w)
	require.NotNil(t, b.Toast)
	assert.Equal(t, "Event is full", b.Toast.Description)
	assert.Equal(t, ToastDestructive, b.Toast.Variant)
}

func TestBackendErrorFallsBackOnTransportFailure(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	BackendError(c, &backend.Error{Op: "join event", Kind: backend.KindTransport}, "Join failed", "Failed to join event")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to join event", decodeBody(t, w).Toast.Description)
}

func TestBackendErrorRedirectsOnUnauthorized(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	BackendError(c, &backend.Error{Kind: backend.KindStatus, StatusCode: 401}, "Error", "Session expired")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/login", decodeBody(t, w).Redirect)
}

func TestInvalidCarriesFields(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Invalid(c, map[string]string{"name": "Event name must be at least 5 characters"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeBody(t, w).Fields, "name")
}
