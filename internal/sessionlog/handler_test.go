package sessionlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeLister struct {
	rows    []SessionRow
	err     error
	eventID string
}

func (f *fakeLister) ListByEvent(_ context.Context, eventID string) ([]SessionRow, error) {
	f.eventID = eventID
	return f.rows, f.err
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/api/attendance/:eventId/sessions", h.ListByEvent)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListByEvent(t *testing.T) {
	closed := time.Date(2024, 1, 20, 10, 5, 0, 0, time.UTC)
	f := &fakeLister{rows: []SessionRow{{
		ID: uuid.New(), OperatorID: "42", OpenedAt: closed.Add(-5 * time.Minute), ClosedAt: &closed, OpenSeconds: 300, Captures: 12,
	}}}
	w := serve(NewHandler(f, nil), "/api/attendance/7/sessions")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", f.eventID)
	var body struct {
		Data struct {
			Sessions []SessionRow `json:"sessions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Sessions, 1)
	assert.Equal(t, int64(300), body.Data.Sessions[0].OpenSeconds)
	assert.Equal(t, 12, body.Data.Sessions[0].Captures)
}

func TestListByEventFailure(t *testing.T) {
	w := serve(NewHandler(&fakeLister{err: errors.New("db down")}, nil), "/api/attendance/7/sessions")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
