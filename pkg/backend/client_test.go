package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, nil)
}

func TestForwardsCookies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("sessionid")
		require.NoError(t, err)
		assert.Equal(t, "abc", ck.Value)
		_, _ = io.WriteString(w, `{"is_authenticated":true,"user":{"id":3,"username":"alice"}}`)
	})

	st, err := c.AuthStatus(context.Background(), []*http.Cookie{{Name: "sessionid", Value: "abc"}})
	require.NoError(t, err)
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, "3", st.User.ID.String())
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("status with json message", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"message":"Already joined"}`)
		})
		err := c.JoinEvent(context.Background(), nil, "5")
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, KindStatus, be.Kind)
		assert.Equal(t, http.StatusBadRequest, be.StatusCode)
		assert.Equal(t, "Already joined", Message(err, "fallback"))
	})

	t.Run("status with html body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `<html>Server Error</html>`)
		})
		err := c.JoinEvent(context.Background(), nil, "5")
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, KindUnparseable, be.Kind)
		assert.Equal(t, "Failed to join event", Message(err, "Failed to join event"))
	})

	t.Run("transport", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", time.Second, nil)
		err := c.JoinEvent(context.Background(), nil, "5")
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, KindTransport, be.Kind)
		assert.Equal(t, 0, StatusOf(err))
	})

	t.Run("decode", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"attendance": "nope"`)
		})
		_, err := c.AttendanceRoster(context.Background(), nil, "5")
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, KindDecode, be.Kind)
	})
}

func TestNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Organizer profile not found"}`)
	})
	_, err := c.MyOrganizer(context.Background(), nil)
	assert.True(t, IsNotFound(err))
}

func TestCanceledContextAbortsCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ParticipatedEvents(ctx, nil)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindTransport, be.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEventQueryOmitsAllTimeSlot(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/event/participant/events/", r.URL.Path)
		assert.Equal(t, "Pune", r.URL.Query().Get("city"))
		assert.Equal(t, "trees", r.URL.Query().Get("search"))
		_, present := r.URL.Query()["time_slot"]
		assert.False(t, present)
		_, _ = io.WriteString(w, `{"count":0,"results":[]}`)
	})
	page, err := c.ParticipantEvents(context.Background(), nil, EventQuery{Search: "trees", City: "Pune", TimeSlot: "all"})
	require.NoError(t, err)
	assert.Empty(t, page.Results)
}

func TestMarkAttendanceMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "alice", r.FormValue("username"))
		assert.Equal(t, "", r.FormValue("name"))
		_, hasName := r.MultipartForm.Value["name"]
		assert.True(t, hasName)
		assert.Equal(t, "9", r.FormValue("event_id"))
		f, hdr, err := r.FormFile("face_image")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "face.jpg", hdr.Filename)
		assert.Equal(t, "image/jpeg", hdr.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `{"isPresent":true}`)
	})

	form := NewForm().Set("username", "alice").Set("name", "").Set("event_id", "9").
		File("face_image", "face.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff})
	m, err := c.MarkAttendance(context.Background(), nil, form)
	require.NoError(t, err)
	assert.True(t, m.IsPresent)
}

func TestLoginReturnsCookies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "s1", Path: "/"})
		_, _ = io.WriteString(w, `{"user":{"id":"u1","username":"alice"}}`)
	})
	res, err := c.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	require.Len(t, res.Cookies, 1)
	assert.Equal(t, "sessionid", res.Cookies[0].Name)
	assert.Equal(t, "alice", res.User.Username)
}
