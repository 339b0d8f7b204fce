package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeplant/web/internal/auth"
	"github.com/treeplant/web/internal/middleware"
	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/pkg/backend"
	redisx "github.com/treeplant/web/pkg/redis"
)

func init() { gin.SetMode(gin.TestMode) }

var (
	testNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	alice   = auth.Identity{UserID: "42", Username: "alice"}
)

type fakeBackend struct {
	events       []models.APIEvent
	participated []models.APIEvent
	lastQuery    backend.EventQuery
	joinErr      error
	deleteErr    error
	completeErr  error
	deleted      []string
	completed    []string
	updated      map[string]backend.Body
	created      *backend.Form
	roster       *models.AttendanceRoster
}

func (f *fakeBackend) ParticipantEvents(_ context.Context, _ []*http.Cookie, q backend.EventQuery) (*models.EventPage, error) {
	f.lastQuery = q
	return &models.EventPage{Count: len(f.events), Results: f.events}, nil
}

func (f *fakeBackend) ParticipatedEvents(context.Context, []*http.Cookie) ([]models.APIEvent, error) {
	return f.participated, nil
}

func (f *fakeBackend) JoinEvent(_ context.Context, _ []*http.Cookie, id string) error {
	if f.joinErr != nil {
		return f.joinErr
	}
	for _, e := range f.events {
		if e.ID.String() == id {
			f.participated = append(f.participated, e)
		}
	}
	return nil
}

func (f *fakeBackend) OrganizerEvents(context.Context, []*http.Cookie) ([]models.APIEvent, error) {
	return f.events, nil
}

func (f *fakeBackend) CreateEvent(_ context.Context, _ []*http.Cookie, form *backend.Form) error {
	f.created = form
	return nil
}

func (f *fakeBackend) UpdateEvent(_ context.Context, _ []*http.Cookie, id string, body backend.Body) error {
	if f.updated == nil {
		f.updated = map[string]backend.Body{}
	}
	f.updated[id] = body
	return nil
}

func (f *fakeBackend) DeleteEvent(_ context.Context, _ []*http.Cookie, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) CompleteEvent(_ context.Context, _ []*http.Cookie, id string) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeBackend) AttendanceRoster(context.Context, []*http.Cookie, string) (*models.AttendanceRoster, error) {
	return f.roster, nil
}

func (f *fakeBackend) Participant(_ context.Context, _ []*http.Cookie, username string) (*models.ParticipantProfile, error) {
	return &models.ParticipantProfile{Username: username}, nil
}

func apiEvent(id, date, clock string, participants ...string) models.APIEvent {
	return models.APIEvent{
		ID:           models.FlexID(id),
		EventName:    "Drive " + id,
		Date:         date,
		Time:         clock,
		City:         "Pune",
		Location:     "Riverside Park",
		Participants: participants,
		MaxCapacity:  50,
		Target:       100,
		OrganizerDetails: models.OrganizerDetails{
			Name: "Green Earth Foundation",
			Type: models.OrganizerNGO,
		},
	}
}

func sampleEvents() []models.APIEvent {
	return []models.APIEvent{
		apiEvent("1", "2024-02-01", "08:00"),
		apiEvent("2", "2024-01-15", "09:00"),
		apiEvent("3", "2024-02-02", "08:00", "alice"),
		apiEvent("4", "2024-02-03", "08:00", "42"),
		apiEvent("5", "soon", "08:00"),
		apiEvent("6", "2024-02-04", "07:30:00", "bob", "carol"),
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStore(redisx.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil), time.Hour)
}

func fixedNow() time.Time { return testNow }

func ids(list []models.Event) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.ID)
	}
	return out
}

func TestExplorerExcludesJoinedAndPastEvents(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents()}
	x := NewExplorer(fb, newStore(t), NewMapper("http://backend"), fixedNow, nil)

	view, err := x.List(context.Background(), alice, nil, &Filters{City: " Pune ", TimeSlot: "morning"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "6"}, ids(view.Events))
	assert.Equal(t, backend.EventQuery{City: "Pune", TimeSlot: "morning"}, fb.lastQuery)

	// Filters are remembered when the next request sends none.
	_, err = x.List(context.Background(), alice, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "morning", fb.lastQuery.TimeSlot)
}

func TestJoinRemovesEventAndRefreshesParticipated(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents()}
	x := NewExplorer(fb, newStore(t), NewMapper("http://backend"), fixedNow, nil)
	ctx := context.Background()

	res, err := x.Join(ctx, alice, nil, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", res.JoinedID)
	assert.Equal(t, []string{"1"}, ids(res.Participated))

	view, err := x.List(ctx, alice, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"6"}, ids(view.Events))
}

func TestJoinFailureKeepsEvent(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents(), joinErr: &backend.Error{Op: "join event", Kind: backend.KindStatus, StatusCode: 400, Message: "Event is full"}}
	x := NewExplorer(fb, newStore(t), NewMapper("http://backend"), fixedNow, nil)

	_, err := x.Join(context.Background(), alice, nil, "1")
	require.Error(t, err)
	assert.Equal(t, "Event is full", backend.Message(err, "x"))

	view, err := x.List(context.Background(), alice, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, ids(view.Events), "1")
}

func newConsole(t *testing.T, fb *fakeBackend) *Console {
	return NewConsole(fb, newStore(t), NewMapper("http://backend"), newValidator(), fixedNow, nil)
}

func TestConsoleTabsAndCounts(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents()}
	fb.events[0].IsCompleted = true
	c := newConsole(t, fb)

	view, err := c.View(context.Background(), alice, nil, "")
	require.NoError(t, err)
	assert.Equal(t, TabAll, view.Tab)
	assert.Equal(t, TabCounts{All: 6, Published: 4, Completed: 2}, view.Counts)

	view, err = c.View(context.Background(), alice, nil, TabCompleted)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(view.Events))

	// The selected tab sticks.
	view, err = c.View(context.Background(), alice, nil, "bogus")
	require.NoError(t, err)
	assert.Equal(t, TabCompleted, view.Tab)
}

func TestDeleteClosesOpenDetail(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents()}
	c := newConsole(t, fb)
	ctx := context.Background()

	_, err := c.Open(ctx, alice, nil, "3")
	require.NoError(t, err)
	_, err = c.Request(ctx, alice, nil, ActionDelete, "3", nil, nil)
	require.NoError(t, err)

	// Nothing is sent before confirmation.
	assert.Empty(t, fb.deleted)

	out, err := c.Confirm(ctx, alice, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, fb.deleted)
	require.NotNil(t, out.View)
	assert.NotContains(t, ids(out.View.Events), "3")
	assert.Nil(t, out.View.OpenEvent)
	assert.Nil(t, out.View.Pending)
}

func TestDeleteKeepsOtherOpenDetail(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents()}
	c := newConsole(t, fb)
	ctx := context.Background()

	_, err := c.Open(ctx, alice, nil, "1")
	require.NoError(t, err)
	_, err = c.Request(ctx, alice, nil, ActionDelete, "3", nil, nil)
	require.NoError(t, err)
	out, err := c.Confirm(ctx, alice, nil)
	require.NoError(t, err)
	require.NotNil(t, out.View.OpenEvent)
	assert.Equal(t, "1", out.View.OpenEvent.ID)
}

func TestCompleteIsOneWay(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents()}
	c := newConsole(t, fb)
	ctx := context.Background()

	_, err := c.Request(ctx, alice, nil, ActionComplete, "1", nil, nil)
	require.NoError(t, err)
	out, err := c.Confirm(ctx, alice, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, fb.completed)
	for _, e := range out.View.Events {
		if e.ID == "1" {
			assert.Equal(t, models.EventStatusCompleted, e.Status)
		}
	}

	_, err = c.Request(ctx, alice, nil, ActionComplete, "1", nil, nil)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	_, err = c.Request(ctx, alice, nil, ActionComplete, "2", nil, nil)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.Len(t, fb.completed, 1)
}

func TestConfirmFailureClearsPending(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents(), deleteErr: &backend.Error{Op: "delete event", Kind: backend.KindUnparseable, StatusCode: 500}}
	c := newConsole(t, fb)
	ctx := context.Background()

	_, err := c.Request(ctx, alice, nil, ActionDelete, "1", nil, nil)
	require.NoError(t, err)
	out, err := c.Confirm(ctx, alice, nil)
	require.Error(t, err)
	assert.Equal(t, ActionDelete, out.Kind)

	_, err = c.Confirm(ctx, alice, nil)
	assert.ErrorIs(t, err, ErrNoPendingAction)

	view, err := c.View(ctx, alice, nil, "")
	require.NoError(t, err)
	assert.Contains(t, ids(view.Events), "1")
}

func TestCancelDropsPending(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents()}
	c := newConsole(t, fb)
	ctx := context.Background()

	_, err := c.Request(ctx, alice, nil, ActionDelete, "1", nil, nil)
	require.NoError(t, err)
	require.NoError(t, c.Cancel(ctx, alice))
	_, err = c.Confirm(ctx, alice, nil)
	assert.ErrorIs(t, err, ErrNoPendingAction)
	assert.Empty(t, fb.deleted)
}

func TestUpdateValidatesBeforeHolding(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents()}
	c := newConsole(t, fb)
	ctx := context.Background()

	bad := validForm()
	bad.Description = "short"
	_, err := c.Request(ctx, alice, nil, ActionUpdate, "1", &bad, nil)
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "Description must be at least 20 characters", fields["description"])

	form := validForm()
	_, err = c.Request(ctx, alice, nil, ActionUpdate, "1", &form, nil)
	require.NoError(t, err)
	_, err = c.Confirm(ctx, alice, nil)
	require.NoError(t, err)
	require.Contains(t, fb.updated, "1")
	_, ct, err := fb.updated["1"].Encode()
	require.NoError(t, err)
	assert.Equal(t, "application/json", ct)
}

func TestAttendanceOverridesRegistrations(t *testing.T) {
	fb := &fakeBackend{
		events: sampleEvents(),
		roster: &models.AttendanceRoster{Attendance: []models.AttendanceRecord{
			{Username: "bob", Status: "Present"},
			{Username: "carol", Status: models.AttendanceAbsent},
		}},
	}
	c := newConsole(t, fb)
	ctx := context.Background()

	view, err := c.View(ctx, alice, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Events[5].Registrations)

	att, err := c.Attendance(ctx, alice, nil, "6")
	require.NoError(t, err)
	assert.Equal(t, 1, att.PresentCount)

	view, err = c.View(ctx, alice, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Events[5].Registrations)
}

func TestParticipants(t *testing.T) {
	c := newConsole(t, &fakeBackend{events: sampleEvents()})
	list, err := c.Participants(context.Background(), alice, nil, "6")
	require.NoError(t, err)
	assert.Equal(t, "Drive 6", list.Title)
	assert.Equal(t, []string{"bob", "carol"}, list.Usernames)

	_, err = c.Participants(context.Background(), alice, nil, "99")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func newEventsRouter(t *testing.T, fb *fakeBackend) *gin.Engine {
	store := newStore(t)
	mapper := NewMapper("http://backend")
	h := NewHandler(
		NewExplorer(fb, store, mapper, fixedNow, nil),
		NewConsole(fb, store, mapper, newValidator(), fixedNow, nil),
		nil,
	)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextIdentity, alice)
		c.Next()
	})
	api := r.Group("/api")
	h.RegisterRoutes(api, api.Group("/organizer"))
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJoinHandlerToasts(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents()}
	r := newEventsRouter(t, fb)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/events/1/join", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Joined event!", body["toast"].(map[string]interface{})["title"])

	fb.joinErr = &backend.Error{Op: "join event", Kind: backend.KindUnparseable, StatusCode: 500}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/events/6/join", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Failed to join event: 500", body["toast"].(map[string]interface{})["description"])
}

func TestCreateHandlerRejectsInvalidForm(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents()}
	r := newEventsRouter(t, fb)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/organizer/events", strings.NewReader(`{"event_name":"Tree","max_capacity":0}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	assert.Equal(t, "Event name must be at least 5 characters", fields["event_name"])
	assert.Nil(t, fb.created)
}

func TestConfirmHandlerDelete(t *testing.T) {
	fb := &fakeBackend{events: sampleEvents()}
	r := newEventsRouter(t, fb)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/organizer/pending/confirm", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/organizer/events/1/actions", strings.NewReader(`{"kind":"delete"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/organizer/pending/confirm", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Event deleted", decode(t, w)["toast"].(map[string]interface{})["title"])
	assert.Equal(t, []string{"1"}, fb.deleted)
}
