package events

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/treeplant/web/internal/auth"
	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/internal/validation"
	"github.com/treeplant/web/pkg/backend"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrAlreadyCompleted = errors.New("event is already completed")
	ErrNoPendingAction  = errors.New("no action is waiting for confirmation")
	ErrUnknownAction    = errors.New("unknown action")
)

// FieldErrors is returned when a form fails validation before any backend call.
type FieldErrors map[string]string

func (f FieldErrors) Error() string { return "validation failed" }

// ConsoleBackend is the subset of backend calls the organizer console makes.
type ConsoleBackend interface {
	OrganizerEvents(ctx context.Context, creds []*http.Cookie) ([]models.APIEvent, error)
	CreateEvent(ctx context.Context, creds []*http.Cookie, form *backend.Form) error
	UpdateEvent(ctx context.Context, creds []*http.Cookie, id string, body backend.Body) error
	DeleteEvent(ctx context.Context, creds []*http.Cookie, id string) error
	CompleteEvent(ctx context.Context, creds []*http.Cookie, id string) error
	AttendanceRoster(ctx context.Context, creds []*http.Cookie, eventID string) (*models.AttendanceRoster, error)
	Participant(ctx context.Context, creds []*http.Cookie, username string) (*models.ParticipantProfile, error)
}

// TabCounts are the badge counts shown on the console tabs.
type TabCounts struct {
	All       int `json:"all"`
	Published int `json:"published"`
	Completed int `json:"completed"`
}

// ConsoleView is what the organizer console renders.
type ConsoleView struct {
	Tab       Tab            `json:"tab"`
	Counts    TabCounts      `json:"counts"`
	Events    []models.Event `json:"events"`
	OpenEvent *models.Event  `json:"open_event,omitempty"`
	Pending   *PendingAction `json:"pending,omitempty"`
}

// Outcome reports a confirmed action.
type Outcome struct {
	Kind    ActionKind   `json:"kind"`
	EventID string       `json:"event_id"`
	View    *ConsoleView `json:"view,omitempty"`
}

// ParticipantList is the participants sub-view of a published event.
type ParticipantList struct {
	EventID   string   `json:"event_id"`
	Title     string   `json:"title"`
	Usernames []string `json:"usernames"`
}

// AttendanceView is the attendance sub-view of an event.
type AttendanceView struct {
	EventID      string                    `json:"event_id"`
	EventName    string                    `json:"event_name"`
	Attendance   []models.AttendanceRecord `json:"attendance"`
	PresentCount int                       `json:"present_count"`
}

// Console implements the organizer's event management page.
type Console struct {
	backend  ConsoleBackend
	store    *Store
	mapper   *Mapper
	validate *validation.Validator
	now      func() time.Time
	logger   *zap.Logger
}

// NewConsole creates the organizer console. now may be nil.
func NewConsole(b ConsoleBackend, store *Store, mapper *Mapper, v *validation.Validator, now func() time.Time, logger *zap.Logger) *Console {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{backend: b, store: store, mapper: mapper, validate: v, now: now, logger: logger}
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// events fetches the organizer's events with local overrides applied.
func (c *Console) events(ctx context.Context, creds []*http.Cookie, st *ConsoleState) ([]models.Event, error) {
	list, err := c.backend.OrganizerEvents(ctx, creds)
	if err != nil {
		return nil, err
	}
	now := c.now()
	out := make([]models.Event, 0, len(list))
	for _, api := range list {
		e := c.mapper.ForConsole(api, now)
		if contains(st.DeletedIDs, e.ID) {
			continue
		}
		if contains(st.CompletedIDs, e.ID) {
			e.Completed = true
			e.Status = models.EventStatusCompleted
		}
		if n, ok := st.PresentCounts[e.ID]; ok {
			e.Registrations = n
		}
		out = append(out, e)
	}
	return out, nil
}

func find(list []models.Event, id string) (models.Event, bool) {
	for _, e := range list {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

func (c *Console) render(st *ConsoleState, list []models.Event) *ConsoleView {
	view := &ConsoleView{Tab: st.Tab, Events: make([]models.Event, 0, len(list)), Pending: st.Pending}
	for _, e := range list {
		view.Counts.All++
		if e.Status == models.EventStatusCompleted {
			view.Counts.Completed++
		} else {
			view.Counts.Published++
		}
		switch {
		case st.Tab == TabPublished && e.Status != models.EventStatusPublished,
			st.Tab == TabCompleted && e.Status != models.EventStatusCompleted:
			continue
		}
		view.Events = append(view.Events, e)
	}
	if st.OpenEventID != "" {
		if e, ok := find(list, st.OpenEventID); ok {
			view.OpenEvent = &e
		} else {
			st.OpenEventID = ""
		}
	}
	return view
}

func (c *Console) save(ctx context.Context, id auth.Identity, st *ConsoleState) {
	if err := c.store.SaveConsole(ctx, id, st); err != nil {
		c.logger.Warn("save console state failed", zap.String("user", id.Username), zap.Error(err))
	}
}

// View lists the organizer's events. A non-empty tab switches the selected tab.
func (c *Console) View(ctx context.Context, id auth.Identity, creds []*http.Cookie, tab Tab) (*ConsoleView, error) {
	st, err := c.store.Console(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load console state: %w", err)
	}
	if tab.Valid() {
		st.Tab = tab
	}
	list, err := c.events(ctx, creds, st)
	if err != nil {
		return nil, err
	}
	view := c.render(st, list)
	c.save(ctx, id, st)
	return view, nil
}

// Open shows the detail view for eventID.
func (c *Console) Open(ctx context.Context, id auth.Identity, creds []*http.Cookie, eventID string) (*models.Event, error) {
	st, err := c.store.Console(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load console state: %w", err)
	}
	list, err := c.events(ctx, creds, st)
	if err != nil {
		return nil, err
	}
	e, ok := find(list, eventID)
	if !ok {
		return nil, ErrEventNotFound
	}
	st.OpenEventID = eventID
	c.save(ctx, id, st)
	return &e, nil
}

// Close dismisses the detail view.
func (c *Console) Close(ctx context.Context, id auth.Identity) error {
	st, err := c.store.Console(ctx, id)
	if err != nil {
		return fmt.Errorf("load console state: %w", err)
	}
	st.OpenEventID = ""
	return c.store.SaveConsole(ctx, id, st)
}

// Create validates the form and submits a new event.
func (c *Console) Create(ctx context.Context, creds []*http.Cookie, form EventForm, img *Image) error {
	if fields := form.Validate(c.validate); fields != nil {
		return FieldErrors(fields)
	}
	mp, err := form.Multipart(img)
	if err != nil {
		return fmt.Errorf("encode event form: %w", err)
	}
	return c.backend.CreateEvent(ctx, creds, mp)
}

// Edit returns the prefilled form for eventID.
func (c *Console) Edit(ctx context.Context, id auth.Identity, creds []*http.Cookie, eventID string) (*EventForm, error) {
	st, err := c.store.Console(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load console state: %w", err)
	}
	list, err := c.events(ctx, creds, st)
	if err != nil {
		return nil, err
	}
	e, ok := find(list, eventID)
	if !ok {
		return nil, ErrEventNotFound
	}
	if e.Status == models.EventStatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	form := FromEvent(e)
	return &form, nil
}

// Request stores an action awaiting confirmation, replacing any earlier one.
// Update carries the validated form and optional new picture.
func (c *Console) Request(ctx context.Context, id auth.Identity, creds []*http.Cookie, kind ActionKind, eventID string, form *EventForm, img *Image) (*PendingAction, error) {
	switch kind {
	case ActionUpdate, ActionDelete, ActionComplete:
	default:
		return nil, ErrUnknownAction
	}
	if kind == ActionUpdate {
		if form == nil {
			return nil, FieldErrors{"event_name": "Event name is required"}
		}
		if fields := form.Validate(c.validate); fields != nil {
			return nil, FieldErrors(fields)
		}
	}

	st, err := c.store.Console(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load console state: %w", err)
	}
	list, err := c.events(ctx, creds, st)
	if err != nil {
		return nil, err
	}
	e, ok := find(list, eventID)
	if !ok {
		return nil, ErrEventNotFound
	}
	if kind != ActionDelete && e.Status == models.EventStatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	p := &PendingAction{Kind: kind, EventID: eventID, CreatedAt: c.now()}
	if kind == ActionUpdate {
		p.Form = form
		p.Image = img
	}
	st.Pending = p
	if err := c.store.SaveConsole(ctx, id, st); err != nil {
		return nil, fmt.Errorf("save console state: %w", err)
	}
	return p, nil
}

// Cancel drops the pending action.
func (c *Console) Cancel(ctx context.Context, id auth.Identity) error {
	st, err := c.store.Console(ctx, id)
	if err != nil {
		return fmt.Errorf("load console state: %w", err)
	}
	st.Pending = nil
	return c.store.SaveConsole(ctx, id, st)
}

// Confirm fires the pending action. The pending action is cleared whether or not
// the backend call succeeds. On success the refreshed view is returned.
func (c *Console) Confirm(ctx context.Context, id auth.Identity, creds []*http.Cookie) (*Outcome, error) {
	st, err := c.store.Console(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load console state: %w", err)
	}
	p := st.Pending
	if p == nil {
		return nil, ErrNoPendingAction
	}
	st.Pending = nil

	callErr := c.fire(ctx, creds, p)
	if callErr == nil {
		switch p.Kind {
		case ActionDelete:
			st.DeletedIDs = append(st.DeletedIDs, p.EventID)
			if st.OpenEventID == p.EventID {
				st.OpenEventID = ""
			}
		case ActionComplete:
			if !contains(st.CompletedIDs, p.EventID) {
				st.CompletedIDs = append(st.CompletedIDs, p.EventID)
			}
		}
	}
	c.save(ctx, id, st)
	if callErr != nil {
		return &Outcome{Kind: p.Kind, EventID: p.EventID}, callErr
	}

	out := &Outcome{Kind: p.Kind, EventID: p.EventID}
	list, err := c.events(ctx, creds, st)
	if err != nil {
		c.logger.Warn("refresh organizer events failed", zap.String("event_id", p.EventID), zap.Error(err))
		return out, nil
	}
	out.View = c.render(st, list)
	return out, nil
}

func (c *Console) fire(ctx context.Context, creds []*http.Cookie, p *PendingAction) error {
	switch p.Kind {
	case ActionUpdate:
		if p.Form == nil {
			return ErrNoPendingAction
		}
		body, err := p.Form.UpdateBody(p.Image)
		if err != nil {
			return fmt.Errorf("encode event form: %w", err)
		}
		return c.backend.UpdateEvent(ctx, creds, p.EventID, body)
	case ActionDelete:
		return c.backend.DeleteEvent(ctx, creds, p.EventID)
	case ActionComplete:
		return c.backend.CompleteEvent(ctx, creds, p.EventID)
	}
	return ErrUnknownAction
}

// Attendance loads the roster for eventID and records the present count as the
// event's registration count.
func (c *Console) Attendance(ctx context.Context, id auth.Identity, creds []*http.Cookie, eventID string) (*AttendanceView, error) {
	roster, err := c.backend.AttendanceRoster(ctx, creds, eventID)
	if err != nil {
		return nil, err
	}
	present := roster.PresentCount()

	st, err := c.store.Console(ctx, id)
	if err == nil {
		if st.PresentCounts == nil {
			st.PresentCounts = make(map[string]int)
		}
		st.PresentCounts[eventID] = present
		c.save(ctx, id, st)
	} else {
		c.logger.Warn("load console state failed", zap.Error(err))
	}

	return &AttendanceView{
		EventID:      eventID,
		EventName:    roster.EventName,
		Attendance:   roster.Attendance,
		PresentCount: present,
	}, nil
}

// Participants lists the usernames registered for eventID.
func (c *Console) Participants(ctx context.Context, id auth.Identity, creds []*http.Cookie, eventID string) (*ParticipantList, error) {
	st, err := c.store.Console(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load console state: %w", err)
	}
	list, err := c.events(ctx, creds, st)
	if err != nil {
		return nil, err
	}
	e, ok := find(list, eventID)
	if !ok {
		return nil, ErrEventNotFound
	}
	return &ParticipantList{EventID: e.ID, Title: e.Title, Usernames: e.Participants}, nil
}

// Participant loads one participant's public profile.
func (c *Console) Participant(ctx context.Context, creds []*http.Cookie, username string) (*models.ParticipantProfile, error) {
	return c.backend.Participant(ctx, creds, username)
}
