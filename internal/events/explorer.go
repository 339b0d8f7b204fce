package events

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/treeplant/web/internal/auth"
	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/pkg/backend"
)

// ExplorerBackend is the subset of backend calls the explorer makes.
type ExplorerBackend interface {
	ParticipantEvents(ctx context.Context, creds []*http.Cookie, q backend.EventQuery) (*models.EventPage, error)
	ParticipatedEvents(ctx context.Context, creds []*http.Cookie) ([]models.APIEvent, error)
	JoinEvent(ctx context.Context, creds []*http.Cookie, id string) error
}

// Filters narrows the explorer listing.
type Filters struct {
	Search   string `form:"search" json:"search"`
	City     string `form:"city" json:"city"`
	TimeSlot string `form:"time_slot" json:"time_slot"`
}

// ExploreView is what the explorer page renders.
type ExploreView struct {
	Filters Filters        `json:"filters"`
	Events  []models.Event `json:"events"`
	Total   int            `json:"total"`
}

// JoinResult is returned after a successful join.
type JoinResult struct {
	JoinedID     string         `json:"joined_id"`
	Participated []models.Event `json:"participated"`
}

// Explorer lists upcoming events a participant has not joined yet.
type Explorer struct {
	backend ExplorerBackend
	store   *Store
	mapper  *Mapper
	now     func() time.Time
	logger  *zap.Logger
}

// NewExplorer creates an explorer. now may be nil.
func NewExplorer(b ExplorerBackend, store *Store, mapper *Mapper, now func() time.Time, logger *zap.Logger) *Explorer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Explorer{backend: b, store: store, mapper: mapper, now: now, logger: logger}
}

// List fetches the filtered listing and drops joined and past events.
// Filters left empty reuse the user's last filters.
func (x *Explorer) List(ctx context.Context, id auth.Identity, creds []*http.Cookie, f *Filters) (*ExploreView, error) {
	st, err := x.store.Explorer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load explorer state: %w", err)
	}
	if f != nil {
		st.Search = strings.TrimSpace(f.Search)
		st.City = strings.TrimSpace(f.City)
		st.TimeSlot = strings.TrimSpace(f.TimeSlot)
	}
	if st.TimeSlot == "" {
		st.TimeSlot = "all"
	}

	page, err := x.backend.ParticipantEvents(ctx, creds, backend.EventQuery{Search: st.Search, City: st.City, TimeSlot: st.TimeSlot})
	if err != nil {
		return nil, err
	}

	now := x.now()
	visible := make([]models.Event, 0, len(page.Results))
	for _, api := range page.Results {
		e := x.mapper.ForExplorer(api, now)
		if e.HasParticipant(id.Username, id.UserID) || st.HasJoined(e.ID) {
			continue
		}
		if !IsUpcoming(e.Date, e.Time, now) {
			continue
		}
		visible = append(visible, e)
	}

	if err := x.store.SaveExplorer(ctx, id, st); err != nil {
		x.logger.Warn("save explorer state failed", zap.String("user", id.Username), zap.Error(err))
	}
	return &ExploreView{
		Filters: Filters{Search: st.Search, City: st.City, TimeSlot: st.TimeSlot},
		Events:  visible,
		Total:   len(visible),
	}, nil
}

// Join registers the user for eventID and returns the refreshed participated list.
func (x *Explorer) Join(ctx context.Context, id auth.Identity, creds []*http.Cookie, eventID string) (*JoinResult, error) {
	if err := x.backend.JoinEvent(ctx, creds, eventID); err != nil {
		return nil, err
	}

	st, err := x.store.Explorer(ctx, id)
	if err == nil && !st.HasJoined(eventID) {
		st.Joined = append(st.Joined, eventID)
		err = x.store.SaveExplorer(ctx, id, st)
	}
	if err != nil {
		x.logger.Warn("remember joined event failed", zap.String("event_id", eventID), zap.Error(err))
	}

	participated, err := x.Participated(ctx, creds)
	if err != nil {
		// The join itself succeeded; the list is refreshed on the next visit.
		x.logger.Warn("refresh participated events failed", zap.String("event_id", eventID), zap.Error(err))
		participated = []models.Event{}
	}
	return &JoinResult{JoinedID: eventID, Participated: participated}, nil
}

// Participated returns the events the user has joined.
func (x *Explorer) Participated(ctx context.Context, creds []*http.Cookie) ([]models.Event, error) {
	list, err := x.backend.ParticipatedEvents(ctx, creds)
	if err != nil {
		return nil, err
	}
	now := x.now()
	out := make([]models.Event, 0, len(list))
	for _, api := range list {
		out = append(out, x.mapper.ForExplorer(api, now))
	}
	return out, nil
}
