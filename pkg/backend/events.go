package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/treeplant/web/internal/models"
)

// EventQuery filters the participant event listing.
type EventQuery struct {
	Search   string
	City     string
	TimeSlot string // "all" or empty means no filter
}

func (q EventQuery) encode() string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.City != "" {
		v.Set("city", q.City)
	}
	if q.TimeSlot != "" && q.TimeSlot != "all" {
		v.Set("time_slot", q.TimeSlot)
	}
	return v.Encode()
}

// ParticipantEvents lists events open to participants.
func (c *Client) ParticipantEvents(ctx context.Context, creds []*http.Cookie, q EventQuery) (*models.EventPage, error) {
	var page models.EventPage
	path := "/event/participant/events/?" + q.encode()
	if err := c.call(ctx, "list participant events", http.MethodGet, path, creds, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ParticipatedEvents lists events the signed-in user joined.
func (c *Client) ParticipatedEvents(ctx context.Context, creds []*http.Cookie) ([]models.APIEvent, error) {
	var list []models.APIEvent
	if err := c.call(ctx, "list participated events", http.MethodGet, "/event/participated", creds, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// OrganizerEvents lists the signed-in organizer's own events.
func (c *Client) OrganizerEvents(ctx context.Context, creds []*http.Cookie) ([]models.APIEvent, error) {
	var list []models.APIEvent
	if err := c.call(ctx, "list organizer events", http.MethodGet, "/event/organizer/events/", creds, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateEvent creates an event from a multipart form.
func (c *Client) CreateEvent(ctx context.Context, creds []*http.Cookie, form *Form) error {
	return c.call(ctx, "create event", http.MethodPost, "/event/create/", creds, form, nil)
}

// UpdateEvent replaces an event with the full form payload (JSON or multipart).
func (c *Client) UpdateEvent(ctx context.Context, creds []*http.Cookie, id string, body Body) error {
	return c.call(ctx, "update event", http.MethodPut, "/event/organizer/events/"+escape(id), creds, body, nil)
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, creds []*http.Cookie, id string) error {
	return c.call(ctx, "delete event", http.MethodDelete, "/event/organizer/events/"+escape(id), creds, nil, nil)
}

// JoinEvent adds the signed-in user to an event.
func (c *Client) JoinEvent(ctx context.Context, creds []*http.Cookie, id string) error {
	return c.call(ctx, "join event", http.MethodPost, "/event/join/"+escape(id), creds, nil, nil)
}

// CompleteEvent marks an event as completed.
func (c *Client) CompleteEvent(ctx context.Context, creds []*http.Cookie, id string) error {
	return c.call(ctx, "complete event", http.MethodPost, "/event/complete-event/"+escape(id)+"/", creds, nil, nil)
}
