package backend

import (
	"context"
	"net/http"

	"github.com/treeplant/web/internal/models"
)

// Me returns the signed-in user's account.
func (c *Client) Me(ctx context.Context, creds []*http.Cookie) (*models.User, error) {
	var u models.User
	if err := c.call(ctx, "get me", http.MethodGet, "/api/me/", creds, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// MyParticipantStats returns the signed-in user's participant counters.
func (c *Client) MyParticipantStats(ctx context.Context, creds []*http.Cookie) (*models.ParticipantStats, error) {
	var st models.ParticipantStats
	if err := c.call(ctx, "get participant stats", http.MethodGet, "/api/me/participant/", creds, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// MyOrganizer returns the signed-in user's organizer profile. A 404 means none exists yet.
func (c *Client) MyOrganizer(ctx context.Context, creds []*http.Cookie) (*models.OrganizerProfile, error) {
	var p models.OrganizerProfile
	if err := c.call(ctx, "get organizer profile", http.MethodGet, "/api/me/organizer", creds, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Participant returns a participant profile by username.
func (c *Client) Participant(ctx context.Context, creds []*http.Cookie, username string) (*models.ParticipantProfile, error) {
	var p models.ParticipantProfile
	if err := c.call(ctx, "get participant", http.MethodGet, "/api/participant/"+escape(username), creds, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateOrganizer creates the organizer profile from a multipart form.
func (c *Client) CreateOrganizer(ctx context.Context, creds []*http.Cookie, form *Form) (*models.OrganizerProfile, error) {
	var p models.OrganizerProfile
	if err := c.call(ctx, "create organizer profile", http.MethodPost, "/api/organizer/", creds, form, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateOrganizer sends changed organizer fields as JSON or multipart.
func (c *Client) UpdateOrganizer(ctx context.Context, creds []*http.Cookie, body Body) error {
	return c.call(ctx, "update organizer profile", http.MethodPut, "/api/update/organizer", creds, body, nil)
}

// UpdateUser sends changed personal fields as JSON or multipart.
func (c *Client) UpdateUser(ctx context.Context, creds []*http.Cookie, body Body) error {
	return c.call(ctx, "update user", http.MethodPut, "/api/user/update/", creds, body, nil)
}
