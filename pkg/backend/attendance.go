package backend

import (
	"context"
	"net/http"

	"github.com/treeplant/web/internal/models"
)

// AttendanceRoster returns the attendance list for an event.
func (c *Client) AttendanceRoster(ctx context.Context, creds []*http.Cookie, eventID string) (*models.AttendanceRoster, error) {
	var r models.AttendanceRoster
	if err := c.call(ctx, "get attendance", http.MethodGet, "/attendance/events/"+escape(eventID), creds, nil, &r); err != nil {
		return nil, err
	}
	if r.Attendance == nil {
		r.Attendance = []models.AttendanceRecord{}
	}
	return &r, nil
}

// MarkAttendance submits a captured frame for face matching.
// The form carries username, name, event_id and face_image.
func (c *Client) MarkAttendance(ctx context.Context, creds []*http.Cookie, form *Form) (*models.FaceMatch, error) {
	var m models.FaceMatch
	if err := c.call(ctx, "mark attendance", http.MethodPost, "/attendance/attendance/", creds, form, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
