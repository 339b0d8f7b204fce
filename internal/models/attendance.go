package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the server-determined presence outcome.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// AttendanceRecord is one roster row.
type AttendanceRecord struct {
	Username string           `json:"username"`
	Status   AttendanceStatus `json:"status"`
}

// IsPresent compares the status case-insensitively.
func (r AttendanceRecord) IsPresent() bool {
	return strings.EqualFold(string(r.Status), string(AttendancePresent))
}

// AttendanceRoster is the body of GET /attendance/events/{eventId}.
type AttendanceRoster struct {
	EventID    FlexID             `json:"event_id,omitempty"`
	EventName  string             `json:"event_name,omitempty"`
	Attendance []AttendanceRecord `json:"attendance"`
}

// PresentCount returns how many roster rows are present.
func (r *AttendanceRoster) PresentCount() int {
	n := 0
	for _, a := range r.Attendance {
		if a.IsPresent() {
			n++
		}
	}
	return n
}

// FaceMatch is the body of POST /attendance/attendance/.
type FaceMatch struct {
	IsPresent bool   `json:"isPresent"`
	Message   string `json:"message,omitempty"`
}

// CaptureOutcome classifies a finished capture for the audit trail.
type CaptureOutcome string

const (
	CaptureMatched    CaptureOutcome = "matched"
	CaptureNotMatched CaptureOutcome = "not_matched"
	CaptureError      CaptureOutcome = "error"
)

// CaptureAudit is one persisted capture attempt.
type CaptureAudit struct {
	ID         uuid.UUID      `json:"id"`
	EventID    string         `json:"event_id"`
	OperatorID string         `json:"operator_id"`
	Username   string         `json:"username"`
	SpokenName string         `json:"spoken_name"`
	Outcome    CaptureOutcome `json:"outcome"`
	Message    string         `json:"message"`
	FrameKey   string         `json:"frame_key,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
