package models

import (
	"bytes"
	"encoding/json"
)

// EventStatus is the derived lifecycle state shown for an event.
type EventStatus string

const (
	EventStatusPublished EventStatus = "Published"
	EventStatusCompleted EventStatus = "Completed"
)

// OrganizerType classifies an organizer.
type OrganizerType string

const (
	OrganizerNGO         OrganizerType = "NGO"
	OrganizerGovernment  OrganizerType = "Government"
	OrganizerEducational OrganizerType = "Educational"
	OrganizerCorporate   OrganizerType = "Corporate"
)

// Valid reports whether t is one of the known organizer types.
func (t OrganizerType) Valid() bool {
	switch t {
	case OrganizerNGO, OrganizerGovernment, OrganizerEducational, OrganizerCorporate:
		return true
	}
	return false
}

// FlexID is an identifier the backend sends either as a JSON number or a string.
type FlexID string

// UnmarshalJSON accepts 12, "12" and null.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

// String returns the id as text.
func (id FlexID) String() string { return string(id) }

// TreeList is the list of tree types for an event. The participant listing sends
// plain strings while the organizer listing sends objects with a name.
type TreeList []string

// UnmarshalJSON accepts ["Neem"] and [{"name":"Neem"}].
func (t *TreeList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(TreeList, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(r, &obj); err != nil {
			return err
		}
		if obj.Name == "" {
			obj.Name = "Unknown"
		}
		out = append(out, obj.Name)
	}
	*t = out
	return nil
}

// OrganizerDetails is the organizer block embedded in backend event payloads.
type OrganizerDetails struct {
	Name                string        `json:"name"`
	Bio                 string        `json:"bio"`
	OrgMobile           string        `json:"org_mobile"`
	OrgEmail            string        `json:"org_email"`
	OrgPicture          string        `json:"org_picture"`
	Type                OrganizerType `json:"type"`
	TreesPlanted        int           `json:"trees_planted"`
	EventHosted         int           `json:"event_hosted"`
	ParticipantsReached int           `json:"participants_reached"`
}

// APIEvent is an event as returned by the backend.
type APIEvent struct {
	ID               FlexID           `json:"id"`
	EventName        string           `json:"event_name"`
	Description      string           `json:"description"`
	Date             string           `json:"date"`
	Time             string           `json:"time"`
	City             string           `json:"city"`
	Location         string           `json:"location"`
	Participants     []string         `json:"participants"`
	MaxCapacity      int              `json:"max_capacity"`
	Target           int              `json:"target"`
	Trees            TreeList         `json:"trees"`
	EventPicture     string           `json:"event_picture"`
	IsCompleted      bool             `json:"is_completed"`
	OrganizerDetails OrganizerDetails `json:"organizer_details"`
}

// EventPage is the paginated participant listing.
type EventPage struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []APIEvent `json:"results"`
}

// PlantationDetails describes what will be planted.
type PlantationDetails struct {
	TreeTypes   []string `json:"tree_types"`
	TargetTrees int      `json:"target_trees"`
}

// Contact is the organizer contact block shown on an event.
type Contact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// OrganizerSummary is the organizer card shown on an event detail.
type OrganizerSummary struct {
	Name         string `json:"name"`
	Bio          string `json:"bio"`
	TreesPlanted int    `json:"trees_planted"`
	EventsHosted int    `json:"events_hosted"`
	Avatar       string `json:"avatar"`
}

// Event is the view-model rendered by the event pages.
type Event struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Date             string            `json:"date"`
	Time             string            `json:"time"`
	City             string            `json:"city"`
	Address          string            `json:"address"`
	Participants     []string          `json:"participants"`
	Capacity         int               `json:"capacity"`
	Registrations    int               `json:"registrations"`
	Organizer        string            `json:"organizer"`
	OrganizerType    OrganizerType     `json:"organizer_type"`
	Plantation       PlantationDetails `json:"plantation"`
	Contact          Contact           `json:"contact"`
	MapLink          string            `json:"map_link,omitempty"`
	Image            string            `json:"image"`
	Completed        bool              `json:"completed"`
	Status           EventStatus       `json:"status"`
	OrganizerDetails *OrganizerSummary `json:"organizer_details,omitempty"`
}

// HasParticipant reports whether any of the given identities is in the participant set.
func (e *Event) HasParticipant(ids ...string) bool {
	for _, p := range e.Participants {
		for _, id := range ids {
			if id != "" && p == id {
				return true
			}
		}
	}
	return false
}
