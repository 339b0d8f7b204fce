package events

import (
	"net/url"
	"strings"
	"time"

	"github.com/treeplant/web/internal/models"
)

const (
	explorePlaceholder = "/community-tree-planting.png"
	consolePlaceholder = "/placeholder.jpg"
)

// DefaultTreeTypes is shown when an event lists no tree types.
var DefaultTreeTypes = []string{"Native Trees", "Fruit Trees", "Shade Trees"}

var organizerKeywords = []struct {
	kind  models.OrganizerType
	words []string
}{
	{models.OrganizerNGO, []string{"ngo", "society", "foundation"}},
	{models.OrganizerGovernment, []string{"government", "department", "ministry"}},
	{models.OrganizerEducational, []string{"school", "college", "university", "education"}},
	{models.OrganizerCorporate, []string{"corp", "ltd", "inc", "company"}},
}

// InferOrganizerType guesses the organizer kind from its name. Unknown names are NGOs.
func InferOrganizerType(name string) models.OrganizerType {
	lower := strings.ToLower(name)
	for _, k := range organizerKeywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.kind
			}
		}
	}
	return models.OrganizerNGO
}

// Mapper turns backend events into page view-models.
type Mapper struct {
	origin string
}

// NewMapper creates a mapper resolving relative media paths against origin.
func NewMapper(origin string) *Mapper {
	return &Mapper{origin: strings.TrimRight(origin, "/")}
}

// ImageURL makes p absolute against the backend origin. Empty p yields placeholder.
func (m *Mapper) ImageURL(p, placeholder string) string {
	switch {
	case p == "":
		return placeholder
	case strings.HasPrefix(p, "http"):
		return p
	case strings.HasPrefix(p, "/"):
		return m.origin + p
	}
	return m.origin + "/" + p
}

func (m *Mapper) base(api models.APIEvent, now time.Time) models.Event {
	participants := api.Participants
	if participants == nil {
		participants = []string{}
	}
	return models.Event{
		ID:            api.ID.String(),
		Title:         api.EventName,
		Description:   api.Description,
		Date:          api.Date,
		Time:          api.Time,
		City:          api.City,
		Address:       api.Location,
		Participants:  participants,
		Capacity:      api.MaxCapacity,
		Registrations: len(participants),
		Organizer:     api.OrganizerDetails.Name,
		Plantation:    models.PlantationDetails{TreeTypes: []string(api.Trees), TargetTrees: api.Target},
		Contact:       models.Contact{Phone: api.OrganizerDetails.OrgMobile, Email: api.OrganizerDetails.OrgEmail},
		Completed:     api.IsCompleted,
		Status:        StatusAt(api.Date, api.Time, api.IsCompleted, now),
	}
}

// ForExplorer maps an event for the participant explorer.
func (m *Mapper) ForExplorer(api models.APIEvent, now time.Time) models.Event {
	e := m.base(api, now)
	e.OrganizerType = InferOrganizerType(api.OrganizerDetails.Name)
	if len(e.Plantation.TreeTypes) == 0 {
		e.Plantation.TreeTypes = append([]string(nil), DefaultTreeTypes...)
	}
	e.MapLink = "https://maps.google.com/?q=" + url.PathEscape(api.Location+", "+api.City)
	e.Image = m.ImageURL(api.EventPicture, explorePlaceholder)
	e.OrganizerDetails = &models.OrganizerSummary{
		Name:         api.OrganizerDetails.Name,
		Bio:          api.OrganizerDetails.Bio,
		TreesPlanted: api.OrganizerDetails.TreesPlanted,
		EventsHosted: api.OrganizerDetails.EventHosted,
		Avatar:       m.ImageURL(api.OrganizerDetails.OrgPicture, explorePlaceholder),
	}
	return e
}

// ForConsole maps an event for the organizer console.
func (m *Mapper) ForConsole(api models.APIEvent, now time.Time) models.Event {
	e := m.base(api, now)
	e.OrganizerType = api.OrganizerDetails.Type
	if e.Plantation.TreeTypes == nil {
		e.Plantation.TreeTypes = []string{}
	}
	e.Image = m.ImageURL(api.EventPicture, consolePlaceholder)
	return e
}
