package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeplant/web/internal/models"
)

func TestStatusAt(t *testing.T) {
	at := func(s string) time.Time {
		v, err := time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, models.EventStatusCompleted, StatusAt("2024-01-15", "09:00", false, at("2024-01-20 00:00")))
	assert.Equal(t, models.EventStatusPublished, StatusAt("2024-01-15", "09:00", false, at("2024-01-16 08:59")))
	assert.Equal(t, models.EventStatusCompleted, StatusAt("2024-01-15", "09:00:00", false, at("2024-01-16 09:00")))
	assert.Equal(t, models.EventStatusCompleted, StatusAt("2030-01-15", "09:00", true, at("2024-01-16 09:00")))
	assert.Equal(t, models.EventStatusPublished, StatusAt("someday", "09:00", false, at("2024-01-16 09:00")))
}

func TestIsUpcoming(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	assert.True(t, IsUpcoming("2024-01-15", "09:00", now))
	assert.False(t, IsUpcoming("2024-01-15", "08:59", now))
	assert.False(t, IsUpcoming("", "", now))
}

func TestInferOrganizerType(t *testing.T) {
	cases := map[string]models.OrganizerType{
		"Green Earth Society":         models.OrganizerNGO,
		"Forest Department of Kerala": models.OrganizerGovernment,
		"St. Mary's College":          models.OrganizerEducational,
		"Acme Pvt Ltd":                models.OrganizerCorporate,
		"Ravi and friends":            models.OrganizerNGO,
	}
	for name, want := range cases {
		assert.Equal(t, want, InferOrganizerType(name), name)
	}
}

func TestImageURL(t *testing.T) {
	m := NewMapper("http://localhost:8000/")
	assert.Equal(t, "http://localhost:8000/media/a.jpg", m.ImageURL("/media/a.jpg", "x"))
	assert.Equal(t, "http://localhost:8000/media/a.jpg", m.ImageURL("media/a.jpg", "x"))
	assert.Equal(t, "https://cdn.test/a.jpg", m.ImageURL("https://cdn.test/a.jpg", "x"))
	assert.Equal(t, "x", m.ImageURL("", "x"))
}

func TestMapperHandlesBothTreeShapes(t *testing.T) {
	var explore, console models.APIEvent
	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"event_name":"Plant","date":"2024-01-15","time":"09:00","location":"MG Road","city":"Pune","participants":["alice"],"trees":[],"organizer_details":{"name":"City Ministry"}}`), &explore))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"5","event_name":"Plant","trees":[{"name":"Neem"},{}],"organizer_details":{"name":"X","type":"Corporate"}}`), &console))

	m := NewMapper("http://localhost:8000")
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	e := m.ForExplorer(explore, now)
	assert.Equal(t, "4", e.ID)
	assert.Equal(t, DefaultTreeTypes, e.Plantation.TreeTypes)
	assert.Equal(t, models.OrganizerGovernment, e.OrganizerType)
	assert.Equal(t, "https://maps.google.com/?q=MG%20Road%2C%20Pune", e.MapLink)
	assert.Equal(t, explorePlaceholder, e.Image)

	c := m.ForConsole(console, now)
	assert.Equal(t, []string{"Neem", "Unknown"}, c.Plantation.TreeTypes)
	assert.Equal(t, models.OrganizerCorporate, c.OrganizerType)
	assert.Equal(t, consolePlaceholder, c.Image)
	assert.Equal(t, 0, c.Registrations)
}
