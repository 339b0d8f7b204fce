package events

import (
	"strconv"
	"strings"

	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/internal/validation"
	"github.com/treeplant/web/pkg/backend"
)

// EventForm is the organizer's create/edit form.
type EventForm struct {
	EventName   string `json:"event_name" form:"event_name" validate:"required,min=5" msg:"required=Event name is required;min=Event name must be at least 5 characters"`
	Description string `json:"description" form:"description" validate:"required,min=20" msg:"required=Event description is required;min=Description must be at least 20 characters"`
	Date        string `json:"date" form:"date" validate:"required,notpast" msg:"required=Event date is required;notpast=Event date cannot be in the past"`
	Time        string `json:"time" form:"time" validate:"required" msg:"required=Event time is required"`
	MaxCapacity int    `json:"max_capacity" form:"max_capacity" validate:"required,min=1,max=10000" msg:"required=Capacity is required;min=Capacity must be at least 1;max=Capacity cannot exceed 10,000"`
	Location    string `json:"location" form:"location" validate:"required,min=10" msg:"required=Location is required;min=Please provide a detailed location"`
	City        string `json:"city" form:"city" validate:"required" msg:"required=City is required"`
	Target      int    `json:"target" form:"target" validate:"required,min=1" msg:"required=Target trees count is required;min=Target trees must be at least 1"`
	Trees       string `json:"trees" form:"trees" validate:"required" msg:"required=Tree types are required"`
}

// Image is an uploaded picture already checked by storage.ReadUpload.
type Image struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// Normalize trims every text field.
func (f *EventForm) Normalize() {
	f.EventName = strings.TrimSpace(f.EventName)
	f.Description = strings.TrimSpace(f.Description)
	f.Date = strings.TrimSpace(f.Date)
	f.Time = strings.TrimSpace(f.Time)
	f.Location = strings.TrimSpace(f.Location)
	f.City = strings.TrimSpace(f.City)
	f.Trees = strings.TrimSpace(f.Trees)
}

// Validate returns per-field messages, or nil when the form can be submitted.
func (f *EventForm) Validate(v *validation.Validator) map[string]string {
	f.Normalize()
	fields := v.Struct(f)
	if f.Trees != "" && len(f.TreeList()) == 0 {
		fields = validation.Merge(fields, map[string]string{"trees": "Tree types are required"})
	}
	return fields
}

// TreeList splits the comma separated tree types, dropping blanks.
func (f EventForm) TreeList() []string {
	var out []string
	for _, t := range strings.Split(f.Trees, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FromEvent fills the edit form from an existing event.
func FromEvent(e models.Event) EventForm {
	return EventForm{
		EventName:   e.Title,
		Description: e.Description,
		Date:        e.Date,
		Time:        e.Time,
		MaxCapacity: e.Capacity,
		Location:    e.Address,
		City:        e.City,
		Target:      e.Plantation.TargetTrees,
		Trees:       strings.Join(e.Plantation.TreeTypes, ", "),
	}
}

// Multipart encodes the form for create, or for update with a new picture.
// trees travels as a JSON array string.
func (f EventForm) Multipart(img *Image) (*backend.Form, error) {
	form := backend.NewForm().
		Set("event_name", f.EventName).
		Set("description", f.Description).
		Set("date", f.Date).
		Set("time", f.Time).
		Set("max_capacity", strconv.Itoa(f.MaxCapacity)).
		Set("location", f.Location).
		Set("city", f.City).
		Set("target", strconv.Itoa(f.Target))
	if err := form.SetJSON("trees", f.TreeList()); err != nil {
		return nil, err
	}
	if img != nil {
		form.File("event_picture", img.Filename, img.ContentType, img.Data)
	}
	return form, nil
}

type updateJSON struct {
	EventName    string   `json:"event_name"`
	Description  string   `json:"description"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	MaxCapacity  int      `json:"max_capacity"`
	Location     string   `json:"location"`
	City         string   `json:"city"`
	Target       int      `json:"target"`
	Trees        []string `json:"trees"`
	EventPicture *string  `json:"event_picture"`
}

// UpdateBody encodes the full form for PUT: multipart when a picture is
// attached, otherwise JSON with numeric fields and event_picture null.
func (f EventForm) UpdateBody(img *Image) (backend.Body, error) {
	if img != nil {
		return f.Multipart(img)
	}
	trees := f.TreeList()
	if trees == nil {
		trees = []string{}
	}
	return backend.JSON(updateJSON{
		EventName:   f.EventName,
		Description: f.Description,
		Date:        f.Date,
		Time:        f.Time,
		MaxCapacity: f.MaxCapacity,
		Location:    f.Location,
		City:        f.City,
		Target:      f.Target,
		Trees:       trees,
	}), nil
}
