// Package profiles serves the personal and organizer profile pages.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/internal/validation"
	"github.com/treeplant/web/pkg/backend"
)

// DefaultBio is shown when the user has not written an about text.
const DefaultBio = "Environmental enthusiast passionate about tree plantation and sustainability."

// ErrNoChanges is returned when an update would send nothing.
var ErrNoChanges = errors.New("No fields were changed.")

// FieldErrors is returned when a form fails validation before any backend call.
type FieldErrors map[string]string

func (f FieldErrors) Error() string { return "validation failed" }

// Backend is the subset of backend calls the profile pages make.
type Backend interface {
	Me(ctx context.Context, creds []*http.Cookie) (*models.User, error)
	MyParticipantStats(ctx context.Context, creds []*http.Cookie) (*models.ParticipantStats, error)
	MyOrganizer(ctx context.Context, creds []*http.Cookie) (*models.OrganizerProfile, error)
	CreateOrganizer(ctx context.Context, creds []*http.Cookie, form *backend.Form) (*models.OrganizerProfile, error)
	UpdateOrganizer(ctx context.Context, creds []*http.Cookie, body backend.Body) error
	UpdateUser(ctx context.Context, creds []*http.Cookie, body backend.Body) error
}

// Picture is an uploaded image already checked by storage.ReadUpload.
type Picture struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PersonalForm is the editable part of the personal profile.
type PersonalForm struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email" validate:"omitempty,email" msg:"email=Please enter a valid email address"`
	Phone string `json:"phone" form:"phone"`
	City  string `json:"city" form:"city"`
	Bio   string `json:"bio" form:"bio"`
}

// OrganizerForm is the organizer profile form used for create and update.
type OrganizerForm struct {
	Name      string               `json:"name" form:"name" validate:"required,min=3" msg:"required=Organization name is required;min=Organization name must be at least 3 characters"`
	Bio       string               `json:"bio" form:"bio" validate:"required,min=20" msg:"required=Organization bio is required;min=Bio must be at least 20 characters"`
	OrgMobile string               `json:"org_mobile" form:"org_mobile" validate:"required,mobile" msg:"required=Mobile number is required;mobile=Please enter a valid mobile number"`
	OrgEmail  string               `json:"org_email" form:"org_email" validate:"omitempty,email" msg:"email=Please enter a valid email address"`
	Type      models.OrganizerType `json:"type" form:"type" validate:"required,oneof=NGO Government Educational Corporate" msg:"*=Please choose an organization type"`

	// Counters are only sent on update, and only when present.
	TreesPlanted        *int `json:"trees_planted,omitempty" form:"trees_planted" validate:"omitempty,gte=0" msg:"*=Must be zero or more"`
	EventHosted         *int `json:"event_hosted,omitempty" form:"event_hosted" validate:"omitempty,gte=0" msg:"*=Must be zero or more"`
	ParticipantsReached *int `json:"participants_reached,omitempty" form:"participants_reached" validate:"omitempty,gte=0" msg:"*=Must be zero or more"`
}

func (f *OrganizerForm) trim() {
	f.Name = strings.TrimSpace(f.Name)
	f.Bio = strings.TrimSpace(f.Bio)
	f.OrgMobile = strings.TrimSpace(f.OrgMobile)
	f.OrgEmail = strings.TrimSpace(f.OrgEmail)
	if f.Type == "" {
		f.Type = models.OrganizerNGO
	}
}

// Change is one changed field, in the order the page lists them.
type Change struct {
	Field string
	Value interface{}
}

// Changes is an ordered set of changed fields.
type Changes []Change

// Keys returns the changed field names.
func (c Changes) Keys() []string {
	out := make([]string, 0, len(c))
	for _, ch := range c {
		out = append(out, ch.Field)
	}
	return out
}

func (c Changes) body(pictureField string, pic *Picture) backend.Body {
	if pic != nil {
		form := backend.NewForm()
		for _, ch := range c {
			form.Set(ch.Field, fmt.Sprint(ch.Value))
		}
		return form.File(pictureField, pic.Filename, pic.ContentType, pic.Data)
	}
	m := make(map[string]interface{}, len(c))
	for _, ch := range c {
		m[ch.Field] = ch.Value
	}
	return backend.JSON(m)
}

// SplitName splits a display name at the first space into first and last name.
func SplitName(name string) (first, last string) {
	parts := strings.Split(name, " ")
	return parts[0], strings.Join(parts[1:], " ")
}

// PersonalChanges diffs the edited form against the current profile. A changed
// name is also sent as first_name and last_name.
func PersonalChanges(current models.PersonalProfile, edit PersonalForm) Changes {
	var out Changes
	pairs := []struct {
		field   string
		was, is string
	}{
		{"name", current.Name, edit.Name},
		{"email", current.Email, edit.Email},
		{"phone", current.Phone, edit.Phone},
		{"city", current.City, edit.City},
		{"bio", current.Bio, edit.Bio},
	}
	for _, p := range pairs {
		if p.was != p.is {
			out = append(out, Change{p.field, p.is})
		}
	}
	if edit.Name != current.Name && edit.Name != "" {
		first, last := SplitName(edit.Name)
		out = append(out, Change{"first_name", first}, Change{"last_name", last})
	}
	return out
}

// OrganizerChanges diffs the edited organizer form against the current profile.
func OrganizerChanges(current models.OrganizerProfile, edit OrganizerForm) Changes {
	var out Changes
	pairs := []struct {
		field   string
		was, is string
	}{
		{"name", current.Name, edit.Name},
		{"bio", current.Bio, edit.Bio},
		{"org_mobile", current.OrgMobile, edit.OrgMobile},
		{"org_email", current.OrgEmail, edit.OrgEmail},
		{"type", string(current.Type), string(edit.Type)},
	}
	for _, p := range pairs {
		if p.was != p.is {
			out = append(out, Change{p.field, p.is})
		}
	}
	counters := []struct {
		field string
		was   int
		is    *int
	}{
		{"trees_planted", current.TreesPlanted, edit.TreesPlanted},
		{"event_hosted", current.EventHosted, edit.EventHosted},
		{"participants_reached", current.ParticipantsReached, edit.ParticipantsReached},
	}
	for _, n := range counters {
		if n.is != nil && *n.is != n.was {
			out = append(out, Change{n.field, *n.is})
		}
	}
	return out
}

// Service reads and updates profiles through the backend.
type Service struct {
	backend  Backend
	validate *validation.Validator
	origin   string
}

// NewService creates the profile service. origin resolves relative picture paths.
func NewService(b Backend, v *validation.Validator, origin string) *Service {
	return &Service{backend: b, validate: v, origin: strings.TrimRight(origin, "/")}
}

func (s *Service) absolute(p string) string {
	if p == "" || strings.HasPrefix(p, "http") {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return s.origin + p
}

// Personal merges the account and participant counters into the profile page model.
func (s *Service) Personal(ctx context.Context, creds []*http.Cookie) (*models.PersonalProfile, error) {
	var user *models.User
	var stats *models.ParticipantStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.backend.Me(gctx, creds)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.backend.MyParticipantStats(gctx, creds)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Merge(user, stats, s.absolute), nil
}

// Merge builds the personal profile. resolve may be nil.
func Merge(user *models.User, stats *models.ParticipantStats, resolve func(string) string) *models.PersonalProfile {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	bio := user.About
	if bio == "" {
		bio = DefaultBio
	}
	pic := user.ProfilePicture
	if resolve != nil {
		pic = resolve(pic)
	}
	p := &models.PersonalProfile{
		Name:           name,
		Username:       user.Username,
		Email:          user.Email,
		Phone:          user.Mobile,
		City:           user.City,
		Bio:            bio,
		ProfilePicture: pic,
	}
	if stats != nil {
		p.TreesPlanted = stats.TreesPlanted
		p.EventsParticipated = stats.EventParticipated
		p.GreenCoins = stats.GreenCoins
	}
	return p
}

// UpdatePersonal sends the fields that differ from the current profile.
func (s *Service) UpdatePersonal(ctx context.Context, creds []*http.Cookie, edit PersonalForm, pic *Picture) (Changes, error) {
	edit.Name = strings.TrimSpace(edit.Name)
	edit.Email = strings.TrimSpace(edit.Email)
	if fields := s.validate.Struct(&edit); fields != nil {
		return nil, FieldErrors(fields)
	}
	current, err := s.Personal(ctx, creds)
	if err != nil {
		return nil, err
	}
	changes := PersonalChanges(*current, edit)
	if len(changes) == 0 && pic == nil {
		return nil, ErrNoChanges
	}
	if err := s.backend.UpdateUser(ctx, creds, changes.body("profile_picture", pic)); err != nil {
		return changes, err
	}
	return changes, nil
}

// Organizer returns the caller's organizer profile.
func (s *Service) Organizer(ctx context.Context, creds []*http.Cookie) (*models.OrganizerProfile, error) {
	p, err := s.backend.MyOrganizer(ctx, creds)
	if err != nil {
		return nil, err
	}
	p.OrgPicture = s.absolute(p.OrgPicture)
	return p, nil
}

// CreateOrganizer validates and submits a new organizer profile.
func (s *Service) CreateOrganizer(ctx context.Context, creds []*http.Cookie, form OrganizerForm, pic *Picture) (*models.OrganizerProfile, error) {
	form.trim()
	if fields := s.validate.Struct(&form); fields != nil {
		return nil, FieldErrors(fields)
	}
	mp := backend.NewForm().
		Set("name", form.Name).
		Set("bio", form.Bio).
		Set("org_mobile", form.OrgMobile)
	if form.OrgEmail != "" {
		mp.Set("org_email", form.OrgEmail)
	}
	mp.Set("type", string(form.Type))
	if pic != nil {
		mp.File("org_picture", pic.Filename, pic.ContentType, pic.Data)
	}
	return s.backend.CreateOrganizer(ctx, creds, mp)
}

// UpdateOrganizer validates the form and sends the changed fields.
func (s *Service) UpdateOrganizer(ctx context.Context, creds []*http.Cookie, edit OrganizerForm, pic *Picture) (Changes, error) {
	edit.trim()
	if fields := s.validate.Struct(&edit); fields != nil {
		return nil, FieldErrors(fields)
	}
	current, err := s.backend.MyOrganizer(ctx, creds)
	if err != nil {
		return nil, err
	}
	changes := OrganizerChanges(*current, edit)
	if len(changes) == 0 && pic == nil {
		return nil, ErrNoChanges
	}
	if err := s.backend.UpdateOrganizer(ctx, creds, changes.body("org_picture", pic)); err != nil {
		return changes, err
	}
	return changes, nil
}
