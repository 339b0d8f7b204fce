package models

// User is the account returned by the backend session endpoints.
type User struct {
	ID             FlexID `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Mobile         string `json:"mobile"`
	City           string `json:"city"`
	About          string `json:"about"`
	ProfilePicture string `json:"profile_picture"`
}

// AuthStatus is the body of GET /api/auth-status.
type AuthStatus struct {
	IsAuthenticated bool  `json:"is_authenticated"`
	User            *User `json:"user,omitempty"`
}

// ParticipantStats is the body of GET /api/me/participant/.
type ParticipantStats struct {
	TreesPlanted      int `json:"trees_planted"`
	EventParticipated int `json:"event_participated"`
	GreenCoins        int `json:"green_coins"`
}

// ParticipantProfile is a participant as shown in roster and profile dialogs.
type ParticipantProfile struct {
	Username          string `json:"username"`
	FirstName         string `json:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty"`
	Name              string `json:"name,omitempty"`
	Email             string `json:"email,omitempty"`
	Mobile            string `json:"mobile,omitempty"`
	City              string `json:"city,omitempty"`
	Bio               string `json:"bio,omitempty"`
	About             string `json:"about,omitempty"`
	TreesPlanted      int    `json:"trees_planted"`
	EventParticipated int    `json:"event_participated"`
	ProfilePicture    string `json:"profile_picture,omitempty"`
}

// OrganizerProfile is the body of GET /api/me/organizer.
type OrganizerProfile struct {
	ID                  FlexID        `json:"id,omitempty"`
	Name                string        `json:"name"`
	Bio                 string        `json:"bio"`
	OrgMobile           string        `json:"org_mobile"`
	OrgEmail            string        `json:"org_email"`
	OrgPicture          string        `json:"org_picture,omitempty"`
	Type                OrganizerType `json:"type"`
	TreesPlanted        int           `json:"trees_planted"`
	EventHosted         int           `json:"event_hosted"`
	ParticipantsReached int           `json:"participants_reached"`
}

// PersonalProfile is the merged personal profile page model.
type PersonalProfile struct {
	Name               string `json:"name"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	City               string `json:"city"`
	Bio                string `json:"bio"`
	TreesPlanted       int    `json:"trees_planted"`
	EventsParticipated int    `json:"events_participated"`
	GreenCoins         int    `json:"green_coins"`
	ProfilePicture     string `json:"profile_picture,omitempty"`
}
