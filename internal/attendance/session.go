// Package attendance runs camera capture sessions that mark event attendance
// by face matching on the backend.
package attendance

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the capture session state.
type State string

const (
	StateIdle        State = "idle"
	StateCameraReady State = "camera_ready"
	StateListening   State = "listening"
	StateCapturing   State = "capturing"
	StateMatching    State = "matching"
	StateResult      State = "result"
	StateEnded       State = "ended"
)

var (
	ErrIdentityRequired  = errors.New("Please say your name OR enter your username first!")
	ErrSessionEnded      = errors.New("Attendance session has ended!")
	ErrSpeechUnsupported = errors.New("speech recognition is not available")
	ErrBusy              = errors.New("a capture is already in progress")
	ErrNoSession         = errors.New("no attendance session is running")
)

// TrackKind is the kind of a media track.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// Track is one device track held by a session.
type Track struct {
	Kind TrackKind `json:"kind"`
	live bool
}

// Live reports whether the track has not been stopped.
func (t *Track) Live() bool { return t.live }

// Stop releases the device. Stopping twice is a no-op.
func (t *Track) Stop() { t.live = false }

// MediaStream is the set of tracks acquired when the session starts.
type MediaStream struct {
	Tracks []*Track
}

func newStream(audio bool) *MediaStream {
	s := &MediaStream{Tracks: []*Track{{Kind: TrackVideo, live: true}}}
	if audio {
		s.Tracks = append(s.Tracks, &Track{Kind: TrackAudio, live: true})
	}
	return s
}

// Result is the outcome of one capture.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Claim is the identity submitted with a frame.
type Claim struct {
	EventID    string
	Username   string
	SpokenName string
}

// Snapshot is the serializable view of a session.
type Snapshot struct {
	ID              uuid.UUID `json:"id"`
	EventID         string    `json:"event_id"`
	OperatorID      string    `json:"operator_id"`
	State           State     `json:"state"`
	SpeechSupported bool      `json:"speech_supported"`
	SpokenName      string    `json:"spoken_name"`
	Username        string    `json:"username"`
	Result          *Result   `json:"result,omitempty"`
	LiveTracks      int       `json:"live_tracks"`
	Captures        int       `json:"captures"`
	StartedAt       time.Time `json:"started_at"`
	LastActive      time.Time `json:"last_active"`
}

// Session is one operator's capture session for an event.
type Session struct {
	ID         uuid.UUID
	EventID    string
	OperatorID string

	mu         sync.Mutex
	state      State
	ready      State
	speech     bool
	stream     *MediaStream
	spokenName string
	username   string
	result     *Result
	captures   int
	startedAt  time.Time
	lastActive time.Time
	now        func() time.Time
	onEnd      []func(*Session)
}

// NewSession creates an idle session. now may be nil.
func NewSession(eventID, operatorID string, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Session{
		ID:         uuid.New(),
		EventID:    eventID,
		OperatorID: operatorID,
		state:      StateIdle,
		ready:      StateIdle,
		startedAt:  t,
		lastActive: t,
		now:        now,
	}
}

// OnEnd registers fn to run once when the session ends.
func (s *Session) OnEnd(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnd = append(s.onEnd, fn)
}

func (s *Session) touch() { s.lastActive = s.now() }

// Start acquires the media stream, with an audio track when speech is supported.
// Starting a session that already holds a stream only refreshes its activity.
func (s *Session) Start(speech bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return ErrSessionEnded
	}
	s.touch()
	if s.stream != nil {
		return nil
	}
	s.speech = speech
	s.stream = newStream(speech)
	s.state = StateCameraReady
	s.ready = StateCameraReady
	return nil
}

// BeginListening starts speech capture and clears the previous spoken name.
func (s *Session) BeginListening() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateEnded:
		return ErrSessionEnded
	case !s.speech:
		return ErrSpeechUnsupported
	case s.state != StateIdle && s.state != StateCameraReady:
		return ErrBusy
	}
	s.touch()
	s.ready = s.state
	s.spokenName = ""
	s.state = StateListening
	return nil
}

// Transcript stores the recognized name and leaves listening.
func (s *Session) Transcript(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateListening {
		return
	}
	s.touch()
	s.spokenName = strings.TrimSpace(text)
	s.state = s.ready
}

// StopListening leaves listening without a transcript.
func (s *Session) StopListening() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateListening {
		return
	}
	s.touch()
	s.state = s.ready
}

// SetUsername records the typed username.
func (s *Session) SetUsername(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return ErrSessionEnded
	}
	s.touch()
	s.username = strings.TrimSpace(username)
	return nil
}

// BeginCapture checks the claimed identity and moves to capturing.
// A typed username passed here replaces the stored one when non-empty.
func (s *Session) BeginCapture(username string) (Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return Claim{}, ErrSessionEnded
	}
	if u := strings.TrimSpace(username); u != "" {
		s.username = u
	}
	if s.spokenName == "" && s.username == "" {
		return Claim{}, ErrIdentityRequired
	}
	if s.state != StateIdle && s.state != StateCameraReady {
		return Claim{}, ErrBusy
	}
	s.touch()
	s.ready = s.state
	s.result = nil
	s.state = StateCapturing
	return Claim{EventID: s.EventID, Username: s.username, SpokenName: s.spokenName}, nil
}

// AbortCapture returns to the ready state when no frame could be submitted.
func (s *Session) AbortCapture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCapturing || s.state == StateMatching {
		s.state = s.ready
	}
}

// Matching marks the frame as submitted.
func (s *Session) Matching() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCapturing {
		s.state = StateMatching
	}
}

// Finish records the capture result.
func (s *Session) Finish(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return
	}
	s.touch()
	s.result = &r
	s.captures++
	s.state = StateResult
}

// Next clears the inputs and the result for the next participant.
// The device stays held.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return ErrSessionEnded
	}
	s.touch()
	s.spokenName = ""
	s.username = ""
	s.result = nil
	s.state = StateIdle
	s.ready = StateIdle
	return nil
}

// End stops every track and marks the session ended. It is safe to call more than once.
func (s *Session) End() {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	if s.stream != nil {
		for _, t := range s.stream.Tracks {
			t.Stop()
		}
	}
	s.state = StateEnded
	hooks := s.onEnd
	s.onEnd = nil
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(s)
	}
}

// Ended reports whether End has run.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateEnded
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tracks returns the number of live tracks.
func (s *Session) Tracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveTracks()
}

func (s *Session) liveTracks() int {
	if s.stream == nil {
		return 0
	}
	n := 0
	for _, t := range s.stream.Tracks {
		if t.Live() {
			n++
		}
	}
	return n
}

// IdleSince returns the time of the last operator action.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Snapshot returns a copy of the session for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:              s.ID,
		EventID:         s.EventID,
		OperatorID:      s.OperatorID,
		State:           s.state,
		SpeechSupported: s.speech,
		SpokenName:      s.spokenName,
		Username:        s.username,
		LiveTracks:      s.liveTracks(),
		Captures:        s.captures,
		StartedAt:       s.startedAt,
		LastActive:      s.lastActive,
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}
