package events

import (
	"context"
	"errors"
	"time"

	"github.com/treeplant/web/internal/auth"
	redisx "github.com/treeplant/web/pkg/redis"
)

const (
	explorerKeyPrefix = "view:explore:"
	consoleKeyPrefix  = "view:console:"
)

// ExplorerState is the per-user state of the event explorer.
type ExplorerState struct {
	Search   string   `json:"search"`
	City     string   `json:"city"`
	TimeSlot string   `json:"time_slot"`
	Joined   []string `json:"joined"`
}

// HasJoined reports whether id was joined from this view.
func (s *ExplorerState) HasJoined(id string) bool {
	for _, j := range s.Joined {
		if j == id {
			return true
		}
	}
	return false
}

// Tab filters the organizer console list.
type Tab string

const (
	TabAll       Tab = "all"
	TabPublished Tab = "published"
	TabCompleted Tab = "completed"
)

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	return t == TabAll || t == TabPublished || t == TabCompleted
}

// ActionKind is a console action that needs confirmation.
type ActionKind string

const (
	ActionUpdate   ActionKind = "update"
	ActionDelete   ActionKind = "delete"
	ActionComplete ActionKind = "complete"
)

// PendingAction is an action awaiting the organizer's confirmation.
type PendingAction struct {
	Kind      ActionKind `json:"kind"`
	EventID   string     `json:"event_id"`
	Form      *EventForm `json:"form,omitempty"`
	Image     *Image     `json:"image,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ConsoleState is the per-organizer state of the console.
type ConsoleState struct {
	Tab           Tab            `json:"tab"`
	OpenEventID   string         `json:"open_event_id,omitempty"`
	Pending       *PendingAction `json:"pending,omitempty"`
	CompletedIDs  []string       `json:"completed_ids,omitempty"`
	DeletedIDs    []string       `json:"deleted_ids,omitempty"`
	PresentCounts map[string]int `json:"present_counts,omitempty"`
}

// Store keeps page state in Redis, keyed by user, for ttl after the last write.
type Store struct {
	rdb *redisx.Client
	ttl time.Duration
}

// NewStore creates a Redis-backed view state store.
func NewStore(rdb *redisx.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func userKey(id auth.Identity) string {
	if id.UserID != "" {
		return id.UserID
	}
	return "u:" + id.Username
}

// Explorer loads the explorer state; a missing entry yields defaults.
func (s *Store) Explorer(ctx context.Context, id auth.Identity) (*ExplorerState, error) {
	st := &ExplorerState{TimeSlot: "all"}
	err := s.rdb.GetJSON(ctx, explorerKeyPrefix+userKey(id), st)
	if err != nil && !errors.Is(err, redisx.ErrMiss) {
		return nil, err
	}
	return st, nil
}

// SaveExplorer stores the explorer state.
func (s *Store) SaveExplorer(ctx context.Context, id auth.Identity, st *ExplorerState) error {
	return s.rdb.SetJSON(ctx, explorerKeyPrefix+userKey(id), st, s.ttl)
}

// Console loads the console state; a missing entry yields defaults.
func (s *Store) Console(ctx context.Context, id auth.Identity) (*ConsoleState, error) {
	st := &ConsoleState{Tab: TabAll}
	err := s.rdb.GetJSON(ctx, consoleKeyPrefix+userKey(id), st)
	if err != nil && !errors.Is(err, redisx.ErrMiss) {
		return nil, err
	}
	if !st.Tab.Valid() {
		st.Tab = TabAll
	}
	return st, nil
}

// SaveConsole stores the console state.
func (s *Store) SaveConsole(ctx context.Context, id auth.Identity, st *ConsoleState) error {
	return s.rdb.SetJSON(ctx, consoleKeyPrefix+userKey(id), st, s.ttl)
}
