package attendance

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type sessionKey struct {
	eventID    string
	operatorID string
}

// Registry holds the live capture session per (event, operator) (thread-safe).
type Registry struct {
	mu          sync.Mutex
	sessions    map[sessionKey]*Session
	idleTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
	onOpen      func(*Session)
	onEnd       func(*Session)
}

// NewRegistry creates a session registry. Sessions idle for longer than
// idleTimeout are ended by Sweep; zero disables the timeout.
func NewRegistry(idleTimeout time.Duration, now func() time.Time, logger *zap.Logger) *Registry {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions:    make(map[sessionKey]*Session),
		idleTimeout: idleTimeout,
		now:         now,
		logger:      logger,
	}
}

// SetEndHandler registers fn to run after any session ends.
func (reg *Registry) SetEndHandler(fn func(*Session)) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.onEnd = fn
}

// SetOpenHandler registers fn to run after a new session is created.
func (reg *Registry) SetOpenHandler(fn func(*Session)) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.onOpen = fn
}

// Open returns the live session for (eventID, operatorID), creating one if needed.
func (reg *Registry) Open(eventID, operatorID string) *Session {
	key := sessionKey{eventID, operatorID}
	reg.mu.Lock()
	if s := reg.sessions[key]; s != nil && !s.Ended() {
		reg.mu.Unlock()
		return s
	}
	s := NewSession(eventID, operatorID, reg.now)
	s.OnEnd(reg.forget)
	if reg.onEnd != nil {
		s.OnEnd(reg.onEnd)
	}
	reg.sessions[key] = s
	onOpen := reg.onOpen
	reg.mu.Unlock()

	reg.logger.Info("attendance session opened", zap.String("event_id", eventID), zap.String("operator", operatorID))
	if onOpen != nil {
		onOpen(s)
	}
	return s
}

// Get returns the live session for (eventID, operatorID).
func (reg *Registry) Get(eventID, operatorID string) (*Session, bool) {
	reg.mu.Lock()
	s := reg.sessions[sessionKey{eventID, operatorID}]
	reg.mu.Unlock()
	if s == nil || s.Ended() {
		return nil, false
	}
	return s, true
}

func (reg *Registry) forget(s *Session) {
	key := sessionKey{s.EventID, s.OperatorID}
	reg.mu.Lock()
	if reg.sessions[key] == s {
		delete(reg.sessions, key)
	}
	reg.mu.Unlock()
	reg.logger.Info("attendance session ended", zap.String("event_id", s.EventID), zap.String("operator", s.OperatorID))
}

// End ends the session for (eventID, operatorID) if one is live.
func (reg *Registry) End(eventID, operatorID string) {
	if s, ok := reg.Get(eventID, operatorID); ok {
		s.End()
	}
}

func (reg *Registry) snapshot() []*Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]*Session, 0, len(reg.sessions))
	for _, s := range reg.sessions {
		out = append(out, s)
	}
	return out
}

// EndAll ends every session, e.g. on shutdown.
func (reg *Registry) EndAll() {
	for _, s := range reg.snapshot() {
		s.End()
	}
}

// Len returns the number of live sessions.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}

// Sweep ends sessions idle for longer than the idle timeout and returns how many it ended.
func (reg *Registry) Sweep() int {
	if reg.idleTimeout <= 0 {
		return 0
	}
	cutoff := reg.now().Add(-reg.idleTimeout)
	n := 0
	for _, s := range reg.snapshot() {
		if s.IdleSince().Before(cutoff) {
			reg.logger.Info("attendance session idle, releasing", zap.String("event_id", s.EventID), zap.String("operator", s.OperatorID))
			s.End()
			n++
		}
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done, then ends all sessions.
func (reg *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			reg.EndAll()
			return
		case <-ticker.C:
			reg.Sweep()
		}
	}
}
