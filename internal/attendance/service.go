package attendance

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/pkg/backend"
	"github.com/treeplant/web/pkg/queue"
)

// Realtime events pushed to watchers of an event room.
const (
	EventRoster  = "roster"
	EventSession = "session"
	EventRelease = "release"
)

const (
	matchedMessage    = "Face matched successfully!"
	notMatchedMessage = "Face did not match with registered participants."
	markFailed        = "Failed to mark attendance."
	matchNetworkError = "An error occurred during face matching."
)

// Backend is the subset of backend calls a capture session makes.
type Backend interface {
	MarkAttendance(ctx context.Context, creds []*http.Cookie, form *backend.Form) (*models.FaceMatch, error)
	AttendanceRoster(ctx context.Context, creds []*http.Cookie, eventID string) (*models.AttendanceRoster, error)
}

// AuditStore persists capture attempts.
type AuditStore interface {
	Insert(ctx context.Context, a *models.CaptureAudit) error
	ListByEvent(ctx context.Context, eventID string, limit int) ([]models.CaptureAudit, error)
}

// FrameArchiver queues a frame for object storage.
type FrameArchiver interface {
	EnqueueFrameArchive(ctx context.Context, payload queue.FrameArchivePayload) error
}

// SessionLog records when capture sessions hold the camera.
type SessionLog interface {
	LogOpen(ctx context.Context, id uuid.UUID, eventID, operatorID string, at time.Time) error
	LogClose(ctx context.Context, id uuid.UUID, at time.Time, captures int) error
}

// Broadcaster pushes an event to every watcher of an event room, on every instance.
type Broadcaster interface {
	BroadcastToEventAndPublish(eventID, event string, payload interface{})
}

// Service runs captures against the backend and keeps watchers up to date.
type Service struct {
	registry *Registry
	backend  Backend
	audits   AuditStore
	archiver FrameArchiver
	hub      Broadcaster
	log      SessionLog
	quality  int
	now      func() time.Time
	logger   *zap.Logger
}

// Options holds the optional collaborators of a Service.
type Options struct {
	Audits      AuditStore
	Archiver    FrameArchiver
	Hub         Broadcaster
	SessionLog  SessionLog
	JPEGQuality int
	Now         func() time.Time
}

// NewService creates the capture service. Nil collaborators in opts are skipped.
func NewService(reg *Registry, b Backend, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		registry: reg,
		backend:  b,
		audits:   opts.Audits,
		archiver: opts.Archiver,
		hub:      opts.Hub,
		log:      opts.SessionLog,
		quality:  opts.JPEGQuality,
		now:      opts.Now,
		logger:   logger,
	}
	reg.SetOpenHandler(s.opened)
	reg.SetEndHandler(s.released)
	return s
}

// Registry returns the session registry.
func (s *Service) Registry() *Registry { return s.registry }

func (s *Service) push(eventID, event string, payload interface{}) {
	if s.hub != nil {
		s.hub.BroadcastToEventAndPublish(eventID, event, payload)
	}
}

func (s *Service) opened(sess *Session) {
	if s.log == nil {
		return
	}
	if err := s.log.LogOpen(context.Background(), sess.ID, sess.EventID, sess.OperatorID, s.now()); err != nil {
		s.logger.Warn("log capture session open failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
	}
}

func (s *Service) released(sess *Session) {
	snap := sess.Snapshot()
	s.push(sess.EventID, EventRelease, snap)
	if s.log == nil {
		return
	}
	if err := s.log.LogClose(context.Background(), sess.ID, s.now(), snap.Captures); err != nil {
		s.logger.Warn("log capture session close failed", zap.String("session_id", sess.ID.String()), zap.Error(err))
	}
}

// PushSession sends the session snapshot to watchers.
func (s *Service) PushSession(sess *Session) {
	s.push(sess.EventID, EventSession, sess.Snapshot())
}

// Roster fetches the attendance list and pushes it to watchers.
func (s *Service) Roster(ctx context.Context, creds []*http.Cookie, eventID string) (*models.AttendanceRoster, error) {
	roster, err := s.backend.AttendanceRoster(ctx, creds, eventID)
	if err != nil {
		return nil, err
	}
	s.push(eventID, EventRoster, roster)
	return roster, nil
}

// Capture submits frame with the session's claimed identity and records the result.
// Identity and frame problems are returned as errors without any backend call;
// backend failures become a failed Result.
func (s *Service) Capture(ctx context.Context, sess *Session, creds []*http.Cookie, frame []byte, username string) (*Result, error) {
	claim, err := sess.BeginCapture(username)
	if err != nil {
		return nil, err
	}
	data, err := NormalizeJPEG(frame, s.quality)
	if err != nil {
		sess.AbortCapture()
		return nil, err
	}
	sess.Matching()
	s.PushSession(sess)

	match, callErr := s.backend.MarkAttendance(ctx, creds, MarkForm(claim, data))
	result, outcome := s.interpret(match, callErr)
	sess.Finish(result)
	s.PushSession(sess)

	// The audit trail and archive outlive a browser that goes away mid-request.
	bg := context.WithoutCancel(ctx)
	s.record(bg, sess, claim, outcome, result, data)
	if callErr == nil {
		if _, err := s.Roster(ctx, creds, claim.EventID); err != nil {
			s.logger.Warn("refresh attendance roster failed", zap.String("event_id", claim.EventID), zap.Error(err))
		}
	}
	return &result, nil
}

func (s *Service) interpret(match *models.FaceMatch, err error) (Result, models.CaptureOutcome) {
	if err != nil {
		fallback := matchNetworkError
		var be *backend.Error
		if errors.As(err, &be) && be.Kind != backend.KindTransport {
			fallback = markFailed
		}
		return Result{Success: false, Message: backend.Message(err, fallback)}, models.CaptureError
	}
	if match.IsPresent {
		return Result{Success: true, Message: matchedMessage}, models.CaptureMatched
	}
	return Result{Success: false, Message: notMatchedMessage}, models.CaptureNotMatched
}

func (s *Service) record(ctx context.Context, sess *Session, claim Claim, outcome models.CaptureOutcome, result Result, frame []byte) {
	audit := &models.CaptureAudit{
		ID:         uuid.New(),
		EventID:    claim.EventID,
		OperatorID: sess.OperatorID,
		Username:   claim.Username,
		SpokenName: claim.SpokenName,
		Outcome:    outcome,
		Message:    result.Message,
		CreatedAt:  s.now(),
	}
	if s.audits != nil {
		if err := s.audits.Insert(ctx, audit); err != nil {
			s.logger.Error("insert capture audit failed", zap.String("event_id", claim.EventID), zap.Error(err))
			return
		}
	}
	if s.archiver != nil {
		err := s.archiver.EnqueueFrameArchive(ctx, queue.FrameArchivePayload{
			AuditID:  audit.ID,
			EventID:  claim.EventID,
			Username: claim.Username,
			Frame:    frame,
		})
		if err != nil {
			s.logger.Warn("enqueue frame archive failed", zap.String("audit_id", audit.ID.String()), zap.Error(err))
		}
	}
}

// Audits lists recent capture attempts for an event.
func (s *Service) Audits(ctx context.Context, eventID string, limit int) ([]models.CaptureAudit, error) {
	if s.audits == nil {
		return []models.CaptureAudit{}, nil
	}
	return s.audits.ListByEvent(ctx, eventID, limit)
}
