package attendance

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/treeplant/web/internal/middleware"
	"github.com/treeplant/web/pkg/backend"
	"github.com/treeplant/web/pkg/response"
)

// Handler serves the attendance capture endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an attendance handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func operator(c *gin.Context) string {
	id := middleware.Identity(c)
	if id.UserID != "" {
		return id.UserID
	}
	return id.Username
}

func (h *Handler) session(c *gin.Context) (*Session, bool) {
	s, ok := h.svc.Registry().Get(c.Param("eventId"), operator(c))
	if !ok {
		response.Failed(c, http.StatusConflict, "Session Ended", ErrSessionEnded.Error())
		return nil, false
	}
	return s, true
}

func (h *Handler) stateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrIdentityRequired):
		response.Failed(c, http.StatusUnprocessableEntity, "Input Required", err.Error())
	case errors.Is(err, ErrSessionEnded):
		response.Failed(c, http.StatusConflict, "Session Ended", err.Error())
	case errors.Is(err, ErrInvalidFrame):
		response.Failed(c, http.StatusBadRequest, "Error", ErrInvalidFrame.Error())
	case errors.Is(err, ErrSpeechUnsupported), errors.Is(err, ErrBusy):
		response.Conflict(c, err.Error())
	default:
		h.logger.Error("attendance session error", zap.Error(err))
		response.Internal(c, "something went wrong")
	}
}

// StartRequest is the body for POST /api/attendance/:eventId/session.
type StartRequest struct {
	SpeechSupported bool `json:"speech_supported"`
}

// Start handles POST /api/attendance/:eventId/session.
func (h *Handler) Start(c *gin.Context) {
	var req StartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	s := h.svc.Registry().Open(c.Param("eventId"), operator(c))
	if err := s.Start(req.SpeechSupported); err != nil {
		h.stateError(c, err)
		return
	}
	h.svc.PushSession(s)
	response.OK(c, s.Snapshot())
}

// Show handles GET /api/attendance/:eventId/session.
func (h *Handler) Show(c *gin.Context) {
	if s, ok := h.session(c); ok {
		response.OK(c, s.Snapshot())
	}
}

// Listen handles POST /api/attendance/:eventId/session/listen.
func (h *Handler) Listen(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.BeginListening(); err != nil {
		h.stateError(c, err)
		return
	}
	h.svc.PushSession(s)
	response.OK(c, s.Snapshot())
}

// TranscriptRequest carries a speech recognition result.
type TranscriptRequest struct {
	Text string `json:"text"`
}

// Transcript handles POST /api/attendance/:eventId/session/transcript.
func (h *Handler) Transcript(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req TranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s.Transcript(req.Text)
	h.svc.PushSession(s)
	response.OK(c, s.Snapshot())
}

// StopListening handles DELETE /api/attendance/:eventId/session/listen.
func (h *Handler) StopListening(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.StopListening()
	h.svc.PushSession(s)
	response.OK(c, s.Snapshot())
}

// UsernameRequest carries the typed username.
type UsernameRequest struct {
	Username string `json:"username"`
}

// Username handles PUT /api/attendance/:eventId/session/username.
func (h *Handler) Username(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req UsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := s.SetUsername(req.Username); err != nil {
		h.stateError(c, err)
		return
	}
	response.OK(c, s.Snapshot())
}

// CaptureResponse is returned by a capture.
type CaptureResponse struct {
	Result  *Result  `json:"result"`
	Session Snapshot `json:"session"`
}

// Capture handles POST /api/attendance/:eventId/session/capture.
// The frame is the multipart file "frame"; "username" optionally carries the typed username.
func (h *Handler) Capture(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	username := c.PostForm("username")

	var frame []byte
	if fh, err := c.FormFile("frame"); err == nil {
		f, err := fh.Open()
		if err != nil {
			h.stateError(c, ErrInvalidFrame)
			return
		}
		frame, err = io.ReadAll(io.LimitReader(f, MaxFrameSize+1))
		f.Close()
		if err != nil {
			h.stateError(c, ErrInvalidFrame)
			return
		}
	}

	result, err := h.svc.Capture(c.Request.Context(), s, middleware.Credentials(c), frame, username)
	if err != nil {
		h.stateError(c, err)
		return
	}
	resp := CaptureResponse{Result: result, Session: s.Snapshot()}
	if result.Success {
		response.OKWithToast(c, resp, "Attendance marked", result.Message)
		return
	}
	c.JSON(http.StatusOK, response.Body{
		Success: true,
		Data:    resp,
		Toast:   &response.Toast{Title: "Face match failed", Description: result.Message, Variant: response.ToastDestructive},
	})
}

// Next handles POST /api/attendance/:eventId/session/next.
func (h *Handler) Next(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Next(); err != nil {
		h.stateError(c, err)
		return
	}
	h.svc.PushSession(s)
	response.OK(c, s.Snapshot())
}

// End handles DELETE /api/attendance/:eventId/session. Ending twice is not an error.
func (h *Handler) End(c *gin.Context) {
	h.svc.Registry().End(c.Param("eventId"), operator(c))
	response.OKWithToast(c, gin.H{"redirect": "/organize-events"}, "Attendance ended", "The camera has been released.")
}

// Roster handles GET /api/attendance/:eventId/roster.
func (h *Handler) Roster(c *gin.Context) {
	roster, err := h.svc.Roster(c.Request.Context(), middleware.Credentials(c), c.Param("eventId"))
	if err != nil {
		h.logger.Info("load attendance roster failed", zap.String("event_id", c.Param("eventId")), zap.Error(err))
		fallback := "Error fetching attendance list."
		if backend.StatusOf(err) != 0 {
			fallback = "Failed to fetch attendance list."
		}
		response.BackendError(c, err, "Error", fallback)
		return
	}
	response.OK(c, roster)
}

// Audits handles GET /api/attendance/:eventId/audits?limit=.
func (h *Handler) Audits(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	list, err := h.svc.Audits(c.Request.Context(), c.Param("eventId"), limit)
	if err != nil {
		h.logger.Error("list capture audits failed", zap.Error(err))
		response.Internal(c, fmt.Sprintf("could not load capture history for event %s", c.Param("eventId")))
		return
	}
	response.OK(c, list)
}

// RegisterRoutes mounts the attendance routes on rg (organizer only).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/attendance/:eventId")
	g.GET("/roster", h.Roster)
	g.GET("/audits", h.Audits)
	g.POST("/session", h.Start)
	g.GET("/session", h.Show)
	g.DELETE("/session", h.End)
	g.POST("/session/listen", h.Listen)
	g.DELETE("/session/listen", h.StopListening)
	g.POST("/session/transcript", h.Transcript)
	g.PUT("/session/username", h.Username)
	g.POST("/session/capture", h.Capture)
	g.POST("/session/next", h.Next)
}
