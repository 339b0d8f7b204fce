package events

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/treeplant/web/internal/middleware"
	"github.com/treeplant/web/pkg/backend"
	"github.com/treeplant/web/pkg/response"
	"github.com/treeplant/web/pkg/storage"
)

// failure picks the toast description for a failed backend call: a status
// specific fallback when the backend answered, otherwise the network fallback.
func failure(err error, statusFormat, network string) string {
	if status := backend.StatusOf(err); status != 0 {
		return fmt.Sprintf(statusFormat, status)
	}
	return network
}

// Handler serves the explorer and organizer console endpoints.
type Handler struct {
	explorer *Explorer
	console  *Console
	logger   *zap.Logger
}

// NewHandler creates the events handler.
func NewHandler(explorer *Explorer, console *Console, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{explorer: explorer, console: console, logger: logger}
}

// Explore handles GET /api/events/explore.
func (h *Handler) Explore(c *gin.Context) {
	var filters *Filters
	if len(c.Request.URL.Query()) > 0 {
		filters = &Filters{}
		if err := c.ShouldBindQuery(filters); err != nil {
			response.BadRequest(c, "invalid query: "+err.Error())
			return
		}
	}
	view, err := h.explorer.List(c.Request.Context(), middleware.Identity(c), middleware.Credentials(c), filters)
	if err != nil {
		h.logger.Warn("list events failed", zap.Error(err))
		response.BackendError(c, err, "Error", failure(err, "HTTP error! status: %d", "Failed to fetch events"))
		return
	}
	response.OK(c, view)
}

// Join handles POST /api/events/:id/join.
func (h *Handler) Join(c *gin.Context) {
	eventID := c.Param("id")
	res, err := h.explorer.Join(c.Request.Context(), middleware.Identity(c), middleware.Credentials(c), eventID)
	if err != nil {
		h.logger.Info("join event failed", zap.String("event_id", eventID), zap.Error(err))
		response.BackendError(c, err, "Error", failure(err, "Failed to join event: %d", "Failed to join event."))
		return
	}
	response.OKWithToast(c, res, "Joined event!", "You have successfully joined the event.")
}

// Participated handles GET /api/events/participated.
func (h *Handler) Participated(c *gin.Context) {
	list, err := h.explorer.Participated(c.Request.Context(), middleware.Credentials(c))
	if err != nil {
		h.logger.Warn("list participated events failed", zap.Error(err))
		response.BackendError(c, err, "Error", failure(err, "HTTP error! status: %d", "Failed to fetch events"))
		return
	}
	response.OK(c, list)
}

// Console handles GET /api/organizer/events?tab=.
func (h *Handler) Console(c *gin.Context) {
	view, err := h.console.View(c.Request.Context(), middleware.Identity(c), middleware.Credentials(c), Tab(c.Query("tab")))
	if err != nil {
		h.logger.Warn("list organizer events failed", zap.Error(err))
		response.BackendError(c, err, "Error", failure(err, "Failed to fetch events: %d", "Error fetching events."))
		return
	}
	response.OK(c, view)
}

// bindForm reads an event form from JSON or multipart, with the optional
// event_picture file.
func bindForm(c *gin.Context) (EventForm, *Image, map[string]string, error) {
	var form EventForm
	if err := c.ShouldBind(&form); err != nil {
		return form, nil, nil, err
	}
	fh, err := c.FormFile("event_picture")
	if err != nil {
		return form, nil, nil, nil
	}
	data, ct, err := storage.ReadUpload(fh)
	if err != nil {
		if errors.Is(err, storage.ErrNotImage) || errors.Is(err, storage.ErrImageTooLarge) {
			return form, nil, map[string]string{"event_picture": err.Error()}, nil
		}
		return form, nil, nil, err
	}
	return form, &Image{Filename: fh.Filename, ContentType: ct, Data: data}, nil, nil
}

func (h *Handler) invalid(c *gin.Context, err error) bool {
	var fields FieldErrors
	if errors.As(err, &fields) {
		response.Invalid(c, fields)
		return true
	}
	return false
}

// Create handles POST /api/organizer/events.
func (h *Handler) Create(c *gin.Context) {
	form, img, imgFields, err := bindForm(c)
	if err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if imgFields != nil {
		response.Invalid(c, imgFields)
		return
	}
	err = h.console.Create(c.Request.Context(), middleware.Credentials(c), form, img)
	if h.invalid(c, err) {
		return
	}
	if err != nil {
		h.logger.Info("create event failed", zap.Error(err))
		response.BackendError(c, err, "Error", failure(err, "Provide Valid Data: %d", "Error creating event."))
		return
	}
	c.JSON(http.StatusCreated, response.Body{
		Success: true,
		Toast:   &response.Toast{Title: "Event created!", Description: "Your event has been published."},
	})
}

// Open handles GET /api/organizer/events/:id.
func (h *Handler) Open(c *gin.Context) {
	e, err := h.console.Open(c.Request.Context(), middleware.Identity(c), middleware.Credentials(c), c.Param("id"))
	if errors.Is(err, ErrEventNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		response.BackendError(c, err, "Error", failure(err, "Failed to fetch events: %d", "Error fetching events."))
		return
	}
	response.OK(c, e)
}

// Close handles DELETE /api/organizer/detail.
func (h *Handler) Close(c *gin.Context) {
	if err := h.console.Close(c.Request.Context(), middleware.Identity(c)); err != nil {
		h.logger.Error("close detail failed", zap.Error(err))
		response.Internal(c, "could not update view state")
		return
	}
	response.NoContent(c)
}

// Edit handles GET /api/organizer/events/:id/form.
func (h *Handler) Edit(c *gin.Context) {
	form, err := h.console.Edit(c.Request.Context(), middleware.Identity(c), middleware.Credentials(c), c.Param("id"))
	switch {
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrAlreadyCompleted):
		response.Conflict(c, err.Error())
	case err != nil:
		response.BackendError(c, err, "Error", failure(err, "Failed to fetch events: %d", "Error fetching events."))
	default:
		response.OK(c, form)
	}
}

func (h *Handler) requestFailed(c *gin.Context, err error) {
	if h.invalid(c, err) {
		return
	}
	switch {
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrAlreadyCompleted):
		response.Failed(c, http.StatusConflict, "Event already completed", "This event has already been marked as completed.")
	case errors.Is(err, ErrUnknownAction):
		response.BadRequest(c, err.Error())
	default:
		response.BackendError(c, err, "Error", failure(err, "Failed to fetch events: %d", "Error fetching events."))
	}
}

// RequestUpdate handles PUT /api/organizer/events/:id. The edit is held until confirmed.
func (h *Handler) RequestUpdate(c *gin.Context) {
	form, img, imgFields, err := bindForm(c)
	if err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if imgFields != nil {
		response.Invalid(c, imgFields)
		return
	}
	p, err := h.console.Request(c.Request.Context(), middleware.Identity(c), middleware.Credentials(c), ActionUpdate, c.Param("id"), &form, img)
	if err != nil {
		h.requestFailed(c, err)
		return
	}
	response.OK(c, p)
}

// ActionRequest is the body for POST /api/organizer/events/:id/actions.
type ActionRequest struct {
	Kind ActionKind `json:"kind" binding:"required"`
}

// RequestAction handles POST /api/organizer/events/:id/actions for delete and complete.
func (h *Handler) RequestAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Kind == ActionUpdate {
		response.BadRequest(c, "updates are requested with PUT /api/organizer/events/:id")
		return
	}
	p, err := h.console.Request(c.Request.Context(), middleware.Identity(c), middleware.Credentials(c), req.Kind, c.Param("id"), nil, nil)
	if err != nil {
		h.requestFailed(c, err)
		return
	}
	response.OK(c, p)
}

type actionToasts struct {
	success, successDesc string
	failTitle            string
	statusFormat         string
	network              string
}

var toasts = map[ActionKind]actionToasts{
	ActionUpdate: {
		success: "Event updated!", successDesc: "Your event was updated successfully.",
		failTitle: "Update failed", statusFormat: "Could not update the event.",
		network: "An error occurred while updating the event.",
	},
	ActionDelete: {
		success: "Event deleted", successDesc: "The event has been removed successfully.",
		failTitle: "Delete failed", statusFormat: "Failed to delete event: %d",
		network: "An error occurred while deleting the event.",
	},
	ActionComplete: {
		success: "Event completed", successDesc: "The event has been marked as completed.",
		failTitle: "Completion failed", statusFormat: "Failed to complete event: %d",
		network: "An error occurred while completing the event.",
	},
}

// Confirm handles POST /api/organizer/pending/confirm.
func (h *Handler) Confirm(c *gin.Context) {
	out, err := h.console.Confirm(c.Request.Context(), middleware.Identity(c), middleware.Credentials(c))
	if errors.Is(err, ErrNoPendingAction) {
		response.Conflict(c, err.Error())
		return
	}
	if err != nil && out == nil {
		response.Internal(c, "could not load console state")
		return
	}
	t := toasts[out.Kind]
	if err != nil {
		h.logger.Info("organizer action failed", zap.String("kind", string(out.Kind)), zap.String("event_id", out.EventID), zap.Error(err))
		fallback := t.network
		if status := backend.StatusOf(err); status != 0 {
			fallback = t.statusFormat
			if out.Kind != ActionUpdate {
				fallback = fmt.Sprintf(t.statusFormat, status)
			}
		}
		response.BackendError(c, err, t.failTitle, fallback)
		return
	}
	response.OKWithToast(c, out, t.success, t.successDesc)
}

// Cancel handles DELETE /api/organizer/pending.
func (h *Handler) Cancel(c *gin.Context) {
	if err := h.console.Cancel(c.Request.Context(), middleware.Identity(c)); err != nil {
		h.logger.Error("cancel pending action failed", zap.Error(err))
		response.Internal(c, "could not update view state")
		return
	}
	response.NoContent(c)
}

// Attendance handles GET /api/organizer/events/:id/attendance.
func (h *Handler) Attendance(c *gin.Context) {
	view, err := h.console.Attendance(c.Request.Context(), middleware.Identity(c), middleware.Credentials(c), c.Param("id"))
	if err != nil {
		h.logger.Info("load attendance failed", zap.String("event_id", c.Param("id")), zap.Error(err))
		response.BackendError(c, err, "Error", failure(err, "Failed to load attendance (%d)", "Something went wrong."))
		return
	}
	response.OK(c, view)
}

// Participants handles GET /api/organizer/events/:id/participants.
func (h *Handler) Participants(c *gin.Context) {
	list, err := h.console.Participants(c.Request.Context(), middleware.Identity(c), middleware.Credentials(c), c.Param("id"))
	if errors.Is(err, ErrEventNotFound) {
		response.Failed(c, http.StatusNotFound, "Error", "No participants to show.")
		return
	}
	if err != nil {
		response.BackendError(c, err, "Error", failure(err, "Failed to fetch events: %d", "Error fetching events."))
		return
	}
	response.OK(c, list)
}

// Participant handles GET /api/participants/:username.
func (h *Handler) Participant(c *gin.Context) {
	p, err := h.console.Participant(c.Request.Context(), middleware.Credentials(c), c.Param("username"))
	if err != nil {
		h.logger.Info("load participant failed", zap.String("username", c.Param("username")), zap.Error(err))
		response.BackendError(c, err, "Error", failure(err, "Failed to load participant (%d)", "Something went wrong."))
		return
	}
	response.OK(c, p)
}

// RegisterRoutes mounts the participant routes on pr and the organizer routes on or.
func (h *Handler) RegisterRoutes(pr, or *gin.RouterGroup) {
	pr.GET("/events/explore", h.Explore)
	pr.GET("/events/participated", h.Participated)
	pr.POST("/events/:id/join", h.Join)
	pr.GET("/participants/:username", h.Participant)

	or.GET("/events", h.Console)
	or.POST("/events", h.Create)
	or.GET("/events/:id", h.Open)
	or.GET("/events/:id/form", h.Edit)
	or.PUT("/events/:id", h.RequestUpdate)
	or.POST("/events/:id/actions", h.RequestAction)
	or.GET("/events/:id/attendance", h.Attendance)
	or.GET("/events/:id/participants", h.Participants)
	or.DELETE("/detail", h.Close)
	or.POST("/pending/confirm", h.Confirm)
	or.DELETE("/pending", h.Cancel)
}
