// Package sessionlog records how long capture sessions held the camera.
package sessionlog

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/treeplant/web/pkg/response"
)

// Lister lists logged sessions for an event.
type Lister interface {
	ListByEvent(ctx context.Context, eventID string) ([]SessionRow, error)
}

// Handler handles GET /attendance/:eventId/sessions.
type Handler struct {
	repo   Lister
	logger *zap.Logger
}

// NewHandler creates a session log handler.
func NewHandler(repo Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListByEvent handles GET /api/attendance/:eventId/sessions (organizer: camera sessions with open time).
func (h *Handler) ListByEvent(c *gin.Context) {
	list, err := h.repo.ListByEvent(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		h.logger.Error("list capture sessions failed", zap.Error(err))
		response.Internal(c, "failed to list capture sessions")
		return
	}
	response.OK(c, gin.H{"sessions": list})
}
