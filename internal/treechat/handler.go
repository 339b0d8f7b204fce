package treechat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/treeplant/web/internal/middleware"
	"github.com/treeplant/web/pkg/response"
	"github.com/treeplant/web/pkg/storage"
)

const restlessSpirits = "Something went wrong. The forest spirits seem restless today."

// Handler serves the talk-with-a-tree endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a tree chat handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func userKey(c *gin.Context) string {
	id := middleware.Identity(c)
	if id.UserID != "" {
		return id.UserID
	}
	return "u:" + id.Username
}

// UploadPortrait handles POST /api/tree/portrait with the multipart file "portrait".
func (h *Handler) UploadPortrait(c *gin.Context) {
	fh, err := c.FormFile("portrait")
	if err != nil {
		response.Invalid(c, map[string]string{"portrait": storage.ErrNotImage.Error()})
		return
	}
	data, ct, err := storage.ReadUpload(fh)
	if errors.Is(err, storage.ErrNotImage) || errors.Is(err, storage.ErrImageTooLarge) {
		response.Invalid(c, map[string]string{"portrait": err.Error()})
		return
	}
	if err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	_, ext, _ := storage.DetectImage(data)
	v, err := h.svc.SavePortrait(c.Request.Context(), userKey(c), data, ct, ext)
	if err != nil {
		h.logger.Error("save tree portrait failed", zap.Error(err))
		response.Failed(c, http.StatusInternalServerError, "Error", restlessSpirits)
		return
	}
	response.Created(c, v)
}

// Portrait handles GET /api/tree/portrait.
func (h *Handler) Portrait(c *gin.Context) {
	v, err := h.svc.Portrait(c.Request.Context(), userKey(c))
	if errors.Is(err, ErrPortraitRequired) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("load tree portrait failed", zap.Error(err))
		response.Internal(c, restlessSpirits)
		return
	}
	response.OK(c, v)
}

// TalkRequest is one recognized utterance.
type TalkRequest struct {
	Language Language `json:"language"`
	Text     string   `json:"text"`
}

// Talk handles POST /api/tree/talk.
func (h *Handler) Talk(c *gin.Context) {
	var req TalkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reply, err := h.svc.Talk(c.Request.Context(), userKey(c), req.Language, req.Text)
	switch {
	case errors.Is(err, ErrPortraitRequired):
		response.Failed(c, http.StatusConflict, "Upload a tree", err.Error())
		return
	case errors.Is(err, ErrUnknownLanguage):
		response.Invalid(c, map[string]string{"language": "Choose English or Hindi"})
		return
	case err != nil:
		h.logger.Error("tree chat failed", zap.Error(err))
		response.Failed(c, http.StatusInternalServerError, "Error", restlessSpirits)
		return
	}
	response.OK(c, reply)
}

// History handles GET /api/tree/history.
func (h *Handler) History(c *gin.Context) {
	turns, err := h.svc.History(c.Request.Context(), userKey(c))
	if err != nil {
		h.logger.Error("load tree chat history failed", zap.Error(err))
		response.Internal(c, restlessSpirits)
		return
	}
	response.OK(c, turns)
}

// Reset handles DELETE /api/tree/history.
func (h *Handler) Reset(c *gin.Context) {
	if err := h.svc.Reset(c.Request.Context(), userKey(c)); err != nil {
		h.logger.Error("reset tree chat failed", zap.Error(err))
		response.Internal(c, restlessSpirits)
		return
	}
	response.NoContent(c)
}

// RegisterRoutes mounts the tree chat routes on rg (signed-in users).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/tree")
	g.POST("/portrait", h.UploadPortrait)
	g.GET("/portrait", h.Portrait)
	g.POST("/talk", h.Talk)
	g.GET("/history", h.History)
	g.DELETE("/history", h.Reset)
}
