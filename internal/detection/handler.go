package detection

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/pkg/backend"
	"github.com/treeplant/web/pkg/response"
	"github.com/treeplant/web/pkg/storage"
)

// Detector is the backend call this page needs.
type Detector interface {
	DetectDisease(ctx context.Context, form *backend.Form) (*models.Detection, error)
}

// Handler handles disease detection endpoints.
type Handler struct {
	backend Detector
	logger  *zap.Logger
}

// NewHandler creates a detection handler.
func NewHandler(b Detector, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{backend: b, logger: logger}
}

// Enrich attaches local guidance to a detection when the label is known.
func Enrich(d models.Detection) models.DiseaseReport {
	r := models.DiseaseReport{Detection: d}
	if g, ok := Lookup(d.DiseaseName); ok {
		r.Cause = g.Cause
		r.Cure = g.Cure
	}
	return r
}

// Detect handles POST /api/detection (multipart field "image").
func (h *Handler) Detect(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		response.Invalid(c, map[string]string{"image": "Please select an image to analyze"})
		return
	}
	data, contentType, err := storage.ReadUpload(fh)
	if err != nil {
		msg := storage.ErrNotImage.Error()
		if errors.Is(err, storage.ErrImageTooLarge) {
			msg = err.Error()
		}
		response.Invalid(c, map[string]string{"image": msg})
		return
	}

	form := backend.NewForm().File("image", fh.Filename, contentType, data)
	d, err := h.backend.DetectDisease(c.Request.Context(), form)
	if err != nil {
		h.logger.Warn("disease detection failed", zap.Error(err))
		response.BackendError(c, err, "Detection Failed", "Failed to analyze the image. Please try again.")
		return
	}
	c.JSON(http.StatusOK, response.Body{Success: true, Data: Enrich(*d)})
}
