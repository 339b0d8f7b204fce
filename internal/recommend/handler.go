package recommend

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/pkg/backend"
	"github.com/treeplant/web/pkg/response"
)

// Recommender is the backend call this page needs.
type Recommender interface {
	RecommendPlants(ctx context.Context, location string) (*models.RecommendationSet, error)
}

// Request is the body for POST /api/recommendations.
type Request struct {
	Location string `json:"location"`
	Page     int    `json:"page"`
}

// Result is one page of recommendations.
type Result struct {
	Location        string                  `json:"location"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Page            int                     `json:"page"`
	TotalPages      int                     `json:"total_pages"`
	Total           int                     `json:"total"`
}

// Handler handles recommendation endpoints.
type Handler struct {
	backend Recommender
	logger  *zap.Logger
}

// NewHandler creates a recommendation handler.
func NewHandler(b Recommender, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{backend: b, logger: logger}
}

// Popular handles GET /api/recommendations/popular.
func (h *Handler) Popular(c *gin.Context) {
	response.OK(c, Popular)
}

// Recommend handles POST /api/recommendations.
func (h *Handler) Recommend(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		response.Invalid(c, map[string]string{"location": "Please enter a location."})
		return
	}
	if p, err := strconv.Atoi(c.Query("page")); err == nil && req.Page == 0 {
		req.Page = p
	}
	if req.Page < 1 {
		req.Page = 1
	}

	set, err := h.backend.RecommendPlants(c.Request.Context(), location)
	if err != nil {
		h.logger.Warn("recommend plants failed", zap.String("location", location), zap.Error(err))
		fallback := "Something went wrong."
		if status := backend.StatusOf(err); status != 0 {
			fallback = fmt.Sprintf("Request failed (%d)", status)
		}
		response.BackendError(c, err, "Could not fetch recommendations", fallback)
		return
	}
	if set.Location == "" {
		set.Location = location
	}
	response.OK(c, Result{
		Location:        set.Location,
		Recommendations: Page(set.Recommendations, req.Page),
		Page:            req.Page,
		TotalPages:      TotalPages(len(set.Recommendations)),
		Total:           len(set.Recommendations),
	})
}
