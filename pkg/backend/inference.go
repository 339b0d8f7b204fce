package backend

import (
	"context"
	"net/http"

	"github.com/treeplant/web/internal/models"
)

// DetectDisease classifies a leaf image. The form carries the image part.
func (c *Client) DetectDisease(ctx context.Context, form *Form) (*models.Detection, error) {
	var d models.Detection
	if err := c.call(ctx, "detect disease", http.MethodPost, "/detection/detect/", nil, form, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// RecommendPlants asks for plants suited to a location.
func (c *Client) RecommendPlants(ctx context.Context, location string) (*models.RecommendationSet, error) {
	var set models.RecommendationSet
	body := JSON(map[string]string{"location": location})
	if err := c.call(ctx, "recommend plants", http.MethodPost, "/recommendation/recommend-plants/", nil, body, &set); err != nil {
		return nil, err
	}
	return &set, nil
}
