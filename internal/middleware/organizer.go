package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/pkg/backend"
	"github.com/treeplant/web/pkg/response"
)

// ContextOrganizer is the key for the caller's *models.OrganizerProfile.
const ContextOrganizer = "organizer"

// ErrCodeOrganizerProfileRequired tells the browser to show the organizer profile form.
const ErrCodeOrganizerProfileRequired = "organizer_profile_required"

// OrganizerLookup fetches the caller's organizer profile.
type OrganizerLookup interface {
	MyOrganizer(ctx context.Context, creds []*http.Cookie) (*models.OrganizerProfile, error)
}

// RequireOrganizer admits only callers with an organizer profile. A backend 404
// is reported as 403 organizer_profile_required. Must run after AuthGate.
func RequireOrganizer(lookup OrganizerLookup, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		profile, err := lookup.MyOrganizer(c.Request.Context(), Credentials(c))
		if err != nil {
			if backend.IsNotFound(err) {
				response.Forbidden(c, ErrCodeOrganizerProfileRequired)
				c.Abort()
				return
			}
			logger.Warn("organizer profile lookup failed", zap.Error(err))
			response.BackendError(c, err, "Error", "Failed to load organizer profile")
			c.Abort()
			return
		}
		c.Set(ContextOrganizer, profile)
		c.Next()
	}
}

// Organizer returns the profile set by RequireOrganizer, or nil.
func Organizer(c *gin.Context) *models.OrganizerProfile {
	if v, ok := c.Get(ContextOrganizer); ok {
		p, _ := v.(*models.OrganizerProfile)
		return p
	}
	return nil
}
