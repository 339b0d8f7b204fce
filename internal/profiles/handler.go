package profiles

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

// Handler serves the profile endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a profile handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// picture reads an optional image upload. Bad images come back as field errors.
func picture(c *gin.Context, field string) (*Picture, map[string]string, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil, nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil, nil
	}
	data, ct, err := storage.ReadUpload(fh)
	if err != nil {
		if errors.Is(err, storage.ErrNotImage) || errors.Is(err, storage.ErrImageTooLarge) {
			return nil, map[string]string{field: err.Error()}, nil
		}
		return nil, nil, err
	}
	return &Picture{Filename: fh.Filename, ContentType: ct, Data: data}, nil, nil
}

func (h *Handler) rejected(c *gin.Context, err error) bool {
	var fields FieldErrors
	switch {
	case errors.As(err, &fields):
		response.Invalid(c, fields)
	case errors.Is(err, ErrNoChanges):
		c.JSON(http.StatusUnprocessableEntity, response.Body{
			Success: false,
			Error:   err.Error(),
			Toast:   &response.Toast{Title: "No changes", Description: err.Error()},
		})
	default:
		return false
	}
	return true
}

// Personal handles GET /api/profile.
func (h *Handler) Personal(c *gin.Context) {
	p, err := h.svc.Personal(c.Request.Context(), middleware.Credentials(c))
	if err != nil {
		h.logger.Info("load profile failed", zap.Error(err))
		fallback := "Error fetching profile data."
		if backend.StatusOf(err) != 0 {
			fallback = "Failed to fetch profile data."
		}
		response.BackendError(c, err, "Error", fallback)
		return
	}
	response.OK(c, p)
}

// UpdatePersonal handles PUT /api/profile. The picture is the optional file "profile_picture".
func (h *Handler) UpdatePersonal(c *gin.Context) {
	var form PersonalForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pic, picFields, err := picture(c, "profile_picture")
	if err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if picFields != nil {
		response.Invalid(c, picFields)
		return
	}
	changes, err := h.svc.UpdatePersonal(c.Request.Context(), middleware.Credentials(c), form, pic)
	if h.rejected(c, err) {
		return
	}
	if err != nil {
		h.logger.Info("update profile failed", zap.Strings("fields", changes.Keys()), zap.Error(err))
		response.BackendError(c, err, "Update failed", "Could not update your profile.")
		return
	}
	response.OKWithToast(c, gin.H{"updated": changes.Keys()}, "Profile updated!", "Your personal profile was updated successfully.")
}

// Organizer handles GET /api/profile/organizer. A missing profile is reported as
// 404 organizer_profile_required so the browser can show the create form.
func (h *Handler) Organizer(c *gin.Context) {
	p, err := h.svc.Organizer(c.Request.Context(), middleware.Credentials(c))
	if backend.IsNotFound(err) {
		response.NotFound(c, middleware.ErrCodeOrganizerProfileRequired)
		return
	}
	if err != nil {
		h.logger.Info("load organizer profile failed", zap.Error(err))
		response.BackendError(c, err, "Error", "Failed to fetch organization profile.")
		return
	}
	response.OK(c, p)
}

// CreateOrganizer handles POST /api/profile/organizer. The picture is the optional file "org_picture".
func (h *Handler) CreateOrganizer(c *gin.Context) {
	var form OrganizerForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pic, picFields, err := picture(c, "org_picture")
	if err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if picFields != nil {
		response.Invalid(c, picFields)
		return
	}
	p, err := h.svc.CreateOrganizer(c.Request.Context(), middleware.Credentials(c), form, pic)
	if h.rejected(c, err) {
		return
	}
	if err != nil {
		h.logger.Info("create organizer profile failed", zap.Error(err))
		fallback := "Error saving organizer profile."
		if status := backend.StatusOf(err); status != 0 {
			fallback = fmt.Sprintf("Failed to save organizer profile: %d", status)
		}
		response.BackendError(c, err, "Error", fallback)
		return
	}
	c.JSON(http.StatusCreated, response.Body{
		Success: true,
		Data:    p,
		Toast:   &response.Toast{Title: "Organization profile created!", Description: "You can now organize events."},
	})
}

// UpdateOrganizer handles PUT /api/profile/organizer.
func (h *Handler) UpdateOrganizer(c *gin.Context) {
	var form OrganizerForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pic, picFields, err := picture(c, "org_picture")
	if err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if picFields != nil {
		response.Invalid(c, picFields)
		return
	}
	changes, err := h.svc.UpdateOrganizer(c.Request.Context(), middleware.Credentials(c), form, pic)
	if h.rejected(c, err) {
		return
	}
	if err != nil {
		h.logger.Info("update organizer profile failed", zap.Strings("fields", changes.Keys()), zap.Error(err))
		fallback := "An error occurred while updating."
		if backend.StatusOf(err) != 0 {
			fallback = "Could not update your organization profile."
		}
		response.BackendError(c, err, "Update failed", fallback)
		return
	}
	response.OKWithToast(c, gin.H{"updated": changes.Keys()}, "Organization profile updated!", "Your organization profile was updated successfully.")
}

// RegisterRoutes mounts the profile routes on rg (signed-in users).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.Personal)
	rg.PUT("/profile", h.UpdatePersonal)
	rg.GET("/profile/organizer", h.Organizer)
	rg.POST("/profile/organizer", h.CreateOrganizer)
	rg.PUT("/profile/organizer", h.UpdateOrganizer)
}
