package auth

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/internal/validation"
	"github.com/treeplant/web/pkg/backend"
	"github.com/treeplant/web/pkg/response"
	"github.com/treeplant/web/pkg/storage"
)

var nonDigits = regexp.MustCompile(`\D`)

// Backend is the subset of the backend client used for session lifecycle.
type Backend interface {
	Login(ctx context.Context, username, password string) (*backend.LoginResult, error)
	Register(ctx context.Context, form *backend.Form) (*models.User, error)
	Logout(ctx context.Context, creds []*http.Cookie) error
	AuthStatus(ctx context.Context, creds []*http.Cookie) (*models.AuthStatus, error)
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" validate:"required,min=3" msg:"required=Email or username is required;min=Please enter a valid email or username"`
	Password        string `json:"password" validate:"required,min=6" msg:"required=Password is required;min=Password must be at least 6 characters"`
}

// RegisterRequest is the multipart body for POST /api/auth/register.
type RegisterRequest struct {
	FirstName       string `form:"first_name" validate:"required" msg:"required=First name is required"`
	LastName        string `form:"last_name" validate:"required" msg:"required=Last name is required"`
	Username        string `form:"username" validate:"required,min=3,username" msg:"required=Username is required;min=Username must be at least 3 characters;username=Username can only contain letters, numbers, and underscores"`
	Email           string `form:"email" validate:"required,email" msg:"required=Email is required;email=Please enter a valid email"`
	Mobile          string `form:"mobile" validate:"required,mindigits" msg:"required=Mobile number is required;mindigits=Please enter a valid mobile number (min 6 digits)"`
	City            string `form:"city" validate:"required" msg:"required=City is required"`
	Password        string `form:"password" validate:"required,min=6" msg:"required=Password is required;min=Password must be at least 6 characters"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password" msg:"required=Please confirm your password;eqfield=Passwords do not match"`
	About           string `form:"about" validate:"required" msg:"required=About is required"`
	AgreeToTerms    bool   `form:"agreeToTerms" validate:"required" msg:"required=You must agree to the terms and conditions"`
}

func (r *RegisterRequest) trim() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.City = strings.TrimSpace(r.City)
	r.About = strings.TrimSpace(r.About)
}

// Handler handles session lifecycle endpoints.
type Handler struct {
	backend  Backend
	sessions *Sessions
	validate *validation.Validator
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(b Backend, sessions *Sessions, v *validation.Validator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{backend: b, sessions: sessions, validate: v, logger: logger}
}

func networkFallback(err error, fallback string) string {
	var be *backend.Error
	if errors.As(err, &be) && be.Kind == backend.KindTransport {
		return "Network error occurred"
	}
	return fallback
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	req.EmailOrUsername = strings.TrimSpace(req.EmailOrUsername)
	if fields := h.validate.Struct(&req); fields != nil {
		response.Invalid(c, fields)
		return
	}

	res, err := h.backend.Login(c.Request.Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		h.logger.Info("login rejected", zap.String("user", req.EmailOrUsername), zap.Error(err))
		response.BackendError(c, err, "Login failed", networkFallback(err, "Login failed"))
		return
	}

	id := Identity{Username: req.EmailOrUsername}
	if res.User != nil {
		id = Identity{UserID: res.User.ID.String(), Username: res.User.Username}
	}
	Relay(c, res.Cookies)
	if err := h.sessions.Issue(c, id, res.Cookies); err != nil {
		h.logger.Error("issue session token failed", zap.Error(err))
	}
	response.OKWithToast(c, gin.H{"user": res.User, "redirect": "/"}, "Welcome back!", "You have signed in successfully.")
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	req.trim()
	fields := h.validate.Struct(&req)

	var photo []byte
	var photoType, photoName string
	if fh, err := c.FormFile("profile_picture"); err != nil {
		fields = validation.Merge(fields, map[string]string{"profilePhoto": "Profile picture is required"})
	} else {
		photoName = fh.Filename
		photo, photoType, err = storage.ReadUpload(fh)
		if err != nil {
			fields = validation.Merge(fields, map[string]string{"profilePhoto": err.Error()})
		}
	}
	if len(fields) > 0 {
		response.Invalid(c, fields)
		return
	}

	form := backend.NewForm().
		Set("username", req.Username).
		Set("password", req.Password).
		Set("email", req.Email).
		Set("city", req.City).
		Set("mobile", nonDigits.ReplaceAllString(req.Mobile, "")).
		Set("first_name", req.FirstName).
		Set("last_name", req.LastName).
		Set("about", req.About).
		File("profile_picture", photoName, photoType, photo)

	user, err := h.backend.Register(c.Request.Context(), form)
	if err != nil {
		h.logger.Info("registration rejected", zap.String("username", req.Username), zap.Error(err))
		fallback := "Registration failed. Please try again."
		var be *backend.Error
		if errors.As(err, &be) && be.Kind == backend.KindTransport {
			fallback = "Network error. Please check your connection and try again."
		}
		response.BackendError(c, err, "Registration failed", fallback)
		return
	}
	c.JSON(http.StatusCreated, response.Body{
		Success: true,
		Data:    gin.H{"user": user, "redirect": "/login"},
		Toast:   &response.Toast{Title: "Registration successful", Description: "Your account has been created. Please sign in."},
	})
}

// Logout handles POST /api/auth/logout. Cookies are cleared even when the backend call fails.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.backend.Logout(ctx, h.sessions.Credentials(c.Request)); err != nil {
		h.logger.Warn("backend logout failed", zap.Error(err))
	}
	if err := h.sessions.Revoke(ctx, c.Request); err != nil {
		h.logger.Warn("revoke session failed", zap.Error(err))
	}
	h.sessions.ClearAll(c)
	response.OK(c, gin.H{"redirect": "/"})
}

// Status handles GET /api/auth/status. It never fails: any error reads as signed out.
func (h *Handler) Status(c *gin.Context) {
	if claims, ok := h.sessions.Resolve(c.Request); ok {
		id := claims.Identity()
		response.OK(c, gin.H{"is_authenticated": true, "user": id})
		return
	}
	creds := h.sessions.Credentials(c.Request)
	st, err := h.backend.AuthStatus(c.Request.Context(), creds)
	if err != nil || !st.IsAuthenticated || st.User == nil {
		if err != nil {
			h.logger.Warn("auth status check failed", zap.Error(err))
		}
		response.OK(c, gin.H{"is_authenticated": false})
		return
	}
	id := Identity{UserID: st.User.ID.String(), Username: st.User.Username}
	if err := h.sessions.Issue(c, id, creds); err != nil {
		h.logger.Error("issue session token failed", zap.Error(err))
	}
	response.OK(c, gin.H{"is_authenticated": true, "user": id})
}
