package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/treeplant/web/internal/auth"
	"github.com/treeplant/web/internal/models"
	"github.com/treeplant/web/pkg/response"
)

const (
	// ContextIdentity is the key for the signed-in auth.Identity in gin context.
	ContextIdentity = "identity"
	// ContextCredentials is the key for the backend cookies to forward.
	ContextCredentials = "credentials"
)

// StatusChecker asks the backend whether a cookie set is a live session.
type StatusChecker interface {
	AuthStatus(ctx context.Context, creds []*http.Cookie) (*models.AuthStatus, error)
}

// AuthGate admits requests with a valid session. The signed session cookie is
// the fast path; on a miss the backend is asked and a fresh token is minted.
// Browsers asking for HTML are redirected to /login; API callers get 401.
func AuthGate(sessions *auth.Sessions, checker StatusChecker, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		creds := sessions.Credentials(c.Request)
		c.Set(ContextCredentials, creds)

		if claims, ok := sessions.Resolve(c.Request); ok {
			c.Set(ContextIdentity, claims.Identity())
			c.Next()
			return
		}

		st, err := checker.AuthStatus(c.Request.Context(), creds)
		if err != nil {
			logger.Warn("auth status check failed", zap.Error(err))
		}
		if err != nil || st == nil || !st.IsAuthenticated || st.User == nil {
			deny(c)
			return
		}

		id := auth.Identity{UserID: st.User.ID.String(), Username: st.User.Username}
		if err := sessions.Issue(c, id, creds); err != nil {
			logger.Error("issue session token failed", zap.Error(err))
		}
		c.Set(ContextIdentity, id)
		c.Next()
	}
}

func deny(c *gin.Context) {
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	response.Unauthorized(c, "authentication required")
	c.Abort()
}

// Identity returns the signed-in user set by AuthGate.
func Identity(c *gin.Context) auth.Identity {
	if v, ok := c.Get(ContextIdentity); ok {
		if id, ok := v.(auth.Identity); ok {
			return id
		}
	}
	return auth.Identity{}
}

// Credentials returns the backend cookies set by AuthGate.
func Credentials(c *gin.Context) []*http.Cookie {
	if v, ok := c.Get(ContextCredentials); ok {
		if creds, ok := v.([]*http.Cookie); ok {
			return creds
		}
	}
	return nil
}
