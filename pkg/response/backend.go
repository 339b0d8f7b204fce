package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/treeplant/web/pkg/backend"
)

// BackendError converts a failed backend call into a destructive toast.
// The description is the backend's JSON message when present, else fallback.
func BackendError(c *gin.Context, err error, title, fallback string) {
	status := http.StatusBadGateway
	var be *backend.Error
	if errors.As(err, &be) && be.Kind == backend.KindStatus && be.StatusCode >= 400 && be.StatusCode < 500 {
		status = be.StatusCode
	}
	if status == http.StatusUnauthorized {
		c.JSON(status, Body{
			Success:  false,
			Error:    backend.Message(err, fallback),
			Redirect: "/login",
			Toast:    &Toast{Title: title, Description: backend.Message(err, fallback), Variant: ToastDestructive},
		})
		return
	}
	Failed(c, status, title, backend.Message(err, fallback))
}
