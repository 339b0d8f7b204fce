package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Toast variants understood by the browser shell.
const (
	ToastDefault     = "default"
	ToastDestructive = "destructive"
)

// Toast is a transient notification shown by the browser shell.
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant,omitempty"`
}

// Body is the standard API response envelope.
type Body struct {
	Success  bool              `json:"success"`
	Data     interface{}       `json:"data,omitempty"`
	Error    string            `json:"error,omitempty"`
	Toast    *Toast            `json:"toast,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// OKWithToast sends a 200 JSON response with data and a success toast.
func OKWithToast(c *gin.Context, data interface{}, title, description string) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data, Toast: &Toast{Title: title, Description: description, Variant: ToastDefault}})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401 pointing the browser at the login page.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err, Redirect: "/login"})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err})
}

// Invalid sends 422 with per-field validation messages. No backend call was made.
func Invalid(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, Body{
		Success: false,
		Error:   "validation failed",
		Fields:  fields,
		Toast:   &Toast{Title: "Validation Error", Description: "Please fix the highlighted fields.", Variant: ToastDestructive},
	})
}

// Failed reports a failed backend call as a destructive toast.
func Failed(c *gin.Context, status int, title, description string) {
	c.JSON(status, Body{
		Success: false,
		Error:   description,
		Toast:   &Toast{Title: title, Description: description, Variant: ToastDestructive},
	})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}
