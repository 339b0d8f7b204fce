package backend

import (
	"context"
	"net/http"

	"github.com/treeplant/web/internal/models"
)

// LoginResult carries the user plus the session cookies the backend issued.
type LoginResult struct {
	User    *models.User
	Cookies []*http.Cookie
}

// AuthStatus asks the backend whether the forwarded cookies form a valid session.
func (c *Client) AuthStatus(ctx context.Context, creds []*http.Cookie) (*models.AuthStatus, error) {
	var st models.AuthStatus
	if err := c.call(ctx, "auth status", http.MethodGet, "/api/auth-status", creds, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Login posts credentials and returns the issued session cookies.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	const op = "login"
	resp, err := c.send(ctx, op, http.MethodPost, "/api/login/", nil, JSON(map[string]string{
		"username": username,
		"password": password,
	}))
	if err != nil {
		return nil, err
	}
	var body struct {
		User *models.User `json:"user"`
	}
	if err := decode(op, resp, &body); err != nil {
		return nil, err
	}
	return &LoginResult{User: body.User, Cookies: resp.cookies}, nil
}

// Register creates an account from a multipart registration form.
func (c *Client) Register(ctx context.Context, form *Form) (*models.User, error) {
	var body struct {
		User *models.User `json:"user"`
	}
	if err := c.call(ctx, "register", http.MethodPost, "/api/register/", nil, form, &body); err != nil {
		return nil, err
	}
	return body.User, nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context, creds []*http.Cookie) error {
	return c.call(ctx, "logout", http.MethodPost, "/api/logout/", creds, nil, nil)
}
