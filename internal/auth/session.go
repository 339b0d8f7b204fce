package auth

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/treeplant/web/pkg/utils"
)

// Sessions manages the signed session cookie that fronts the backend session.
type Sessions struct {
	jwt        *JWTService
	revoked    *Revocations
	cookieName string
	secure     bool
}

// NewSessions creates a session manager. revoked may be nil.
func NewSessions(jwt *JWTService, revoked *Revocations, cookieName string, secure bool) *Sessions {
	return &Sessions{jwt: jwt, revoked: revoked, cookieName: cookieName, secure: secure}
}

// CookieName returns the name of the signed session cookie.
func (s *Sessions) CookieName() string { return s.cookieName }

// Credentials returns the browser cookies to forward to the backend: every
// cookie except our own session token.
func (s *Sessions) Credentials(r *http.Request) []*http.Cookie {
	var out []*http.Cookie
	for _, ck := range r.Cookies() {
		if ck.Name != s.cookieName {
			out = append(out, ck)
		}
	}
	return out
}

// CredHash fingerprints a cookie set independent of order.
func CredHash(creds []*http.Cookie) string {
	pairs := make([]string, 0, len(creds))
	for _, ck := range creds {
		pairs = append(pairs, ck.Name+"="+ck.Value)
	}
	sort.Strings(pairs)
	return utils.HashKey(strings.Join(pairs, ";"))
}

// Resolve returns the claims of a valid, unrevoked session token that was
// minted for the request's current backend cookies.
func (s *Sessions) Resolve(r *http.Request) (*Claims, bool) {
	ck, err := r.Cookie(s.cookieName)
	if err != nil || ck.Value == "" {
		return nil, false
	}
	claims, err := s.jwt.Validate(ck.Value)
	if err != nil {
		return nil, false
	}
	if claims.CredHash != CredHash(s.Credentials(r)) {
		return nil, false
	}
	if s.revoked != nil && s.revoked.IsRevoked(r.Context(), claims.ID) {
		return nil, false
	}
	return claims, true
}

// Issue mints a session token for id and sets it as an HTTP-only cookie.
func (s *Sessions) Issue(c *gin.Context, id Identity, creds []*http.Cookie) error {
	token, err := s.jwt.Generate(id, CredHash(creds))
	if err != nil {
		return err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.jwt.TTL() / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Revoke invalidates the request's session token, if any.
func (s *Sessions) Revoke(ctx context.Context, r *http.Request) error {
	if s.revoked == nil {
		return nil
	}
	ck, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil
	}
	claims, err := s.jwt.Validate(ck.Value)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoked.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// ClearAll expires every cookie the browser sent plus the session cookie.
func (s *Sessions) ClearAll(c *gin.Context) {
	seen := map[string]bool{s.cookieName: true}
	expire := func(name string) {
		http.SetCookie(c.Writer, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, Expires: time.Unix(0, 0)})
	}
	expire(s.cookieName)
	for _, ck := range c.Request.Cookies() {
		if !seen[ck.Name] {
			seen[ck.Name] = true
			expire(ck.Name)
		}
	}
}

// Relay copies backend-issued cookies onto the browser response, scoped to this origin.
func Relay(c *gin.Context, cookies []*http.Cookie) {
	for _, ck := range cookies {
		out := *ck
		out.Domain = ""
		if out.Path == "" {
			out.Path = "/"
		}
		http.SetCookie(c.Writer, &out)
	}
}
