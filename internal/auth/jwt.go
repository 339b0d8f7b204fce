package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the signed-in user as seen by handlers.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Claims holds the session token claims. CredHash binds the token to the
// backend session cookies it was minted for.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	CredHash string `json:"cred"`
	jwt.RegisteredClaims
}

// Identity returns the user carried by the claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Username: c.Username}
}

// JWTService mints and validates short-lived session tokens.
type JWTService struct {
	secret        []byte
	expireMinutes int
	now           func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireMinutes int) *JWTService {
	if expireMinutes <= 0 {
		expireMinutes = 10
	}
	return &JWTService{
		secret:        []byte(secret),
		expireMinutes: expireMinutes,
		now:           time.Now,
	}
}

// TTL is the lifetime of minted tokens.
func (s *JWTService) TTL() time.Duration {
	return time.Duration(s.expireMinutes) * time.Minute
}

// Generate creates a token for id, bound to credHash.
func (s *JWTService) Generate(id Identity, credHash string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   id.UserID,
		Username: id.Username,
		CredHash: credHash,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a token, returning claims or ErrInvalidToken.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
