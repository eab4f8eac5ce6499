// ===========================================
// Package middleware - Bearer Token Authentication
// ===========================================
// Owners authenticate with an HS256 JWT issued by the identity
// provider. The token's `sub` claim is the owner's user id.
//
// FLOW:
// 1. Extract the token from "Authorization: Bearer <token>"
// 2. Verify signature, algorithm and expiry
// 3. Attach user id (and email when present) to the gin context
// 4. Otherwise return 401 Unauthorized
//
// Never log raw tokens.
// ===========================================

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/models"
)

// Context keys set by RequireUser.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

var (
	ErrMissingToken = errors.New("bearer token is required")
	ErrInvalidToken = errors.New("bearer token is invalid")
)

// Claims are the token claims we read.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuth verifies bearer tokens.
type JWTAuth struct {
	secret []byte
	logger logrus.FieldLogger
}

// NewJWTAuth creates a new JWT auth middleware.
func NewJWTAuth(secret string, logger logrus.FieldLogger) *JWTAuth {
	return &JWTAuth{secret: []byte(secret), logger: logger}
}

// RequireUser returns middleware that rejects requests without a valid
// token. With no secret configured every request is rejected.
func (a *JWTAuth) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.authenticate(c.GetHeader("Authorization"))
		if err != nil {
			a.logger.WithError(err).WithField("path", c.FullPath()).Debug("Authentication failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: "Invalid or missing token",
				Code:  models.ErrCodeUnauthorized,
			})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		if claims.Email != "" {
			c.Set(ContextUserEmail, claims.Email)
		}
		c.Next()
	}
}

func (a *JWTAuth) authenticate(header string) (*Claims, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, ErrMissingToken
	}
	if len(a.secret) == 0 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ===========================================
// Context Helpers
// ===========================================

// UserID returns the authenticated user id, or "" outside RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// UserEmail returns the token's email claim, if any.
func UserEmail(c *gin.Context) string {
	return c.GetString(ContextUserEmail)
}
