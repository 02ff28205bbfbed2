// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the bearer-token authentication gate and the admin
// permission gate. The two are split so routes can demand either "any valid
// user" or "admin" without duplicating token handling:
//
//   - Auth() resolves "Authorization: Bearer <jwt>" into a user row and
//     aborts with 401 when the token is missing, invalid, expired, or
//     resolves to a user that no longer exists.
//   - RequireAdmin() aborts with 403 when the authenticated user lacks the
//     admin permission. It must be installed after Auth().
//
// Handlers read the resolved identity with UserFrom(c).
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiaohuihuib/Rin/internal/domain"
)

const (
	// userKey is the Gin context key holding the resolved *domain.User.
	userKey = "user"
	// userIDKey mirrors the numeric user id for log enrichment.
	userIDKey = "userID"

	bearerPrefix = "Bearer "
)

// TokenVerifier validates a bearer token and returns the user id it names.
type TokenVerifier interface {
	Verify(token string) (uint, error)
}

// UserResolver loads the user row for an authenticated id.
type UserResolver interface {
	GetUser(ctx context.Context, id uint) (*domain.User, error)
}

// abortUnauthorized writes the standard 401 envelope.
func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}

// Auth returns a middleware that authenticates the request via its bearer
// token. A missing or malformed Authorization header, a bad signature, an
// expired token, and an unknown user id all collapse to the same 401: the
// caller learns nothing about which check failed.
func Auth(verifier TokenVerifier, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		uid, err := verifier.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		user, err := users.GetUser(c.Request.Context(), uid)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(userKey, user)
		c.Set(userIDKey, user.OpenID)
		c.Next()
	}
}

// OptionalAuth attaches the user for a valid bearer token but never aborts:
// anonymous and bad-token requests continue with no identity attached.
// Routes that are public for some inputs and gated for others (the config
// read path) use this and enforce the gate in the handler.
func OptionalAuth(verifier TokenVerifier, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, bearerPrefix) {
			if uid, err := verifier.Verify(strings.TrimPrefix(header, bearerPrefix)); err == nil {
				if user, err := users.GetUser(c.Request.Context(), uid); err == nil {
					c.Set(userKey, user)
					c.Set(userIDKey, user.OpenID)
				}
			}
		}
		c.Next()
	}
}

// RequireAdmin returns a middleware that rejects authenticated non-admin
// users with 403. Install after Auth(); a missing user in the context is a
// wiring bug and surfaces as a 500.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFrom(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "internal_error",
				"message":    "auth context missing",
			})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "forbidden",
				"message":    "admin permission required",
			})
			return
		}
		c.Next()
	}
}

// UserFrom returns the authenticated user attached by Auth(), or nil.
func UserFrom(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
