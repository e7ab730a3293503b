package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie is the browser-facing session cookie name.
	SessionCookie = "portfolio_session"

	ctxUsername = "username"
)

// Username extracts the authenticated tenant from the Gin context. Empty
// when the request carried no valid session.
func Username(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(ctxUsername))
}

// Token extracts the session token from the cookie or, failing that, from a
// Bearer authorization header.
func Token(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	bearer := c.GetHeader("Authorization")
	if strings.HasPrefix(bearer, "Bearer ") {
		return strings.TrimSpace(bearer[7:])
	}
	return ""
}

// RequireSession rejects requests without a resolvable session and stores
// the username on the context for handlers.
func RequireSession(sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := sessions.Resolve(c.Request.Context(), Token(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
			c.Abort()
			return
		}
		if username == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		c.Set(ctxUsername, username)
		c.Next()
	}
}

// OptionalSession resolves a session when one is present but never rejects.
// Public portfolio pages use it to tell owners apart from visitors.
func OptionalSession(sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if username, err := sessions.Resolve(c.Request.Context(), Token(c)); err == nil && username != "" {
			c.Set(ctxUsername, username)
		}
		c.Next()
	}
}
