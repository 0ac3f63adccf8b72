// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// AdminTokenHeader carries the plain admin token.
const AdminTokenHeader = "X-Admin-Token"

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// SessionRequired rejects requests without a valid cart session token.
func SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		token, ok := bearerToken(c)
		if !ok {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeySessionRequired))
			c.Abort()
			return
		}

		claims, err := utils.ValidateSessionToken(token)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeySessionInvalidToken))
			c.Abort()
			return
		}

		c.Set("session_id", claims.SessionID)
		c.Set("session_locale", claims.Locale)
		c.Next()
	}
}

// OptionalSession attaches the cart session when a valid token is present.
// Product views use it to subtract stock already held in the cart.
func OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := utils.ValidateSessionToken(token)
		if err != nil {
			c.Next()
			return
		}

		c.Set("session_id", claims.SessionID)
		c.Set("session_locale", claims.Locale)
		c.Next()
	}
}

// AdminRequired checks the admin token against its bcrypt hash. An empty
// hash disables the admin endpoints.
func AdminRequired(tokenHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(AdminTokenHeader)
		if tokenHash == "" || token == "" || !utils.CheckToken(tokenHash, token) {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
