package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tcmng/tcmng-server/internal/apperr"
	"github.com/tcmng/tcmng-server/internal/models"
	"github.com/tcmng/tcmng-server/internal/tokens"
)

// UserLoader resolves the account behind a verified token. A nil user with a
// nil error means the account no longer exists.
type UserLoader func(ctx context.Context, id string) (*models.User, error)

// Protect verifies the Bearer token, loads the account and rejects tokens
// minted before the last password change. The authenticated user is stored
// under "user" and a claims map under "claims" for downstream middleware.
func Protect(secret string, load UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		challenge := fmt.Sprintf("Bearer realm=%q", c.Request.Host)

		auth := c.GetHeader("Authorization")
		var raw string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &raw); n != 1 {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		userID, issuedAt, err := tokens.ParseToken(secret, raw)
		if err != nil {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		user, err := load(c.Request.Context(), userID)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		if user == nil {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		// tokens issued before a password change are stale
		if user.PasswordChangedAt != nil && user.PasswordChangedAt.After(issuedAt) {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set("user", user)
		c.Set("claims", map[string]interface{}{"sub": user.ID.Hex()})
		c.Next()
	}
}

// AllowedTo rejects authenticated users whose role is not in roles.
func AllowedTo(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("user")
		user, _ := v.(*models.User)
		if !ok || user == nil {
			apperr.Abort(c, apperr.Forbidden("You are not allowed to access this route"))
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		apperr.Abort(c, apperr.Forbidden("You are not allowed to access this route"))
	}
}
