// Package middleware holds the gin middleware chain applied ahead of the
// chat controllers: credential resolution, the content-safety pre-filter,
// per-user rate limiting and the monthly budget gate.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	identity "go-parley/internal/infrastructure/identity/port"
)

// UserIDKey is the gin context key the resolved owner id is stored under.
const UserIDKey = "userID"

// Protect resolves the Authorization bearer credential to a user id and
// aborts with 401 when that fails. Tokens are also accepted via the "token"
// query parameter for websocket clients that cannot set headers.
func Protect(ident identity.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			bearer = strings.TrimPrefix(h, "Bearer ")
		}
		if bearer == "" {
			bearer = c.Query("token")
		}

		userID, err := ident.Resolve(c.Request.Context(), bearer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized"})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the owner id set by Protect, or "" when the request is
// unauthenticated.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
