package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/models"
)

const userKey = "auth_user"

// LoadUser attaches the session user, if any, to the gin context.
func (s *SessionStore) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err == nil && token != "" {
			if user, err := s.Lookup(token); err == nil {
				c.Set(userKey, user)
			}
		}
		c.Next()
	}
}

// RequireUser aborts with 401 when no session user is attached.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}
