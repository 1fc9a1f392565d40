package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/auth"
	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/justsurfingit/campus-hire/internal/services"
)

const profileKey = "auth_profile"

// loadProfile attaches the signed-in user's profile when there is one.
func loadProfile(profiles *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := auth.CurrentUser(c); u != nil {
			p, err := profiles.GetByUserID(u.ID)
			switch {
			case err == nil:
				c.Set(profileKey, p)
			case !errors.Is(err, services.ErrNotFound):
				respondError(c, err)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// requireProfile is for routes that act as a profile. It runs after auth.RequireUser.
func requireProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentProfile(c) == nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := currentProfile(c); p == nil || !p.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

func currentProfile(c *gin.Context) *models.Profile {
	if v, ok := c.Get(profileKey); ok {
		if p, ok := v.(*models.Profile); ok {
			return p
		}
	}
	return nil
}
