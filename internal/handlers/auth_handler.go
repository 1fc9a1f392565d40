package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/auth"
	"github.com/justsurfingit/campus-hire/internal/services"
)

const stateCookie = "oauth_state"

type AuthHandler struct {
	Google      *auth.GoogleAuth
	Sessions    *auth.SessionStore
	Profiles    *services.ProfileService
	RedirectURL string
}

func NewAuthHandler(g *auth.GoogleAuth, s *auth.SessionStore, p *services.ProfileService, redirectURL string) *AuthHandler {
	return &AuthHandler{Google: g, Sessions: s, Profiles: p, RedirectURL: redirectURL}
}

// GoogleLogin is GET /api/auth/google/login
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if !h.Google.Enabled() {
		respondError(c, services.ErrNotConfigured)
		return
	}
	state, err := auth.NewState()
	if err != nil {
		respondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 600, "/", "", h.Sessions.Secure, true)
	c.Redirect(http.StatusTemporaryRedirect, h.Google.AuthCodeURL(state))
}

// GoogleCallback is GET /api/auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", h.Sessions.Secure, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}
	gu, err := h.Google.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("⚠️  Google login failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Google sign-in failed"})
		return
	}
	user, err := h.Google.UpsertUser(gu)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.Profiles.EnsureForUser(user); err != nil {
		respondError(c, err)
		return
	}
	token, err := h.Sessions.Create(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Sessions.SetCookie(c, token)
	log.Printf("🔑 %s signed in", user.Email)
	c.Redirect(http.StatusFound, h.RedirectURL)
}

// Logout is POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(auth.SessionCookie); err == nil && token != "" {
		if err := h.Sessions.Delete(token); err != nil {
			log.Printf("⚠️  Failed to delete session: %v", err)
		}
	}
	h.Sessions.ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me is GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user":    auth.CurrentUser(c),
		"profile": currentProfile(c),
	})
}
