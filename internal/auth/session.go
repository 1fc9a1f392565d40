package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/models"
	"gorm.io/gorm"
)

const (
	SessionCookie   = "campus_session"
	sessionLifetime = 30 * 24 * time.Hour
)

var ErrNoSession = errors.New("no valid session")

type SessionStore struct {
	DB     *gorm.DB
	Secure bool
}

func NewSessionStore(db *gorm.DB, secure bool) *SessionStore {
	return &SessionStore{DB: db, Secure: secure}
}

func newToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// Create stores a new session for userID and returns its token.
func (s *SessionStore) Create(userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	session := models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(sessionLifetime),
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return "", err
	}
	return token, nil
}

// Lookup returns the user owning token. Expired sessions are removed.
func (s *SessionStore) Lookup(token string) (*models.User, error) {
	var session models.Session
	err := s.DB.Preload("User").Where("token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		s.DB.Delete(&session)
		return nil, ErrNoSession
	}
	return &session.User, nil
}

func (s *SessionStore) Delete(token string) error {
	return s.DB.Where("token = ?", token).Delete(&models.Session{}).Error
}

func (s *SessionStore) SetCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionLifetime / time.Second),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *SessionStore) ClearCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
