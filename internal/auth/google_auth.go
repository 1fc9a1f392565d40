package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/campus-hire/internal/config"
	"github.com/justsurfingit/campus-hire/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// GoogleUser is the subset of the userinfo response we keep.
type GoogleUser struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

type GoogleAuth struct {
	DB     *gorm.DB
	Config *oauth2.Config
	// FetchUser is replaced in tests.
	FetchUser func(ctx context.Context, tok *oauth2.Token) (*GoogleUser, error)
}

func NewGoogleAuth(db *gorm.DB, cfg config.GoogleConfig) *GoogleAuth {
	g := &GoogleAuth{
		DB: db,
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
	}
	g.FetchUser = g.fetchUserInfo
	return g
}

func (g *GoogleAuth) Enabled() bool {
	return g.Config.ClientID != "" && g.Config.ClientSecret != ""
}

func (g *GoogleAuth) AuthCodeURL(state string) string {
	return g.Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// NewState returns a random value for the OAuth state cookie.
func NewState() (string, error) {
	return newToken()
}

// Exchange trades the callback code for the Google user behind it.
func (g *GoogleAuth) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	tok, err := g.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return g.FetchUser(ctx, tok)
}

func (g *GoogleAuth) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (*GoogleUser, error) {
	svc, err := googleoauth.NewService(ctx, option.WithTokenSource(g.Config.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	return &GoogleUser{ID: info.Id, Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}

// UpsertUser finds the user by Google id or email, creating it on first login.
func (g *GoogleAuth) UpsertUser(gu *GoogleUser) (*models.User, error) {
	if gu.Email == "" {
		return nil, errors.New("google account has no email")
	}
	email := strings.ToLower(gu.Email)

	var user models.User
	err := g.DB.Where("google_id = ?", gu.ID).Or("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		googleID := gu.ID
		user = models.User{Email: email, Name: gu.Name, GoogleID: &googleID, AvatarURL: gu.Picture}
		if err := g.DB.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	case err != nil:
		return nil, err
	}

	googleID := gu.ID
	updates := map[string]any{"google_id": &googleID, "avatar_url": gu.Picture}
	if user.Name == "" {
		updates["name"] = gu.Name
	}
	if err := g.DB.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
