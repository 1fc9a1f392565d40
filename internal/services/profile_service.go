package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/models"
	"gorm.io/gorm"
)

const maxAvatarBytes = 2 << 20

// avatarTypes maps the sniffed content type to the stored extension.
var avatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type ProfileService struct {
	DB      *gorm.DB
	Storage Storage
	// IsAdminEmail decides admin rights at profile creation.
	IsAdminEmail func(email string) bool
}

func NewProfileService(db *gorm.DB, storage Storage, isAdmin func(string) bool) *ProfileService {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &ProfileService{DB: db, Storage: storage, IsAdminEmail: isAdmin}
}

func (s *ProfileService) GetByUserID(userID string) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err, "profile")
	}
	return &p, nil
}

func (s *ProfileService) Get(id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "profile")
	}
	return &p, nil
}

// EnsureForUser returns the user's profile, creating a seeker profile on first login.
func (s *ProfileService) EnsureForUser(u *models.User) (*models.Profile, error) {
	p, err := s.GetByUserID(u.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	p = &models.Profile{
		UserID:    u.ID,
		Email:     u.Email,
		FullName:  orDefault(u.Name, strings.Split(u.Email, "@")[0]),
		Role:      models.RoleSeeker,
		AvatarURL: u.AvatarURL,
		IsAdmin:   s.IsAdminEmail(u.Email),
	}
	if err := s.DB.Create(p).Error; err != nil {
		return nil, err
	}
	log.Printf("👤 Created profile %s for %s", p.ID, u.Email)
	return p, nil
}

// Create makes the profile explicitly; it fails if one already exists.
func (s *ProfileService) Create(u *models.User, req *dtos.ProfileRequest) (*models.Profile, error) {
	if _, err := s.GetByUserID(u.ID); err == nil {
		return nil, invalid("Profile already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	p := &models.Profile{
		UserID:    u.ID,
		Email:     u.Email,
		FullName:  orDefault(u.Name, u.Email),
		Role:      models.RoleSeeker,
		AvatarURL: u.AvatarURL,
		IsAdmin:   s.IsAdminEmail(u.Email),
	}
	if err := applyProfile(p, req); err != nil {
		return nil, err
	}
	if err := s.DB.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) Update(p *models.Profile, req *dtos.ProfileRequest) (*models.Profile, error) {
	if err := applyProfile(p, req); err != nil {
		return nil, err
	}
	if err := s.DB.Model(p).Select(profileEditColumns).Updates(p).Error; err != nil {
		return nil, err
	}
	return s.Get(p.ID)
}

// profileEditColumns are the fields a user edits. Avatar, admin and billing columns have their own writers.
var profileEditColumns = []string{
	"full_name", "role", "bio", "university", "major", "graduation_year", "location",
	"skills", "interests", "linkedin_url", "github_url", "portfolio_url",
}

func applyProfile(p *models.Profile, req *dtos.ProfileRequest) error {
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return invalid("Full name cannot be empty")
		}
		p.FullName = name
	}
	if req.Role != nil {
		role := models.Role(strings.ToUpper(*req.Role))
		if !role.Valid() {
			return invalid("Invalid role %q", *req.Role)
		}
		p.Role = role
	}
	setIf(&p.Bio, req.Bio)
	setIf(&p.University, req.University)
	setIf(&p.Major, req.Major)
	setIf(&p.Location, req.Location)
	setIf(&p.LinkedinURL, req.LinkedinURL)
	setIf(&p.GithubURL, req.GithubURL)
	setIf(&p.PortfolioURL, req.PortfolioURL)
	if req.GraduationYear != nil {
		p.GraduationYear = *req.GraduationYear
	}
	if req.Skills != nil {
		p.Skills = cleanList(req.Skills)
	}
	if req.Interests != nil {
		p.Interests = cleanList(req.Interests)
	}
	return nil
}

// UploadAvatar stores an image and points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, p *models.Profile, contentType string, data []byte) (*models.Profile, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalid("Avatar must be an image")
	}
	if len(data) > maxAvatarBytes {
		return nil, invalid("Avatar must be at most 2 MB")
	}
	sniffed := http.DetectContentType(data)
	ext, ok := avatarTypes[sniffed]
	if !ok {
		return nil, invalid("Avatar must be a PNG, JPEG, GIF or WebP image")
	}
	objectPath := fmt.Sprintf("avatars/%s/%s%s", p.ID, newObjectName(), ext)
	url, err := s.Storage.Upload(ctx, objectPath, sniffed, data)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	if err := s.DB.Model(p).Update("avatar_url", url).Error; err != nil {
		return nil, err
	}
	p.AvatarURL = url
	return p, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// cleanList trims entries and drops blanks and case-insensitive duplicates.
func cleanList(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		k := strings.ToLower(v)
		if v == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
