package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/auth"
	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/services"
)

type ProfileHandler struct {
	Profiles *services.ProfileService
}

func NewProfileHandler(p *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{Profiles: p}
}

func (h *ProfileHandler) GetOwn(c *gin.Context) {
	c.JSON(http.StatusOK, currentProfile(c))
}

func (h *ProfileHandler) Create(c *gin.Context) {
	var req dtos.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	p, err := h.Profiles.Create(auth.CurrentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req dtos.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	p, err := h.Profiles.Update(currentProfile(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UploadAvatar is POST /api/profile/avatar with a multipart "file".
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	_, contentType, data, ok := readUpload(c, 2<<20)
	if !ok {
		return
	}
	p, err := h.Profiles.UploadAvatar(c.Request.Context(), currentProfile(c), contentType, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetPublic is GET /api/profiles/:id
func (h *ProfileHandler) GetPublic(c *gin.Context) {
	p, err := h.Profiles.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":             p.ID,
		"fullName":       p.FullName,
		"role":           p.Role,
		"bio":            p.Bio,
		"university":     p.University,
		"major":          p.Major,
		"graduationYear": p.GraduationYear,
		"location":       p.Location,
		"skills":         p.Skills,
		"interests":      p.Interests,
		"avatarUrl":      p.AvatarURL,
		"linkedinUrl":    p.LinkedinURL,
		"githubUrl":      p.GithubURL,
		"portfolioUrl":   p.PortfolioURL,
	})
}

// readUpload reads the multipart "file" field, allowing one byte over limit so the
// service can report the size error itself.
func readUpload(c *gin.Context, limit int64) (name, contentType string, data []byte, ok bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file is required"})
		return "", "", nil, false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return "", "", nil, false
	}
	defer f.Close()
	data, err = io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		respondError(c, err)
		return "", "", nil, false
	}
	return fh.Filename, fh.Header.Get("Content-Type"), data, true
}
