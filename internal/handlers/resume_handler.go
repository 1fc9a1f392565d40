package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/services"
)

type ResumeHandler struct {
	Resumes *services.ResumeService
}

func NewResumeHandler(r *services.ResumeService) *ResumeHandler {
	return &ResumeHandler{Resumes: r}
}

func (h *ResumeHandler) List(c *gin.Context) {
	list, err := h.Resumes.List(currentProfile(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resumes": list})
}

// Upload is POST /api/resumes with a multipart "file".
func (h *ResumeHandler) Upload(c *gin.Context) {
	name, contentType, data, ok := readUpload(c, 5<<20)
	if !ok {
		return
	}
	r, err := h.Resumes.Upload(c.Request.Context(), currentProfile(c), name, contentType, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *ResumeHandler) SetDefault(c *gin.Context) {
	r, err := h.Resumes.SetDefault(currentProfile(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *ResumeHandler) Delete(c *gin.Context) {
	if err := h.Resumes.Delete(c.Request.Context(), currentProfile(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
