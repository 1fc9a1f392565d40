package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/services"
)

type AdminHandler struct {
	Jobs *services.JobService
}

func NewAdminHandler(j *services.JobService) *AdminHandler {
	return &AdminHandler{Jobs: j}
}

// ListJobs is GET /api/admin/jobs?status=PENDING
func (h *AdminHandler) ListJobs(c *gin.Context) {
	jobs, err := h.Jobs.ListByStatus(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *AdminHandler) ModerateJob(c *gin.Context) {
	var req dtos.JobModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	job, err := h.Jobs.Moderate(currentProfile(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.Jobs.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
