package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/services"
)

type JobHandler struct {
	JobService         *services.JobService
	ApplicationService *services.ApplicationService
}

// NewJobHandler creates the handler with dependencies
func NewJobHandler(j *services.JobService, a *services.ApplicationService) *JobHandler {
	return &JobHandler{JobService: j, ApplicationService: a}
}

// ListJobs is the public feed, GET /api/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	var q dtos.JobListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}
	page, err := h.JobService.List(q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *JobHandler) MyJobs(c *gin.Context) {
	jobs, err := h.JobService.Mine(currentProfile(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// GetJob works signed in or not; currentProfile may be nil.
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.JobService.Get(currentProfile(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// creating the job
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	job, err := h.JobService.Create(currentProfile(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	var req dtos.JobUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	job, err := h.JobService.Update(currentProfile(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	if err := h.JobService.Delete(currentProfile(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// JobApplications is GET /api/jobs/:id/applications, owner only
func (h *JobHandler) JobApplications(c *gin.Context) {
	apps, err := h.ApplicationService.ListForJob(currentProfile(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}
