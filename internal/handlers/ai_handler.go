package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/justsurfingit/campus-hire/internal/services"
)

const (
	defaultRecommendations = 5
	maxRecommendations     = 20
)

// AIHandler serves the advisory endpoints. Every one of them answers even without a
// model; the "source" field tells which path produced the result.
type AIHandler struct {
	LLM     *services.LLMService
	Jobs    *services.JobService
	Resumes *services.ResumeService
}

func NewAIHandler(llm *services.LLMService, jobs *services.JobService, resumes *services.ResumeService) *AIHandler {
	return &AIHandler{LLM: llm, Jobs: jobs, Resumes: resumes}
}

// jobFromBody binds {jobId} and loads the job the caller may see.
func (h *AIHandler) jobFromBody(c *gin.Context) (*models.Job, bool) {
	var req dtos.JobRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return nil, false
	}
	job, err := h.Jobs.Lookup(currentProfile(c), req.JobID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return job, true
}

func (h *AIHandler) MatchScore(c *gin.Context) {
	job, ok := h.jobFromBody(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.LLM.MatchScore(c.Request.Context(), currentProfile(c), job))
}

func (h *AIHandler) RefineJob(c *gin.Context) {
	var req dtos.RefineJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	refined := h.LLM.RefineJob(c.Request.Context(), services.JobDraft{
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Skills:       req.Skills,
	})
	c.JSON(http.StatusOK, refined)
}

func (h *AIHandler) AnalyzeResume(c *gin.Context) {
	var req dtos.ResumeRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	analysis, err := h.Resumes.Analyze(c.Request.Context(), currentProfile(c), req.ResumeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// Recommendations is GET /api/ai/recommendations?limit=5
func (h *AIHandler) Recommendations(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRecommendations)))
	if err != nil || n < 1 {
		n = defaultRecommendations
	}
	if n > maxRecommendations {
		n = maxRecommendations
	}
	p := currentProfile(c)
	jobs, err := h.Jobs.OpenJobsFor(p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": h.LLM.Recommend(c.Request.Context(), p, jobs, n)})
}

func (h *AIHandler) InterviewTips(c *gin.Context) {
	job, ok := h.jobFromBody(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.LLM.InterviewTips(c.Request.Context(), currentProfile(c), job))
}

func (h *AIHandler) CoverLetter(c *gin.Context) {
	job, ok := h.jobFromBody(c)
	if !ok {
		return
	}
	letter, source := h.LLM.CoverLetter(c.Request.Context(), currentProfile(c), job)
	c.JSON(http.StatusOK, gin.H{"coverLetter": letter, "source": source})
}
