package dtos

import "time"

type ProfileRequest struct {
	FullName       *string  `json:"fullName" binding:"omitempty,max=120"`
	Role           *string  `json:"role"`
	Bio            *string  `json:"bio"`
	University     *string  `json:"university"`
	Major          *string  `json:"major"`
	GraduationYear *int     `json:"graduationYear" binding:"omitempty,gte=1950,lte=2100"`
	Location       *string  `json:"location"`
	Skills         []string `json:"skills"`
	Interests      []string `json:"interests"`
	LinkedinURL    *string  `json:"linkedinUrl" binding:"omitempty,url"`
	GithubURL      *string  `json:"githubUrl" binding:"omitempty,url"`
	PortfolioURL   *string  `json:"portfolioUrl" binding:"omitempty,url"`
}

type ApplicationRequest struct {
	JobID       string  `json:"jobId" binding:"required"`
	CoverLetter string  `json:"coverLetter"`
	ResumeID    *string `json:"resumeId"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CallRequestCreate struct {
	JobID        string     `json:"jobId" binding:"required"`
	Message      string     `json:"message" binding:"max=2000"`
	ProposedTime *time.Time `json:"proposedTime"`
}

type BookmarkRequest struct {
	JobID string `json:"jobId" binding:"required"`
}

type JobRefRequest struct {
	JobID string `json:"jobId" binding:"required"`
}

type ResumeRefRequest struct {
	ResumeID string `json:"resumeId" binding:"required"`
}

type RefineJobRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	Requirements string   `json:"requirements"`
	Skills       []string `json:"skills"`
}

type CheckoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}
