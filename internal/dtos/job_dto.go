package dtos

import "time"

type JobCreationRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"required"`
	Type        string `json:"type" binding:"required"`

	// Optional Fields
	Category     string     `json:"category"`
	Location     string     `json:"location"`
	IsRemote     bool       `json:"isRemote"`
	Compensation string     `json:"compensation"`
	Duration     string     `json:"duration"`
	Skills       []string   `json:"skills"`
	Requirements string     `json:"requirements"`
	Deadline     *time.Time `json:"deadline"`
}

// JobUpdateRequest is a partial update; nil fields are left alone.
type JobUpdateRequest struct {
	Title        *string    `json:"title" binding:"omitempty,max=200"`
	Description  *string    `json:"description"`
	Type         *string    `json:"type"`
	Category     *string    `json:"category"`
	Location     *string    `json:"location"`
	IsRemote     *bool      `json:"isRemote"`
	Compensation *string    `json:"compensation"`
	Duration     *string    `json:"duration"`
	Skills       []string   `json:"skills"`
	Requirements *string    `json:"requirements"`
	Deadline     *time.Time `json:"deadline"`
	IsFilled     *bool      `json:"isFilled"`
}

type JobListQuery struct {
	Q        string `form:"q"`
	Type     string `form:"type"`
	Location string `form:"location"`
	Remote   *bool  `form:"remote"`
	Skill    string `form:"skill"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

type JobModerationRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}
