package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base gives every table a UUID string key and gorm timestamps.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// User is the authenticated identity coming from Google sign-in.
type User struct {
	Base
	Email     string  `gorm:"uniqueIndex;not null" json:"email"`
	Name      string  `json:"name"`
	GoogleID  *string `gorm:"uniqueIndex" json:"-"`
	AvatarURL string  `json:"avatarUrl"`
}

type Session struct {
	Token     string    `gorm:"primaryKey;size:64" json:"-"`
	UserID    string    `gorm:"size:36;index;not null" json:"userId"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type Profile struct {
	Base
	UserID           string                      `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Email            string                      `gorm:"index;not null" json:"email"`
	FullName         string                      `gorm:"not null" json:"fullName"`
	Role             Role                        `gorm:"size:16;default:'SEEKER'" json:"role"`
	Bio              string                      `gorm:"type:text" json:"bio"`
	University       string                      `json:"university"`
	Major            string                      `json:"major"`
	GraduationYear   int                         `json:"graduationYear,omitempty"`
	Location         string                      `json:"location"`
	Skills           datatypes.JSONSlice[string] `json:"skills"`
	Interests        datatypes.JSONSlice[string] `json:"interests"`
	AvatarURL        string                      `json:"avatarUrl"`
	LinkedinURL      string                      `json:"linkedinUrl"`
	GithubURL        string                      `json:"githubUrl"`
	PortfolioURL     string                      `json:"portfolioUrl"`
	IsAdmin          bool                        `gorm:"default:false" json:"isAdmin"`
	StripeCustomerID string                      `gorm:"index" json:"-"`
}

type Job struct {
	Base
	Title             string                      `gorm:"not null" json:"title"`
	Description       string                      `gorm:"type:text;not null" json:"description"`
	Type              JobType                     `gorm:"size:16;index" json:"type"`
	Category          string                      `json:"category"`
	Location          string                      `json:"location"`
	IsRemote          bool                        `gorm:"default:false" json:"isRemote"`
	Compensation      string                      `json:"compensation"`
	Duration          string                      `json:"duration"`
	Skills            datatypes.JSONSlice[string] `json:"skills"`
	Requirements      string                      `gorm:"type:text" json:"requirements"`
	Deadline          *time.Time                  `json:"deadline,omitempty"`
	Status            JobStatus                   `gorm:"size:16;index;default:'PENDING'" json:"status"`
	RejectionReason   string                      `json:"rejectionReason,omitempty"`
	IsPublished       bool                        `gorm:"index;default:false" json:"isPublished"`
	PublishedAt       *time.Time                  `json:"publishedAt,omitempty"`
	IsFilled          bool                        `gorm:"default:false" json:"isFilled"`
	ApplicationsCount int                         `gorm:"default:0" json:"applicationsCount"`
	ViewsCount        int                         `gorm:"default:0" json:"viewsCount"`

	CreatedByID string   `gorm:"size:36;index;not null" json:"createdById"`
	CreatedBy   *Profile `gorm:"constraint:OnDelete:CASCADE" json:"createdBy,omitempty"`
}

// IsOpen reports whether the job currently accepts applications.
func (j *Job) IsOpen() bool {
	return j.IsPublished && !j.IsFilled
}

type Application struct {
	Base
	JobID       string            `gorm:"size:36;not null;uniqueIndex:idx_application_job_applicant" json:"jobId"`
	Job         *Job              `gorm:"constraint:OnDelete:CASCADE" json:"job,omitempty"`
	ApplicantID string            `gorm:"size:36;not null;uniqueIndex:idx_application_job_applicant;index" json:"applicantId"`
	Applicant   *Profile          `gorm:"constraint:OnDelete:CASCADE" json:"applicant,omitempty"`
	CoverLetter string            `gorm:"type:text" json:"coverLetter"`
	ResumeID    *string           `gorm:"size:36" json:"resumeId,omitempty"`
	Resume      *Resume           `gorm:"constraint:OnDelete:SET NULL" json:"resume,omitempty"`
	Status      ApplicationStatus `gorm:"size:16;index;default:'PENDING'" json:"status"`
	MatchScore  *int              `json:"matchScore,omitempty"`
	MatchReason string            `gorm:"type:text" json:"matchReason,omitempty"`
}

type CallRequest struct {
	Base
	JobID        string            `gorm:"size:36;index;not null" json:"jobId"`
	Job          *Job              `gorm:"constraint:OnDelete:CASCADE" json:"job,omitempty"`
	RequesterID  string            `gorm:"size:36;index;not null" json:"requesterId"`
	Requester    *Profile          `gorm:"constraint:OnDelete:CASCADE" json:"requester,omitempty"`
	ReceiverID   string            `gorm:"size:36;index;not null" json:"receiverId"`
	Receiver     *Profile          `gorm:"constraint:OnDelete:CASCADE" json:"receiver,omitempty"`
	Message      string            `gorm:"type:text" json:"message"`
	ProposedTime *time.Time        `json:"proposedTime,omitempty"`
	Status       CallRequestStatus `gorm:"size:16;index;default:'PENDING'" json:"status"`
	RoomID       string            `json:"roomId,omitempty"`
	RoomCode     string            `json:"roomCode,omitempty"`
	IsMockRoom   bool              `gorm:"default:false" json:"isMockRoom"`
	RespondedAt  *time.Time        `json:"respondedAt,omitempty"`
}

type Bookmark struct {
	Base
	UserID string `gorm:"size:36;not null;uniqueIndex:idx_bookmark_user_job" json:"userId"`
	JobID  string `gorm:"size:36;not null;uniqueIndex:idx_bookmark_user_job" json:"jobId"`
	Job    *Job   `gorm:"constraint:OnDelete:CASCADE" json:"job,omitempty"`
}

type Notification struct {
	Base
	UserID  string           `gorm:"size:36;index;not null" json:"userId"`
	Type    NotificationType `gorm:"size:32" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `gorm:"type:text" json:"message"`
	Link    string           `json:"link,omitempty"`
	Data    datatypes.JSON   `json:"data,omitempty"`
	IsRead  bool             `gorm:"index;default:false" json:"isRead"`
	ReadAt  *time.Time       `json:"readAt,omitempty"`
}

type Resume struct {
	Base
	UserID      string `gorm:"size:36;index;not null" json:"userId"`
	FileName    string `gorm:"not null" json:"fileName"`
	StoragePath string `gorm:"not null" json:"-"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	IsDefault   bool   `gorm:"default:false" json:"isDefault"`
}

type Subscription struct {
	Base
	UserID               string     `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	StripeCustomerID     string     `gorm:"index" json:"-"`
	StripeSubscriptionID string     `gorm:"uniqueIndex" json:"stripeSubscriptionId"`
	Plan                 string     `json:"plan"`
	Status               string     `gorm:"size:32" json:"status"`
	CurrentPeriodEnd     *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancelAtPeriodEnd"`
}

type Invoice struct {
	Base
	UserID               string `gorm:"size:36;index;not null" json:"userId"`
	StripeInvoiceID      string `gorm:"uniqueIndex;not null" json:"stripeInvoiceId"`
	StripeSubscriptionID string `gorm:"index" json:"stripeSubscriptionId"`
	AmountPaid           int64  `json:"amountPaid"`
	Currency             string `gorm:"size:8" json:"currency"`
	Status               string `gorm:"size:32" json:"status"`
	HostedInvoiceURL     string `json:"hostedInvoiceUrl"`
}

type Payment struct {
	Base
	UserID          string `gorm:"size:36;index;not null" json:"userId"`
	StripeSessionID string `gorm:"uniqueIndex;not null" json:"stripeSessionId"`
	Amount          int64  `json:"amount"`
	Currency        string `gorm:"size:8" json:"currency"`
	Status          string `gorm:"size:32" json:"status"`
	Plan            string `json:"plan"`
}

// All lists every table, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Session{}, &Profile{}, &Job{}, &Resume{}, &Application{},
		&CallRequest{}, &Bookmark{}, &Notification{}, &Subscription{}, &Invoice{}, &Payment{},
	}
}
