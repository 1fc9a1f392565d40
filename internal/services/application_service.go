package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/models"
	"gorm.io/gorm"
)

type ApplicationService struct {
	DB            *gorm.DB
	LLM           *LLMService
	Notifications *NotificationService
	Emails        *EmailService
}

func NewApplicationService(db *gorm.DB, llm *LLMService, n *NotificationService, e *EmailService) *ApplicationService {
	return &ApplicationService{DB: db, LLM: llm, Notifications: n, Emails: e}
}

func (s *ApplicationService) exists(jobID, applicantID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.Application{}).
		Where("job_id = ? AND applicant_id = ?", jobID, applicantID).
		Count(&count).Error
	return count > 0, err
}

// Apply submits applicant's application to a job and tells the owner about it.
func (s *ApplicationService) Apply(ctx context.Context, applicant *models.Profile, req *dtos.ApplicationRequest) (*models.Application, error) {
	var job models.Job
	if err := s.DB.Preload("CreatedBy").Where("id = ?", req.JobID).First(&job).Error; err != nil {
		return nil, notFound(err, "job")
	}
	if job.CreatedByID == applicant.ID {
		return nil, invalid("You cannot apply to your own job")
	}
	if !job.IsOpen() {
		return nil, invalid("This job is not accepting applications")
	}
	dup, err := s.exists(job.ID, applicant.ID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, invalid("You have already applied to this job")
	}
	if req.ResumeID != nil && *req.ResumeID != "" {
		var count int64
		if err := s.DB.Model(&models.Resume{}).Where("id = ? AND user_id = ?", *req.ResumeID, applicant.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: resume not found", ErrNotFound)
		}
	} else {
		req.ResumeID = nil
	}

	match := s.LLM.MatchScore(ctx, applicant, &job)
	score := match.Score
	app := &models.Application{
		JobID:       job.ID,
		ApplicantID: applicant.ID,
		CoverLetter: strings.TrimSpace(req.CoverLetter),
		ResumeID:    req.ResumeID,
		Status:      models.ApplicationPending,
		MatchScore:  &score,
		MatchReason: match.Reason,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(app).Error; err != nil {
			return err
		}
		return tx.Model(&models.Job{}).Where("id = ?", job.ID).
			UpdateColumn("applications_count", gorm.Expr("applications_count + 1")).Error
	})
	if err != nil {
		// lost a race with a concurrent submit; the unique index caught it
		if dup, _ := s.exists(job.ID, applicant.ID); dup {
			return nil, invalid("You have already applied to this job")
		}
		return nil, err
	}

	link := "/jobs/" + job.ID + "/applications"
	s.Notifications.Notify(NotificationInput{
		UserID:  job.CreatedByID,
		Type:    models.NotifyApplicationReceived,
		Title:   "New application",
		Message: fmt.Sprintf("%s applied to %q (match %d%%).", applicant.FullName, job.Title, score),
		Link:    link,
		Data:    map[string]any{"jobId": job.ID, "applicationId": app.ID},
	})
	if job.CreatedBy != nil {
		s.Emails.SendAsync(job.CreatedBy.Email, job.CreatedBy.FullName,
			"New application for "+job.Title, "You have a new applicant",
			fmt.Sprintf("%s applied to %s with a match score of %d%%.", applicant.FullName, job.Title, score), link)
	}
	app.Job = &job
	return app, nil
}

func (s *ApplicationService) ListMine(applicant *models.Profile) ([]models.Application, error) {
	apps := []models.Application{}
	err := s.DB.Preload("Job").Where("applicant_id = ?", applicant.ID).
		Order("created_at DESC").Find(&apps).Error
	return apps, err
}

func (s *ApplicationService) find(id string) (*models.Application, error) {
	var app models.Application
	err := s.DB.Preload("Job").Preload("Applicant").Preload("Resume").Where("id = ?", id).First(&app).Error
	if err != nil {
		return nil, notFound(err, "application")
	}
	if app.Job == nil {
		return nil, fmt.Errorf("%w: job not found", ErrNotFound)
	}
	return &app, nil
}

// Get is visible to the applicant and to the job owner.
func (s *ApplicationService) Get(viewer *models.Profile, id string) (*models.Application, error) {
	app, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != viewer.ID && app.Job.CreatedByID != viewer.ID {
		return nil, forbidden("You cannot view this application")
	}
	return app, nil
}

// ListForJob returns a job's applications, best matches first. Owner only.
func (s *ApplicationService) ListForJob(owner *models.Profile, jobID string) ([]models.Application, error) {
	var job models.Job
	if err := s.DB.Where("id = ?", jobID).First(&job).Error; err != nil {
		return nil, notFound(err, "job")
	}
	if job.CreatedByID != owner.ID {
		return nil, forbidden("Only the job owner can view applications")
	}
	apps := []models.Application{}
	err := s.DB.Preload("Applicant").Preload("Resume").Where("job_id = ?", jobID).
		Order("CASE WHEN match_score IS NULL THEN 1 ELSE 0 END").
		Order("match_score DESC").Order("created_at ASC").
		Find(&apps).Error
	return apps, err
}

func (s *ApplicationService) UpdateStatus(owner *models.Profile, id string, status string) (*models.Application, error) {
	app, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if app.Job.CreatedByID != owner.ID {
		return nil, forbidden("Only the job owner can update this application")
	}
	next := models.ApplicationStatus(strings.ToUpper(status))
	if !next.Valid() {
		return nil, invalid("Invalid status %q", status)
	}
	if !app.Status.CanTransitionTo(next) {
		return nil, invalid("Cannot change application from %s to %s", app.Status, next)
	}
	if err := s.DB.Model(&models.Application{}).Where("id = ?", app.ID).Update("status", next).Error; err != nil {
		return nil, err
	}
	app.Status = next

	msg := fmt.Sprintf("Your application to %q is now %s.", app.Job.Title, strings.ToLower(string(next)))
	s.Notifications.Notify(NotificationInput{
		UserID:  app.ApplicantID,
		Type:    models.NotifyApplicationStatus,
		Title:   "Application update",
		Message: msg,
		Link:    "/applications/" + app.ID,
		Data:    map[string]any{"applicationId": app.ID, "jobId": app.JobID, "status": next},
	})
	if app.Applicant != nil {
		s.Emails.SendAsync(app.Applicant.Email, app.Applicant.FullName,
			"Update on your application to "+app.Job.Title, "Application update", msg, "/applications/"+app.ID)
	}
	return app, nil
}

// Withdraw deletes a still-pending application and gives back its slot in the count.
func (s *ApplicationService) Withdraw(applicant *models.Profile, id string) error {
	var app models.Application
	if err := s.DB.Where("id = ?", id).First(&app).Error; err != nil {
		return notFound(err, "application")
	}
	if app.ApplicantID != applicant.ID {
		return forbidden("You can only withdraw your own applications")
	}
	if app.Status != models.ApplicationPending {
		return invalid("Only pending applications can be withdrawn")
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Application{}, "id = ? AND status = ?", app.ID, models.ApplicationPending)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invalid("Only pending applications can be withdrawn")
		}
		return tx.Model(&models.Job{}).Where("id = ? AND applications_count > 0", app.JobID).
			UpdateColumn("applications_count", gorm.Expr("applications_count - 1")).Error
	})
}
