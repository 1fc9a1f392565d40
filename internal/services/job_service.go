package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/models"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

type JobService struct {
	DB            *gorm.DB
	Notifications *NotificationService
	Emails        *EmailService
}

func NewJobService(db *gorm.DB, n *NotificationService, e *EmailService) *JobService {
	return &JobService{DB: db, Notifications: n, Emails: e}
}

type JobPage struct {
	Jobs  []models.Job `json:"jobs"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int64        `json:"total"`
}

// publicJobs scopes a query to the jobs anyone may browse and apply to.
func publicJobs(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND is_published = ? AND is_filled = ?", models.JobStatusApproved, true, false)
}

// List returns the public feed, newest first.
func (s *JobService) List(q dtos.JobListQuery) (*JobPage, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	query := s.DB.Model(&models.Job{}).Scopes(publicJobs)
	if term := strings.ToLower(strings.TrimSpace(q.Q)); term != "" {
		like := "%" + term + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?)", like, like, like)
	}
	if q.Type != "" {
		query = query.Where("type = ?", strings.ToUpper(q.Type))
	}
	if loc := strings.ToLower(strings.TrimSpace(q.Location)); loc != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+loc+"%")
	}
	if q.Remote != nil {
		query = query.Where("is_remote = ?", *q.Remote)
	}
	if skill := normalizeSkill(q.Skill); skill != "" {
		query = query.Where("LOWER(CAST(skills AS TEXT)) LIKE ?", `%"`+skill+`"%`)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	jobs := []models.Job{}
	err := query.Preload("CreatedBy").
		Order("published_at DESC").Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return &JobPage{Jobs: jobs, Page: page, Limit: limit, Total: total}, nil
}

// OpenJobsFor returns the open jobs p could still apply to.
func (s *JobService) OpenJobsFor(p *models.Profile) ([]models.Job, error) {
	applied := s.DB.Model(&models.Application{}).Select("job_id").Where("applicant_id = ?", p.ID)
	var jobs []models.Job
	err := s.DB.Scopes(publicJobs).
		Where("created_by_id <> ?", p.ID).
		Where("id NOT IN (?)", applied).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

func (s *JobService) Mine(owner *models.Profile) ([]models.Job, error) {
	jobs := []models.Job{}
	err := s.DB.Where("created_by_id = ?", owner.ID).Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

func (s *JobService) find(id string) (*models.Job, error) {
	var job models.Job
	if err := s.DB.Preload("CreatedBy").Where("id = ?", id).First(&job).Error; err != nil {
		return nil, notFound(err, "job")
	}
	return &job, nil
}

// Lookup applies the visibility rules of Get without counting a view.
func (s *JobService) Lookup(viewer *models.Profile, id string) (*models.Job, error) {
	job, err := s.find(id)
	if err != nil {
		return nil, err
	}
	isOwner := viewer != nil && viewer.ID == job.CreatedByID
	if !job.IsPublished && !isOwner && (viewer == nil || !viewer.IsAdmin) {
		return nil, fmt.Errorf("%w: job not found", ErrNotFound)
	}
	return job, nil
}

// Get loads a job for viewer, who may be nil for anonymous requests.
// Unpublished jobs are only visible to their owner and admins.
func (s *JobService) Get(viewer *models.Profile, id string) (*models.Job, error) {
	job, err := s.Lookup(viewer, id)
	if err != nil {
		return nil, err
	}
	if viewer == nil || viewer.ID != job.CreatedByID {
		s.DB.Model(job).UpdateColumn("views_count", gorm.Expr("views_count + 1"))
		job.ViewsCount++
	}
	return job, nil
}

func (s *JobService) Create(owner *models.Profile, req *dtos.JobCreationRequest) (*models.Job, error) {
	if owner.Role != models.RoleFinder {
		return nil, forbidden("Only finders can post jobs")
	}
	jobType := models.JobType(strings.ToUpper(req.Type))
	if !jobType.Valid() {
		return nil, invalid("Invalid job type %q", req.Type)
	}
	if req.Deadline != nil && req.Deadline.Before(time.Now()) {
		return nil, invalid("Deadline must be in the future")
	}
	job := &models.Job{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Type:         jobType,
		Category:     req.Category,
		Location:     req.Location,
		IsRemote:     req.IsRemote,
		Compensation: req.Compensation,
		Duration:     req.Duration,
		Skills:       cleanList(req.Skills),
		Requirements: req.Requirements,
		Deadline:     req.Deadline,
		Status:       models.JobStatusPending,
		CreatedByID:  owner.ID,
	}
	if job.Title == "" {
		return nil, invalid("Title is required")
	}
	if err := s.DB.Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// Update applies a partial edit. Changing what the posting says sends it back to moderation.
func (s *JobService) Update(owner *models.Profile, id string, req *dtos.JobUpdateRequest) (*models.Job, error) {
	job, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if job.CreatedByID != owner.ID {
		return nil, forbidden("Only the job owner can edit this job")
	}

	contentChanged := false
	if req.Title != nil && strings.TrimSpace(*req.Title) != job.Title {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, invalid("Title cannot be empty")
		}
		job.Title = strings.TrimSpace(*req.Title)
		contentChanged = true
	}
	if req.Description != nil && *req.Description != job.Description {
		job.Description = *req.Description
		contentChanged = true
	}
	if req.Skills != nil {
		skills := cleanList(req.Skills)
		if strings.Join(skills, "\x00") != strings.Join(job.Skills, "\x00") {
			job.Skills = skills
			contentChanged = true
		}
	}
	if req.Type != nil {
		jobType := models.JobType(strings.ToUpper(*req.Type))
		if !jobType.Valid() {
			return nil, invalid("Invalid job type %q", *req.Type)
		}
		job.Type = jobType
	}
	setIf(&job.Category, req.Category)
	setIf(&job.Location, req.Location)
	setIf(&job.Compensation, req.Compensation)
	setIf(&job.Duration, req.Duration)
	setIf(&job.Requirements, req.Requirements)
	if req.IsRemote != nil {
		job.IsRemote = *req.IsRemote
	}
	if req.Deadline != nil {
		job.Deadline = req.Deadline
	}
	if req.IsFilled != nil {
		job.IsFilled = *req.IsFilled
	}
	columns := jobEditColumns
	if contentChanged {
		job.Status = models.JobStatusPending
		job.IsPublished = false
		job.RejectionReason = ""
		columns = append(columns[:len(columns):len(columns)], "status", "is_published", "rejection_reason")
	}

	// Counters are owned by Apply, Withdraw and Get; never write them back from this snapshot.
	if err := s.DB.Model(job).Select(columns).Updates(job).Error; err != nil {
		return nil, err
	}
	return s.find(id)
}

var jobEditColumns = []string{
	"title", "description", "skills", "type", "category", "location", "compensation",
	"duration", "requirements", "is_remote", "deadline", "is_filled",
}

// Delete removes the job and everything hanging off it. Owners and admins only.
func (s *JobService) Delete(actor *models.Profile, id string) error {
	job, err := s.find(id)
	if err != nil {
		return err
	}
	if job.CreatedByID != actor.ID && !actor.IsAdmin {
		return forbidden("Only the job owner can delete this job")
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.Application{}, &models.Bookmark{}, &models.CallRequest{}} {
			if err := tx.Where("job_id = ?", job.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Job{}, "id = ?", job.ID).Error
	})
}

// ListByStatus is the admin moderation queue; an empty status lists everything.
func (s *JobService) ListByStatus(status string) ([]models.Job, error) {
	q := s.DB.Preload("CreatedBy").Order("created_at ASC")
	if status != "" {
		st := models.JobStatus(strings.ToUpper(status))
		if st != models.JobStatusPending && st != models.JobStatusApproved && st != models.JobStatusRejected {
			return nil, invalid("Invalid job status %q", status)
		}
		q = q.Where("status = ?", st)
	}
	jobs := []models.Job{}
	err := q.Find(&jobs).Error
	return jobs, err
}

func (s *JobService) Moderate(admin *models.Profile, id string, req *dtos.JobModerationRequest) (*models.Job, error) {
	if !admin.IsAdmin {
		return nil, forbidden("Admin access required")
	}
	job, err := s.find(id)
	if err != nil {
		return nil, err
	}
	next := models.JobStatus(strings.ToUpper(req.Status))
	if !job.Status.CanModerateTo(next) {
		return nil, invalid("Cannot move job from %s to %s", job.Status, req.Status)
	}

	updates := map[string]any{"status": next}
	now := time.Now()
	if next == models.JobStatusApproved {
		updates["is_published"] = true
		updates["published_at"] = now
		updates["rejection_reason"] = ""
	} else {
		updates["is_published"] = false
		updates["rejection_reason"] = strings.TrimSpace(req.Reason)
	}
	if err := s.DB.Model(&models.Job{}).Where("id = ?", job.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	job.Status = next
	job.IsPublished = next == models.JobStatusApproved
	if job.IsPublished {
		job.PublishedAt = &now
		job.RejectionReason = ""
	} else {
		job.RejectionReason = updates["rejection_reason"].(string)
	}

	s.notifyModeration(job)
	return job, nil
}

func (s *JobService) notifyModeration(job *models.Job) {
	in := NotificationInput{
		UserID: job.CreatedByID,
		Link:   "/jobs/" + job.ID,
		Data:   map[string]any{"jobId": job.ID},
	}
	subject, body := "", ""
	if job.Status == models.JobStatusApproved {
		in.Type = models.NotifyJobApproved
		in.Title = "Job approved"
		in.Message = fmt.Sprintf("Your job %q is now live.", job.Title)
		subject, body = "Your job is live", in.Message+" Students can now find it and apply."
	} else {
		in.Type = models.NotifyJobRejected
		in.Title = "Job not approved"
		in.Message = fmt.Sprintf("Your job %q was not approved.", job.Title)
		if job.RejectionReason != "" {
			in.Message += " Reason: " + job.RejectionReason
		}
		subject, body = "Your job needs changes", in.Message+" You can edit it and it will be reviewed again."
	}
	s.Notifications.Notify(in)
	if job.CreatedBy != nil {
		s.Emails.SendAsync(job.CreatedBy.Email, job.CreatedBy.FullName, subject, in.Title, body, in.Link)
	}
}

type AdminStats struct {
	Users               int64            `json:"users"`
	Profiles            int64            `json:"profiles"`
	Jobs                map[string]int64 `json:"jobs"`
	Applications        int64            `json:"applications"`
	CallRequests        int64            `json:"callRequests"`
	ActiveSubscriptions int64            `json:"activeSubscriptions"`
}

func (s *JobService) Stats() (*AdminStats, error) {
	stats := &AdminStats{Jobs: map[string]int64{}}
	counts := []struct {
		model any
		dst   *int64
	}{
		{&models.User{}, &stats.Users},
		{&models.Profile{}, &stats.Profiles},
		{&models.Application{}, &stats.Applications},
		{&models.CallRequest{}, &stats.CallRequests},
	}
	for _, c := range counts {
		if err := s.DB.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	if err := s.DB.Model(&models.Subscription{}).Where("status IN ?", []string{"active", "trialing"}).
		Count(&stats.ActiveSubscriptions).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := s.DB.Model(&models.Job{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, st := range []models.JobStatus{models.JobStatusPending, models.JobStatusApproved, models.JobStatusRejected} {
		stats.Jobs[string(st)] = 0
	}
	var total int64
	for _, r := range rows {
		stats.Jobs[r.Status] = r.Count
		total += r.Count
	}
	stats.Jobs["total"] = total
	return stats, nil
}
