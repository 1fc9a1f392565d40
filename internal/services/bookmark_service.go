package services

import (
	"github.com/justsurfingit/campus-hire/internal/models"
	"gorm.io/gorm"
)

type BookmarkService struct {
	DB *gorm.DB
}

func NewBookmarkService(db *gorm.DB) *BookmarkService {
	return &BookmarkService{DB: db}
}

func (s *BookmarkService) List(p *models.Profile) ([]models.Bookmark, error) {
	bookmarks := []models.Bookmark{}
	err := s.DB.Preload("Job").Where("user_id = ?", p.ID).Order("created_at DESC").Find(&bookmarks).Error
	return bookmarks, err
}

func (s *BookmarkService) Add(p *models.Profile, jobID string) (*models.Bookmark, error) {
	var job models.Job
	if err := s.DB.Where("id = ?", jobID).First(&job).Error; err != nil {
		return nil, notFound(err, "job")
	}
	var count int64
	if err := s.DB.Model(&models.Bookmark{}).Where("user_id = ? AND job_id = ?", p.ID, jobID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, invalid("Job is already bookmarked")
	}
	b := &models.Bookmark{UserID: p.ID, JobID: jobID}
	if err := s.DB.Create(b).Error; err != nil {
		return nil, err
	}
	b.Job = &job
	return b, nil
}

func (s *BookmarkService) Remove(p *models.Profile, jobID string) error {
	res := s.DB.Where("user_id = ? AND job_id = ?", p.ID, jobID).Delete(&models.Bookmark{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "bookmark")
	}
	return nil
}
