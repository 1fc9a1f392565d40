package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/ledongthuc/pdf"
	"gorm.io/gorm"
)

const maxResumeBytes = 5 << 20

type ResumeService struct {
	DB      *gorm.DB
	Storage Storage
	LLM     *LLMService
}

func NewResumeService(db *gorm.DB, storage Storage, llm *LLMService) *ResumeService {
	return &ResumeService{DB: db, Storage: storage, LLM: llm}
}

func (s *ResumeService) List(p *models.Profile) ([]models.Resume, error) {
	resumes := []models.Resume{}
	err := s.DB.Where("user_id = ?", p.ID).Order("is_default DESC").Order("created_at DESC").Find(&resumes).Error
	return resumes, err
}

func isPDF(contentType string, data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF")) &&
		(contentType == "" || contentType == "application/pdf" || contentType == "application/octet-stream")
}

// Upload stores a PDF résumé. A profile's first résumé becomes its default.
func (s *ResumeService) Upload(ctx context.Context, p *models.Profile, fileName, contentType string, data []byte) (*models.Resume, error) {
	if len(data) == 0 {
		return nil, invalid("File is empty")
	}
	if len(data) > maxResumeBytes {
		return nil, invalid("Resume must be at most 5 MB")
	}
	if !isPDF(contentType, data) {
		return nil, invalid("Resume must be a PDF")
	}
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "resume.pdf"
	}
	var existing int64
	if err := s.DB.Model(&models.Resume{}).Where("user_id = ?", p.ID).Count(&existing).Error; err != nil {
		return nil, err
	}

	objectPath := fmt.Sprintf("resumes/%s/%s.pdf", p.ID, newObjectName())
	url, err := s.Storage.Upload(ctx, objectPath, "application/pdf", data)
	if err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}
	r := &models.Resume{
		UserID:      p.ID,
		FileName:    name,
		StoragePath: objectPath,
		URL:         url,
		ContentType: "application/pdf",
		Size:        int64(len(data)),
		IsDefault:   existing == 0,
	}
	if err := s.DB.Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ResumeService) owned(p *models.Profile, id string) (*models.Resume, error) {
	var r models.Resume
	if err := s.DB.Where("id = ?", id).First(&r).Error; err != nil {
		return nil, notFound(err, "resume")
	}
	if r.UserID != p.ID {
		return nil, forbidden("This resume belongs to someone else")
	}
	return &r, nil
}

func (s *ResumeService) SetDefault(p *models.Profile, id string) (*models.Resume, error) {
	r, err := s.owned(p, id)
	if err != nil {
		return nil, err
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Resume{}).Where("user_id = ? AND id <> ?", p.ID, r.ID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Resume{}).Where("id = ?", r.ID).Update("is_default", true).Error
	})
	if err != nil {
		return nil, err
	}
	r.IsDefault = true
	return r, nil
}

// Delete removes a résumé, promoting the newest remaining one when it was the default.
// Removing the stored file is best-effort.
func (s *ResumeService) Delete(ctx context.Context, p *models.Profile, id string) error {
	r, err := s.owned(p, id)
	if err != nil {
		return err
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Application{}).Where("resume_id = ?", r.ID).
			Update("resume_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Resume{}, "id = ?", r.ID).Error; err != nil {
			return err
		}
		if !r.IsDefault {
			return nil
		}
		var next models.Resume
		err := tx.Where("user_id = ?", p.ID).Order("created_at DESC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
	if err != nil {
		return err
	}
	if err := s.Storage.Delete(ctx, r.StoragePath); err != nil {
		log.Printf("⚠️  Could not delete stored resume %s: %v", r.StoragePath, err)
	}
	return nil
}

// Text downloads a résumé and extracts its plain text.
func (s *ResumeService) Text(ctx context.Context, p *models.Profile, id string) (string, error) {
	r, err := s.owned(p, id)
	if err != nil {
		return "", err
	}
	data, err := s.Storage.Download(ctx, r.StoragePath)
	if err != nil {
		return "", fmt.Errorf("download resume: %w", err)
	}
	return pdfText(data)
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", invalid("Could not read PDF: %v", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", invalid("Could not extract PDF text: %v", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.Join(strings.Fields(buf.String()), " "), nil
}

// Analyze extracts a résumé's text and has the advisor review it.
func (s *ResumeService) Analyze(ctx context.Context, p *models.Profile, id string) (ResumeAnalysis, error) {
	text, err := s.Text(ctx, p, id)
	if err != nil {
		return ResumeAnalysis{}, err
	}
	if text == "" {
		return ResumeAnalysis{}, invalid("No text could be extracted from this resume")
	}
	return s.LLM.AnalyzeResume(ctx, p, text), nil
}
