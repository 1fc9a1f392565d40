package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/justsurfingit/campus-hire/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

type NotificationInput struct {
	UserID  string
	Type    models.NotificationType
	Title   string
	Message string
	Link    string
	Data    map[string]any
}

// Notify writes a notification row. A failure is logged and returned but callers
// treat it as non-fatal to the action that triggered it.
func (s *NotificationService) Notify(in NotificationInput) (*models.Notification, error) {
	n := &models.Notification{
		UserID:  in.UserID,
		Type:    in.Type,
		Title:   in.Title,
		Message: in.Message,
		Link:    in.Link,
	}
	if len(in.Data) > 0 {
		raw, err := json.Marshal(in.Data)
		if err == nil {
			n.Data = datatypes.JSON(raw)
		}
	}
	if err := s.DB.Create(n).Error; err != nil {
		log.Printf("❌ Failed to create %s notification for %s: %v", in.Type, in.UserID, err)
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) List(userID string, unreadOnly bool, limit int) ([]models.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := s.DB.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var items []models.Notification
	if err := q.Order("created_at DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	unread, err := s.UnreadCount(userID)
	if err != nil {
		return nil, 0, err
	}
	return items, unread, nil
}

func (s *NotificationService) UnreadCount(userID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *NotificationService) MarkRead(userID, id string) (*models.Notification, error) {
	n, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	now := time.Now()
	if err := s.DB.Model(n).Updates(map[string]any{"is_read": true, "read_at": now}).Error; err != nil {
		return nil, err
	}
	n.IsRead, n.ReadAt = true, &now
	return n, nil
}

func (s *NotificationService) MarkAllRead(userID string) (int64, error) {
	res := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (s *NotificationService) Delete(userID, id string) error {
	n, err := s.owned(userID, id)
	if err != nil {
		return err
	}
	return s.DB.Delete(n).Error
}

// ClearRead deletes every read notification of the user.
func (s *NotificationService) ClearRead(userID string) (int64, error) {
	res := s.DB.Where("user_id = ? AND is_read = ?", userID, true).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

func (s *NotificationService) owned(userID, id string) (*models.Notification, error) {
	var n models.Notification
	if err := s.DB.Where("id = ?", id).First(&n).Error; err != nil {
		return nil, notFound(err, "notification")
	}
	if n.UserID != userID {
		return nil, forbidden("not your notification")
	}
	return &n, nil
}
