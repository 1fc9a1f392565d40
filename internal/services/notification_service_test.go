package services

import (
	"errors"
	"testing"

	"github.com/justsurfingit/campus-hire/internal/config"
	"github.com/justsurfingit/campus-hire/internal/database/dbtest"
	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv bundles the shared collaborators the domain services need.
type testEnv struct {
	DB            *gorm.DB
	Mailer        *fakeMailer
	Emails        *EmailService
	Notifications *NotificationService
	Storage       Storage
	LLM           *LLMService
}

var errDatabaseDown = errors.New("database unavailable")

// failReads makes queries on table fail while the returned flag is set.
func failReads(t *testing.T, db *gorm.DB, table string) *bool {
	t.Helper()
	on := new(bool)
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:fail_reads_"+table, func(tx *gorm.DB) {
		if *on && tx.Statement.Table == table {
			tx.AddError(errDatabaseDown)
		}
	}))
	return on
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	mailer := &fakeMailer{}
	emails := NewEmailService(mailer, "https://campus.test")
	t.Cleanup(emails.Wait)
	return &testEnv{
		DB:            db,
		Mailer:        mailer,
		Emails:        emails,
		Notifications: NewNotificationService(db),
		Storage:       NewStorage(config.StorageConfig{UploadDir: t.TempDir()}, "https://campus.test"),
		LLM:           &LLMService{},
	}
}

func (e *testEnv) notificationTypes(t *testing.T, userID string) []models.NotificationType {
	t.Helper()
	var types []models.NotificationType
	require.NoError(t, e.DB.Model(&models.Notification{}).Where("user_id = ?", userID).Pluck("type", &types).Error)
	return types
}

func TestNotificationLifecycle(t *testing.T) {
	env := newEnv(t)
	svc := env.Notifications
	_, ada := dbtest.User(t, env.DB, "ada", models.RoleSeeker)
	_, bob := dbtest.User(t, env.DB, "bob", models.RoleSeeker)

	first, err := svc.Notify(NotificationInput{UserID: ada.ID, Type: models.NotifyApplicationStatus, Title: "one", Data: map[string]any{"jobId": "j1"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"jobId":"j1"}`, string(first.Data))
	_, err = svc.Notify(NotificationInput{UserID: ada.ID, Type: models.NotifyCallRequest, Title: "two"})
	require.NoError(t, err)
	_, err = svc.Notify(NotificationInput{UserID: bob.ID, Type: models.NotifyCallRequest, Title: "bob's"})
	require.NoError(t, err)

	items, unread, err := svc.List(ada.ID, false, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int64(2), unread)

	read, err := svc.MarkRead(ada.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.NotNil(t, read.ReadAt)

	items, unread, err = svc.List(ada.ID, true, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "two", items[0].Title)
	assert.Equal(t, int64(1), unread)

	n, err := svc.MarkAllRead(ada.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	cleared, err := svc.ClearRead(ada.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	count, err := svc.UnreadCount(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationOwnership(t *testing.T) {
	env := newEnv(t)
	svc := env.Notifications
	_, ada := dbtest.User(t, env.DB, "ada", models.RoleSeeker)
	_, bob := dbtest.User(t, env.DB, "bob", models.RoleSeeker)

	n, err := svc.Notify(NotificationInput{UserID: ada.ID, Type: models.NotifyCallResponse, Title: "hi"})
	require.NoError(t, err)

	_, err = svc.MarkRead(bob.ID, n.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(bob.ID, n.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ada.ID, "missing"), ErrNotFound)
	assert.NoError(t, svc.Delete(ada.ID, n.ID))
}
