package services

import (
	"context"
	"testing"
	"time"

	"github.com/justsurfingit/campus-hire/internal/database/dbtest"
	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakePDF = []byte("%PDF-1.4 not really a document")

func TestUploadResumeValidation(t *testing.T) {
	env := newEnv(t)
	svc := NewResumeService(env.DB, env.Storage, env.LLM)
	_, p := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	ctx := context.Background()

	_, err := svc.Upload(ctx, p, "cv.pdf", "application/pdf", nil)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Upload(ctx, p, "cv.docx", "application/msword", []byte("PK..."))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Upload(ctx, p, "cv.pdf", "application/pdf", append(append([]byte{}, fakePDF...), make([]byte, maxResumeBytes)...))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResumeDefaults(t *testing.T) {
	env := newEnv(t)
	svc := NewResumeService(env.DB, env.Storage, env.LLM)
	_, p := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	_, other := dbtest.User(t, env.DB, "zed", models.RoleSeeker)
	ctx := context.Background()

	first, err := svc.Upload(ctx, p, `C:\docs\first.pdf`, "application/pdf", fakePDF)
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "first.pdf", first.FileName)

	// created_at decides which résumé is promoted
	require.NoError(t, env.DB.Model(first).Update("created_at", time.Now().Add(-2*time.Hour)).Error)
	second, err := svc.Upload(ctx, p, "second.pdf", "application/pdf", fakePDF)
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
	require.NoError(t, env.DB.Model(second).Update("created_at", time.Now().Add(-time.Hour)).Error)
	third, err := svc.Upload(ctx, p, "third.pdf", "", fakePDF)
	require.NoError(t, err)

	_, err = svc.SetDefault(other, second.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.SetDefault(p, second.ID)
	require.NoError(t, err)

	list, err := svc.List(p)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, second.ID, list[0].ID)
	var defaults int
	for _, r := range list {
		if r.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)

	require.NoError(t, svc.Delete(ctx, p, second.ID))
	list, err = svc.List(p)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, third.ID, list[0].ID)
	assert.True(t, list[0].IsDefault, "newest remaining résumé is promoted")

	_, err = env.Storage.Download(ctx, second.StoragePath)
	assert.Error(t, err, "stored file is removed")
}

func TestDeleteResumeDetachesApplications(t *testing.T) {
	env := newEnv(t)
	svc := NewResumeService(env.DB, env.Storage, env.LLM)
	_, finder := dbtest.User(t, env.DB, "fay", models.RoleFinder)
	_, p := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	job := dbtest.OpenJob(t, env.DB, finder)
	ctx := context.Background()

	r, err := svc.Upload(ctx, p, "cv.pdf", "application/pdf", fakePDF)
	require.NoError(t, err)
	app := &models.Application{JobID: job.ID, ApplicantID: p.ID, ResumeID: &r.ID}
	require.NoError(t, env.DB.Create(app).Error)

	require.NoError(t, svc.Delete(ctx, p, r.ID))
	var stored models.Application
	require.NoError(t, env.DB.First(&stored, "id = ?", app.ID).Error)
	assert.Nil(t, stored.ResumeID)
}

func TestAnalyzeUnreadablePDF(t *testing.T) {
	env := newEnv(t)
	svc := NewResumeService(env.DB, env.Storage, env.LLM)
	_, p := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	ctx := context.Background()

	r, err := svc.Upload(ctx, p, "cv.pdf", "application/pdf", fakePDF)
	require.NoError(t, err)

	_, err = svc.Analyze(ctx, p, r.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Analyze(ctx, p, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadResumeStopsOnCountFailure(t *testing.T) {
	env := newEnv(t)
	svc := NewResumeService(env.DB, env.Storage, env.LLM)
	_, p := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	failing := failReads(t, env.DB, "resumes")

	*failing = true
	_, err := svc.Upload(context.Background(), p, "cv.pdf", "application/pdf", fakePDF)
	assert.ErrorIs(t, err, errDatabaseDown)

	*failing = false
	list, err := svc.List(p)
	require.NoError(t, err)
	assert.Empty(t, list)
}
