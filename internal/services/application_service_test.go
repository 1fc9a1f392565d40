package services

import (
	"context"
	"errors"
	"testing"

	"github.com/justsurfingit/campus-hire/internal/database/dbtest"
	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApplicationService(env *testEnv) *ApplicationService {
	return NewApplicationService(env.DB, env.LLM, env.Notifications, env.Emails)
}

func TestApplyInvariants(t *testing.T) {
	env := newEnv(t)
	svc := newApplicationService(env)
	ctx := context.Background()
	_, finder := dbtest.User(t, env.DB, "fay", models.RoleFinder)
	_, seeker := dbtest.User(t, env.DB, "sam", models.RoleSeeker, "Go")
	job := dbtest.OpenJob(t, env.DB, finder, "Go", "SQL")

	_, err := svc.Apply(ctx, seeker, &dtos.ApplicationRequest{JobID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Apply(ctx, finder, &dtos.ApplicationRequest{JobID: job.ID})
	assert.ErrorIs(t, err, ErrValidation, "own job")

	_, err = svc.Apply(ctx, seeker, &dtos.ApplicationRequest{JobID: job.ID, ResumeID: ptr("someone-elses")})
	assert.ErrorIs(t, err, ErrNotFound)

	app, err := svc.Apply(ctx, seeker, &dtos.ApplicationRequest{JobID: job.ID, CoverLetter: " hi ", ResumeID: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Equal(t, "hi", app.CoverLetter)
	assert.Nil(t, app.ResumeID)
	require.NotNil(t, app.MatchScore)
	assert.Equal(t, 10+35, *app.MatchScore, "heuristic: base plus half the skills")

	_, err = svc.Apply(ctx, seeker, &dtos.ApplicationRequest{JobID: job.ID})
	assert.ErrorIs(t, err, ErrValidation, "duplicate")

	var stored models.Job
	require.NoError(t, env.DB.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, 1, stored.ApplicationsCount)

	assert.Equal(t, []models.NotificationType{models.NotifyApplicationReceived}, env.notificationTypes(t, finder.ID))
	env.Emails.Wait()
	sent := env.Mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, finder.Email, sent[0].To)
}

func TestApplyToClosedJob(t *testing.T) {
	env := newEnv(t)
	svc := newApplicationService(env)
	_, finder := dbtest.User(t, env.DB, "fay", models.RoleFinder)
	_, seeker := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	job := dbtest.OpenJob(t, env.DB, finder)
	require.NoError(t, env.DB.Model(job).Update("is_filled", true).Error)

	_, err := svc.Apply(context.Background(), seeker, &dtos.ApplicationRequest{JobID: job.ID})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApplyUsesAIScoreWhenAvailable(t *testing.T) {
	env := newEnv(t)
	env.LLM = &LLMService{Client: &fakeModel{reply: constReply(`{"score": 91, "reason": "Strong Go background"}`)}}
	svc := newApplicationService(env)
	_, finder := dbtest.User(t, env.DB, "fay", models.RoleFinder)
	_, seeker := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	job := dbtest.OpenJob(t, env.DB, finder)

	app, err := svc.Apply(context.Background(), seeker, &dtos.ApplicationRequest{JobID: job.ID})
	require.NoError(t, err)
	assert.Equal(t, 91, *app.MatchScore)
	assert.Equal(t, "Strong Go background", app.MatchReason)
}

func TestApplyFallsBackWhenAIFails(t *testing.T) {
	env := newEnv(t)
	env.LLM = &LLMService{Client: &fakeModel{err: errors.New("quota")}}
	svc := newApplicationService(env)
	_, finder := dbtest.User(t, env.DB, "fay", models.RoleFinder)
	_, seeker := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	job := dbtest.OpenJob(t, env.DB, finder)

	app, err := svc.Apply(context.Background(), seeker, &dtos.ApplicationRequest{JobID: job.ID})
	require.NoError(t, err)
	assert.NotNil(t, app.MatchScore)
}

func TestApplicationStatusTransitions(t *testing.T) {
	env := newEnv(t)
	svc := newApplicationService(env)
	_, finder := dbtest.User(t, env.DB, "fay", models.RoleFinder)
	_, seeker := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	_, stranger := dbtest.User(t, env.DB, "zed", models.RoleSeeker)
	job := dbtest.OpenJob(t, env.DB, finder)
	app, err := svc.Apply(context.Background(), seeker, &dtos.ApplicationRequest{JobID: job.ID})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(seeker, app.ID, "ACCEPTED")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.UpdateStatus(finder, app.ID, "HIRED")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.UpdateStatus(finder, app.ID, "PENDING")
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UpdateStatus(finder, app.ID, "shortlisted")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationShortlisted, updated.Status)

	updated, err = svc.UpdateStatus(finder, app.ID, "ACCEPTED")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationAccepted, updated.Status)

	_, err = svc.UpdateStatus(finder, app.ID, "REJECTED")
	assert.ErrorIs(t, err, ErrValidation, "accepted is terminal")

	assert.ElementsMatch(t, []models.NotificationType{models.NotifyApplicationStatus, models.NotifyApplicationStatus},
		env.notificationTypes(t, seeker.ID))

	_, err = svc.Get(stranger, app.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	got, err := svc.Get(seeker, app.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.Job.ID)
	_, err = svc.Get(finder, app.ID)
	assert.NoError(t, err)
}

func TestListForJobOrdersByScore(t *testing.T) {
	env := newEnv(t)
	svc := newApplicationService(env)
	_, finder := dbtest.User(t, env.DB, "fay", models.RoleFinder)
	_, weak := dbtest.User(t, env.DB, "weak", models.RoleSeeker)
	_, strong := dbtest.User(t, env.DB, "strong", models.RoleSeeker, "go", "sql")
	job := dbtest.OpenJob(t, env.DB, finder, "Go", "SQL")
	ctx := context.Background()

	_, err := svc.Apply(ctx, weak, &dtos.ApplicationRequest{JobID: job.ID})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, strong, &dtos.ApplicationRequest{JobID: job.ID})
	require.NoError(t, err)

	_, err = svc.ListForJob(weak, job.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	apps, err := svc.ListForJob(finder, job.ID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, strong.ID, apps[0].ApplicantID)
	assert.Greater(t, *apps[0].MatchScore, *apps[1].MatchScore)

	mine, err := svc.ListMine(strong)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, job.Title, mine[0].Job.Title)
}

func TestWithdrawApplication(t *testing.T) {
	env := newEnv(t)
	svc := newApplicationService(env)
	_, finder := dbtest.User(t, env.DB, "fay", models.RoleFinder)
	_, seeker := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	job := dbtest.OpenJob(t, env.DB, finder)
	ctx := context.Background()

	app, err := svc.Apply(ctx, seeker, &dtos.ApplicationRequest{JobID: job.ID})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Withdraw(finder, app.ID), ErrForbidden)
	require.NoError(t, svc.Withdraw(seeker, app.ID))

	var stored models.Job
	require.NoError(t, env.DB.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, 0, stored.ApplicationsCount)

	again, err := svc.Apply(ctx, seeker, &dtos.ApplicationRequest{JobID: job.ID})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(finder, again.ID, "REJECTED")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Withdraw(seeker, again.ID), ErrValidation)
}

func TestApplyReportsResumeLookupFailure(t *testing.T) {
	env := newEnv(t)
	svc := newApplicationService(env)
	_, finder := dbtest.User(t, env.DB, "fay", models.RoleFinder)
	_, seeker := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	job := dbtest.OpenJob(t, env.DB, finder)

	*failReads(t, env.DB, "resumes") = true
	_, err := svc.Apply(context.Background(), seeker, &dtos.ApplicationRequest{JobID: job.ID, ResumeID: ptr("r1")})
	assert.ErrorIs(t, err, errDatabaseDown)
	assert.NotErrorIs(t, err, ErrNotFound)
}
