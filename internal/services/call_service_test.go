package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/justsurfingit/campus-hire/internal/config"
	"github.com/justsurfingit/campus-hire/internal/database/dbtest"
	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callFixture struct {
	env    *testEnv
	svc    *CallService
	owner  *models.Profile
	seeker *models.Profile
	job    *models.Job
}

func newCallFixture(t *testing.T) *callFixture {
	env := newEnv(t)
	_, owner := dbtest.User(t, env.DB, "fay", models.RoleFinder)
	_, seeker := dbtest.User(t, env.DB, "sam", models.RoleSeeker)
	job := dbtest.OpenJob(t, env.DB, owner)
	return &callFixture{
		env:    env,
		svc:    NewCallService(env.DB, NewVideoService(config.VideoConfig{}), env.Notifications, env.Emails),
		owner:  owner,
		seeker: seeker,
		job:    job,
	}
}

func (f *callFixture) apply(t *testing.T) {
	t.Helper()
	require.NoError(t, f.env.DB.Create(&models.Application{JobID: f.job.ID, ApplicantID: f.seeker.ID}).Error)
}

func TestCreateCallRequestRules(t *testing.T) {
	f := newCallFixture(t)

	_, err := f.svc.Create(f.seeker, &dtos.CallRequestCreate{JobID: f.job.ID})
	assert.ErrorIs(t, err, ErrValidation, "must apply first")

	_, err = f.svc.Create(f.owner, &dtos.CallRequestCreate{JobID: f.job.ID})
	assert.ErrorIs(t, err, ErrValidation, "own job")

	_, err = f.svc.Create(f.seeker, &dtos.CallRequestCreate{JobID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	f.apply(t)
	past := time.Now().Add(-time.Hour)
	_, err = f.svc.Create(f.seeker, &dtos.CallRequestCreate{JobID: f.job.ID, ProposedTime: &past})
	assert.ErrorIs(t, err, ErrValidation)

	call, err := f.svc.Create(f.seeker, &dtos.CallRequestCreate{JobID: f.job.ID, Message: "Tuesday?"})
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, call.ReceiverID)
	assert.Equal(t, models.CallPending, call.Status)

	_, err = f.svc.Create(f.seeker, &dtos.CallRequestCreate{JobID: f.job.ID})
	assert.ErrorIs(t, err, ErrValidation, "one pending request at a time")

	assert.Equal(t, []models.NotificationType{models.NotifyCallRequest}, f.env.notificationTypes(t, f.owner.ID))
}

func TestRespondToCallProvisionsRoom(t *testing.T) {
	f := newCallFixture(t)
	f.apply(t)
	ctx := context.Background()
	call, err := f.svc.Create(f.seeker, &dtos.CallRequestCreate{JobID: f.job.ID})
	require.NoError(t, err)

	_, err = f.svc.Token(f.seeker, call.ID)
	assert.ErrorIs(t, err, ErrValidation, "not accepted yet")

	_, err = f.svc.Respond(ctx, f.seeker, call.ID, "ACCEPTED")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Respond(ctx, f.owner, call.ID, "MAYBE")
	assert.ErrorIs(t, err, ErrValidation)

	accepted, err := f.svc.Respond(ctx, f.owner, call.ID, "accepted")
	require.NoError(t, err)
	assert.Equal(t, models.CallAccepted, accepted.Status)
	assert.True(t, accepted.IsMockRoom)
	assert.True(t, strings.HasPrefix(accepted.RoomID, mockRoomPrefix))
	assert.NotNil(t, accepted.RespondedAt)

	_, err = f.svc.Respond(ctx, f.owner, call.ID, "REJECTED")
	assert.ErrorIs(t, err, ErrValidation, "already answered")

	host, err := f.svc.Token(f.owner, call.ID)
	require.NoError(t, err)
	assert.Equal(t, roleHost, host.Role)
	assert.True(t, host.Mock)
	guest, err := f.svc.Token(f.seeker, call.ID)
	require.NoError(t, err)
	assert.Equal(t, roleGuest, guest.Role)
	assert.Equal(t, accepted.RoomID, guest.RoomID)

	_, stranger := dbtest.User(t, f.env.DB, "zed", models.RoleSeeker)
	_, err = f.svc.Token(stranger, call.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Equal(t, []models.NotificationType{models.NotifyCallResponse}, f.env.notificationTypes(t, f.seeker.ID))
	f.env.Emails.Wait()
	assert.Len(t, f.env.Mailer.messages(), 2)
}

func TestListCallsByDirection(t *testing.T) {
	f := newCallFixture(t)
	f.apply(t)
	_, err := f.svc.Create(f.seeker, &dtos.CallRequestCreate{JobID: f.job.ID})
	require.NoError(t, err)

	incoming, err := f.svc.List(f.owner, CallDirectionIncoming)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)

	outgoing, err := f.svc.List(f.owner, CallDirectionOutgoing)
	require.NoError(t, err)
	assert.Empty(t, outgoing)

	all, err := f.svc.List(f.seeker, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, f.job.ID, all[0].Job.ID)

	_, err = f.svc.List(f.seeker, "sideways")
	assert.ErrorIs(t, err, ErrValidation)
}
