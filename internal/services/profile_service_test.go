package services

import (
	"context"
	"strings"
	"testing"

	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newUser(t *testing.T, env *testEnv, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Grace Hopper"}
	require.NoError(t, env.DB.Create(u).Error)
	return u
}

func TestEnsureForUserCreatesOnce(t *testing.T) {
	env := newEnv(t)
	svc := NewProfileService(env.DB, env.Storage, func(email string) bool { return email == "dean@campus.edu" })

	u := newUser(t, env, "grace@campus.edu")
	p, err := svc.EnsureForUser(u)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeeker, p.Role)
	assert.Equal(t, "Grace Hopper", p.FullName)
	assert.False(t, p.IsAdmin)

	again, err := svc.EnsureForUser(u)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)

	dean, err := svc.EnsureForUser(newUser(t, env, "dean@campus.edu"))
	require.NoError(t, err)
	assert.True(t, dean.IsAdmin)
}

func TestCreateAndUpdateProfile(t *testing.T) {
	env := newEnv(t)
	svc := NewProfileService(env.DB, env.Storage, nil)
	u := newUser(t, env, "grace@campus.edu")

	p, err := svc.Create(u, &dtos.ProfileRequest{
		Role:   ptr("finder"),
		Major:  ptr(" Computer Science "),
		Skills: []string{"Go", " go ", "", "SQL"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleFinder, p.Role)
	assert.Equal(t, "Computer Science", p.Major)
	assert.Equal(t, []string{"Go", "SQL"}, []string(p.Skills))

	_, err = svc.Create(u, &dtos.ProfileRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(p, &dtos.ProfileRequest{Role: ptr("wizard")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(p, &dtos.ProfileRequest{FullName: ptr("  ")})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.Update(p, &dtos.ProfileRequest{Bio: ptr("Compilers."), Interests: []string{"robotics"}})
	require.NoError(t, err)
	assert.Equal(t, "Compilers.", updated.Bio)

	reloaded, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"robotics"}, []string(reloaded.Interests))
	assert.Equal(t, "Computer Science", reloaded.Major)

	_, err = svc.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfileKeepsOtherWriters(t *testing.T) {
	env := newEnv(t)
	svc := NewProfileService(env.DB, env.Storage, nil)
	p, err := svc.EnsureForUser(newUser(t, env, "grace@campus.edu"))
	require.NoError(t, err)

	// written by checkout and avatar upload after p was loaded
	require.NoError(t, env.DB.Model(&models.Profile{}).Where("id = ?", p.ID).
		Updates(map[string]any{"stripe_customer_id": "cus_1", "avatar_url": "https://cdn.test/a.png"}).Error)

	updated, err := svc.Update(p, &dtos.ProfileRequest{Bio: ptr("Compilers.")})
	require.NoError(t, err)
	assert.Equal(t, "Compilers.", updated.Bio)
	assert.Equal(t, "cus_1", updated.StripeCustomerID)
	assert.Equal(t, "https://cdn.test/a.png", updated.AvatarURL)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUploadAvatar(t *testing.T) {
	env := newEnv(t)
	svc := NewProfileService(env.DB, env.Storage, nil)
	p, err := svc.EnsureForUser(newUser(t, env, "grace@campus.edu"))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.UploadAvatar(ctx, p, "application/pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UploadAvatar(ctx, p, "image/png", make([]byte, maxAvatarBytes+1))
	assert.ErrorIs(t, err, ErrValidation)

	// the claimed type is not trusted
	_, err = svc.UploadAvatar(ctx, p, "image/png", []byte("<script>alert(1)</script>"))
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UploadAvatar(ctx, p, "image/png", pngBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.AvatarURL, "https://campus.test/uploads/avatars/"+p.ID+"/"))
	assert.True(t, strings.HasSuffix(updated.AvatarURL, ".png"))

	jpeg, err := svc.UploadAvatar(ctx, p, "image/png", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(jpeg.AvatarURL, ".jpg"))

	reloaded, err := svc.GetByUserID(p.UserID)
	require.NoError(t, err)
	assert.Equal(t, jpeg.AvatarURL, reloaded.AvatarURL)
}
