// Package dbtest opens throwaway sqlite databases and seeds fixtures for tests.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/justsurfingit/campus-hire/internal/database"
	"github.com/justsurfingit/campus-hire/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "campus.db")
	db, err := database.Open(sqlite.Open(path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// User creates a user with a profile of the given role.
func User(t testing.TB, db *gorm.DB, name string, role models.Role, skills ...string) (*models.User, *models.Profile) {
	t.Helper()
	email := name + "-" + uuid.NewString()[:8] + "@campus.edu"
	user := &models.User{Email: email, Name: name}
	require.NoError(t, db.Create(user).Error)
	profile := &models.Profile{
		UserID:   user.ID,
		Email:    email,
		FullName: name,
		Role:     role,
		Skills:   skills,
	}
	require.NoError(t, db.Create(profile).Error)
	return user, profile
}

// Admin creates an admin profile.
func Admin(t testing.TB, db *gorm.DB) (*models.User, *models.Profile) {
	t.Helper()
	user, profile := User(t, db, "admin", models.RoleFinder)
	require.NoError(t, db.Model(profile).Update("is_admin", true).Error)
	profile.IsAdmin = true
	return user, profile
}

// OpenJob creates an approved, published job owned by owner.
func OpenJob(t testing.TB, db *gorm.DB, owner *models.Profile, skills ...string) *models.Job {
	t.Helper()
	now := time.Now()
	job := &models.Job{
		Title:       "Research Assistant",
		Description: "Help the robotics lab build data pipelines.",
		Type:        models.JobTypeInternship,
		Skills:      skills,
		Status:      models.JobStatusApproved,
		IsPublished: true,
		PublishedAt: &now,
		CreatedByID: owner.ID,
	}
	require.NoError(t, db.Create(job).Error)
	return job
}

// Session creates a valid session token for user.
func Session(t testing.TB, db *gorm.DB, user *models.User) string {
	t.Helper()
	s := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(s).Error)
	return s.Token
}
