package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplicationTransitions(t *testing.T) {
	tests := []struct {
		from, to ApplicationStatus
		want     bool
	}{
		{ApplicationPending, ApplicationShortlisted, true},
		{ApplicationPending, ApplicationAccepted, true},
		{ApplicationPending, ApplicationRejected, true},
		{ApplicationShortlisted, ApplicationAccepted, true},
		{ApplicationShortlisted, ApplicationPending, false},
		{ApplicationAccepted, ApplicationRejected, false},
		{ApplicationRejected, ApplicationShortlisted, false},
		{ApplicationPending, ApplicationPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestCallTransitions(t *testing.T) {
	assert.True(t, CallPending.CanTransitionTo(CallAccepted))
	assert.True(t, CallPending.CanTransitionTo(CallRejected))
	assert.False(t, CallAccepted.CanTransitionTo(CallRejected))
	assert.False(t, CallPending.CanTransitionTo(CallPending))
}

func TestJobModeration(t *testing.T) {
	assert.True(t, JobStatusPending.CanModerateTo(JobStatusApproved))
	assert.True(t, JobStatusRejected.CanModerateTo(JobStatusApproved))
	assert.False(t, JobStatusApproved.CanModerateTo(JobStatusApproved))
	assert.False(t, JobStatusApproved.CanModerateTo(JobStatusPending))
}

func TestJobIsOpen(t *testing.T) {
	assert.True(t, (&Job{IsPublished: true}).IsOpen())
	assert.False(t, (&Job{IsPublished: true, IsFilled: true}).IsOpen())
	assert.False(t, (&Job{}).IsOpen())
}
