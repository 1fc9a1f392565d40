package models

type Role string

const (
	RoleSeeker Role = "SEEKER"
	RoleFinder Role = "FINDER"
)

func (r Role) Valid() bool {
	return r == RoleSeeker || r == RoleFinder
}

type JobType string

const (
	JobTypeInternship JobType = "INTERNSHIP"
	JobTypeProject    JobType = "PROJECT"
	JobTypeGig        JobType = "GIG"
	JobTypePartTime   JobType = "PART_TIME"
	JobTypeFullTime   JobType = "FULL_TIME"
)

func (t JobType) Valid() bool {
	switch t {
	case JobTypeInternship, JobTypeProject, JobTypeGig, JobTypePartTime, JobTypeFullTime:
		return true
	}
	return false
}

type JobStatus string

const (
	JobStatusPending  JobStatus = "PENDING"
	JobStatusApproved JobStatus = "APPROVED"
	JobStatusRejected JobStatus = "REJECTED"
)

// CanModerateTo reports whether an admin may move a job from s to next.
// Both terminal states may be revisited; nothing moves back to PENDING by moderation.
func (s JobStatus) CanModerateTo(next JobStatus) bool {
	if next != JobStatusApproved && next != JobStatusRejected {
		return false
	}
	return s != next
}

type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "PENDING"
	ApplicationShortlisted ApplicationStatus = "SHORTLISTED"
	ApplicationAccepted    ApplicationStatus = "ACCEPTED"
	ApplicationRejected    ApplicationStatus = "REJECTED"
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending:     {ApplicationShortlisted, ApplicationAccepted, ApplicationRejected},
	ApplicationShortlisted: {ApplicationAccepted, ApplicationRejected},
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationShortlisted, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type CallRequestStatus string

const (
	CallPending  CallRequestStatus = "PENDING"
	CallAccepted CallRequestStatus = "ACCEPTED"
	CallRejected CallRequestStatus = "REJECTED"
)

func (s CallRequestStatus) CanTransitionTo(next CallRequestStatus) bool {
	return s == CallPending && (next == CallAccepted || next == CallRejected)
}

type NotificationType string

const (
	NotifyApplicationReceived NotificationType = "APPLICATION_RECEIVED"
	NotifyApplicationStatus   NotificationType = "APPLICATION_STATUS"
	NotifyCallRequest         NotificationType = "CALL_REQUEST"
	NotifyCallResponse        NotificationType = "CALL_RESPONSE"
	NotifyJobApproved         NotificationType = "JOB_APPROVED"
	NotifyJobRejected         NotificationType = "JOB_REJECTED"
	NotifyPaymentSucceeded    NotificationType = "PAYMENT_SUCCEEDED"
	NotifyPaymentFailed       NotificationType = "PAYMENT_FAILED"
	NotifySubscription        NotificationType = "SUBSCRIPTION_UPDATED"
)
