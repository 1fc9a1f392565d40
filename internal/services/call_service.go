package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/campus-hire/internal/dtos"
	"github.com/justsurfingit/campus-hire/internal/models"
	"gorm.io/gorm"
)

const (
	CallDirectionIncoming = "incoming"
	CallDirectionOutgoing = "outgoing"

	roleHost  = "host"
	roleGuest = "guest"
)

type CallService struct {
	DB            *gorm.DB
	Video         *VideoService
	Notifications *NotificationService
	Emails        *EmailService
}

func NewCallService(db *gorm.DB, video *VideoService, n *NotificationService, e *EmailService) *CallService {
	return &CallService{DB: db, Video: video, Notifications: n, Emails: e}
}

// Create asks a job owner for a video interview. Only applicants may ask, once at a time.
func (s *CallService) Create(requester *models.Profile, req *dtos.CallRequestCreate) (*models.CallRequest, error) {
	var job models.Job
	if err := s.DB.Preload("CreatedBy").Where("id = ?", req.JobID).First(&job).Error; err != nil {
		return nil, notFound(err, "job")
	}
	if job.CreatedByID == requester.ID {
		return nil, invalid("You cannot request a call for your own job")
	}
	var applied int64
	if err := s.DB.Model(&models.Application{}).
		Where("job_id = ? AND applicant_id = ?", job.ID, requester.ID).Count(&applied).Error; err != nil {
		return nil, err
	}
	if applied == 0 {
		return nil, invalid("You must apply to this job before requesting a call")
	}
	var pending int64
	if err := s.DB.Model(&models.CallRequest{}).
		Where("job_id = ? AND requester_id = ? AND status = ?", job.ID, requester.ID, models.CallPending).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, invalid("You already have a pending call request for this job")
	}
	if req.ProposedTime != nil && req.ProposedTime.Before(time.Now()) {
		return nil, invalid("Proposed time must be in the future")
	}

	call := &models.CallRequest{
		JobID:        job.ID,
		RequesterID:  requester.ID,
		ReceiverID:   job.CreatedByID,
		Message:      strings.TrimSpace(req.Message),
		ProposedTime: req.ProposedTime,
		Status:       models.CallPending,
	}
	if err := s.DB.Create(call).Error; err != nil {
		return nil, err
	}

	s.Notifications.Notify(NotificationInput{
		UserID:  job.CreatedByID,
		Type:    models.NotifyCallRequest,
		Title:   "Call request",
		Message: fmt.Sprintf("%s would like a video call about %q.", requester.FullName, job.Title),
		Link:    "/calls",
		Data:    map[string]any{"callRequestId": call.ID, "jobId": job.ID},
	})
	if job.CreatedBy != nil {
		s.Emails.SendAsync(job.CreatedBy.Email, job.CreatedBy.FullName,
			"Call request for "+job.Title, "Someone wants to talk",
			fmt.Sprintf("%s requested a video call about %s.", requester.FullName, job.Title), "/calls")
	}
	call.Job = &job
	return call, nil
}

// List returns calls the profile sent, received, or both when direction is empty.
func (s *CallService) List(p *models.Profile, direction string) ([]models.CallRequest, error) {
	q := s.DB.Preload("Job").Preload("Requester").Preload("Receiver").Order("created_at DESC")
	switch direction {
	case CallDirectionIncoming:
		q = q.Where("receiver_id = ?", p.ID)
	case CallDirectionOutgoing:
		q = q.Where("requester_id = ?", p.ID)
	case "":
		q = q.Where("(receiver_id = ? OR requester_id = ?)", p.ID, p.ID)
	default:
		return nil, invalid("direction must be incoming or outgoing")
	}
	calls := []models.CallRequest{}
	err := q.Find(&calls).Error
	return calls, err
}

func (s *CallService) find(id string) (*models.CallRequest, error) {
	var call models.CallRequest
	err := s.DB.Preload("Job").Preload("Requester").Preload("Receiver").Where("id = ?", id).First(&call).Error
	if err != nil {
		return nil, notFound(err, "call request")
	}
	return &call, nil
}

// Respond accepts or rejects a call. Accepting provisions a video room.
func (s *CallService) Respond(ctx context.Context, receiver *models.Profile, id, status string) (*models.CallRequest, error) {
	call, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if call.ReceiverID != receiver.ID {
		return nil, forbidden("Only the job owner can respond to this call request")
	}
	next := models.CallRequestStatus(strings.ToUpper(status))
	if !call.Status.CanTransitionTo(next) {
		return nil, invalid("Cannot change call request from %s to %s", call.Status, status)
	}

	now := time.Now()
	updates := map[string]any{"status": next, "responded_at": now}
	if next == models.CallAccepted {
		title := "Interview"
		if call.Job != nil {
			title = call.Job.Title
		}
		room := s.Video.CreateRoom(ctx, "call-"+call.ID, "Interview for "+title)
		updates["room_id"] = room.ID
		updates["room_code"] = room.Code
		updates["is_mock_room"] = room.Mock
		call.RoomID, call.RoomCode, call.IsMockRoom = room.ID, room.Code, room.Mock
	}
	res := s.DB.Model(&models.CallRequest{}).Where("id = ? AND status = ?", call.ID, models.CallPending).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, invalid("Call request was already answered")
	}
	call.Status = next
	call.RespondedAt = &now

	jobTitle := ""
	if call.Job != nil {
		jobTitle = call.Job.Title
	}
	msg := fmt.Sprintf("Your call request for %q was %s.", jobTitle, strings.ToLower(string(next)))
	s.Notifications.Notify(NotificationInput{
		UserID:  call.RequesterID,
		Type:    models.NotifyCallResponse,
		Title:   "Call request " + strings.ToLower(string(next)),
		Message: msg,
		Link:    "/calls/" + call.ID,
		Data:    map[string]any{"callRequestId": call.ID, "status": next, "roomId": call.RoomID},
	})
	if call.Requester != nil {
		body := msg
		if next == models.CallAccepted {
			body += " Open the call page to join the video room."
		}
		s.Emails.SendAsync(call.Requester.Email, call.Requester.FullName,
			"Your call request was "+strings.ToLower(string(next)), "Call request update", body, "/calls/"+call.ID)
	}
	return call, nil
}

// Token issues a room token to a participant of an accepted call.
func (s *CallService) Token(p *models.Profile, id string) (*RoomToken, error) {
	call, err := s.find(id)
	if err != nil {
		return nil, err
	}
	var role string
	switch p.ID {
	case call.ReceiverID:
		role = roleHost
	case call.RequesterID:
		role = roleGuest
	default:
		return nil, forbidden("You are not a participant in this call")
	}
	if call.Status != models.CallAccepted || call.RoomID == "" {
		return nil, invalid("Call has not been accepted")
	}
	return s.Video.AppToken(call.RoomID, p.ID, role)
}
