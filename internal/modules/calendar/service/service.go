package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"github.com/unicampus/portal/internal/modules/calendar/dto"
	"github.com/unicampus/portal/internal/modules/calendar/repository"
	notification "github.com/unicampus/portal/internal/modules/notification/service"
	userrepo "github.com/unicampus/portal/internal/modules/user/repository"
	"github.com/unicampus/portal/pkg/apperror"
	"gorm.io/gorm"
)

type CalendarService interface {
	CreateEvent(ctx context.Context, creatorID uuid.UUID, input dto.CreateEventInput) (*dto.EventResponse, error)
	ListMonth(ctx context.Context, role string, year, month int) ([]dto.EventResponse, error)
	UpdateEvent(ctx context.Context, eventID uuid.UUID, input dto.UpdateEventInput) (*dto.EventResponse, error)
	DeleteEvent(ctx context.Context, eventID uuid.UUID) error
}

type calendarService struct {
	repo     repository.CalendarRepository
	users    userrepo.UserRepository
	notifier notification.NotificationService
}

func NewCalendarService(repo repository.CalendarRepository, users userrepo.UserRepository, notifier notification.NotificationService) CalendarService {
	return &calendarService{repo: repo, users: users, notifier: notifier}
}

func (s *calendarService) CreateEvent(ctx context.Context, creatorID uuid.UUID, input dto.CreateEventInput) (*dto.EventResponse, error) {
	date, err := time.Parse(time.RFC3339, input.Date)
	if err != nil {
		return nil, apperror.Validation("date must be in RFC 3339 format")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.Validation("title must not be empty")
	}

	if input.AudienceRole != nil && !entity.KnownRole(*input.AudienceRole) {
		return nil, apperror.Validation("unknown audience role: %s", *input.AudienceRole)
	}

	event := &entity.CalendarEvent{
		Title:        title,
		Description:  input.Description,
		Date:         date,
		AudienceRole: input.AudienceRole,
		CreatedByID:  creatorID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to create event", Err: err}
	}

	go s.notifyAudience(event)

	return toEventResponse(event), nil
}

// notifyAudience fans out event_published notifications to every user the
// event addresses. Runs detached from the request.
func (s *calendarService) notifyAudience(event *entity.CalendarEvent) {
	ctx := context.Background()

	var (
		audience []*entity.User
		err      error
	)
	if event.AudienceRole != nil {
		audience, err = s.users.ListByRole(ctx, *event.AudienceRole)
	} else {
		audience, err = s.users.FindAll(ctx)
	}
	if err != nil {
		return
	}

	for _, user := range audience {
		if user.ID == event.CreatedByID {
			continue
		}
		s.notifier.CreateNotification(ctx, &entity.Notification{
			UserID:     user.ID,
			ActorID:    event.CreatedByID,
			EntityID:   event.ID,
			EntityType: "calendar_event",
			Type:       entity.NotificationEventPublished,
			Message:    fmt.Sprintf("New event: %s on %s", event.Title, event.Date.Format("2006-01-02")),
		})
	}
}

func (s *calendarService) ListMonth(ctx context.Context, role string, year, month int) ([]dto.EventResponse, error) {
	if month < 1 || month > 12 {
		return nil, apperror.Validation("month must be between 1 and 12")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	events, err := s.repo.ListForRole(ctx, role, from, to)
	if err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to list events", Err: err}
	}

	out := make([]dto.EventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, *toEventResponse(event))
	}
	return out, nil
}

func (s *calendarService) UpdateEvent(ctx context.Context, eventID uuid.UUID, input dto.UpdateEventInput) (*dto.EventResponse, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperror.AppError{Code: 404, Message: "event not found", Err: apperror.ErrNotFound}
		}
		return nil, &apperror.AppError{Code: 500, Message: "failed to load event", Err: err}
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperror.Validation("title must not be empty")
		}
		event.Title = title
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.Date != nil {
		date, err := time.Parse(time.RFC3339, *input.Date)
		if err != nil {
			return nil, apperror.Validation("date must be in RFC 3339 format")
		}
		event.Date = date
	}
	if input.AudienceRole != nil {
		if *input.AudienceRole == "" {
			event.AudienceRole = nil
		} else if !entity.KnownRole(*input.AudienceRole) {
			return nil, apperror.Validation("unknown audience role: %s", *input.AudienceRole)
		} else {
			event.AudienceRole = input.AudienceRole
		}
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to update event", Err: err}
	}
	return toEventResponse(event), nil
}

func (s *calendarService) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperror.AppError{Code: 404, Message: "event not found", Err: apperror.ErrNotFound}
		}
		return &apperror.AppError{Code: 500, Message: "failed to load event", Err: err}
	}

	if err := s.repo.Delete(ctx, eventID); err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to delete event", Err: err}
	}
	return nil
}

func toEventResponse(event *entity.CalendarEvent) *dto.EventResponse {
	return &dto.EventResponse{
		ID:           event.ID,
		Title:        event.Title,
		Description:  event.Description,
		Date:         event.Date,
		AudienceRole: event.AudienceRole,
		CreatedByID:  event.CreatedByID,
	}
}
