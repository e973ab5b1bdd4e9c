package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"gorm.io/gorm"
)

type CalendarRepository interface {
	Create(ctx context.Context, event *entity.CalendarEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.CalendarEvent, error)
	// ListForRole returns events in [from, to) visible to the role: events
	// with no audience plus events addressed to that role.
	ListForRole(ctx context.Context, role string, from, to time.Time) ([]*entity.CalendarEvent, error)
	Update(ctx context.Context, event *entity.CalendarEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type calendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) CalendarRepository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) Create(ctx context.Context, event *entity.CalendarEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *calendarRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.CalendarEvent, error) {
	var event entity.CalendarEvent
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *calendarRepository) ListForRole(ctx context.Context, role string, from, to time.Time) ([]*entity.CalendarEvent, error) {
	var events []*entity.CalendarEvent
	if err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Where("audience_role IS NULL OR audience_role = ?", role).
		Order("date asc").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *calendarRepository) Update(ctx context.Context, event *entity.CalendarEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *calendarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.CalendarEvent{}, "id = ?", id).Error
}
