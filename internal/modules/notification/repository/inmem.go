package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
)

type inMemoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[uuid.UUID]*entity.Notification
}

func NewInMemoryNotificationRepository() NotificationRepository {
	return &inMemoryNotificationRepository{
		notifications: make(map[uuid.UUID]*entity.Notification),
	}
}

func (r *inMemoryNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	r.notifications[notification.ID] = notification
	return nil
}

func (r *inMemoryNotificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []entity.Notification
	for _, notification := range r.notifications {
		if notification.UserID == userID {
			out = append(out, *notification)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *inMemoryNotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notification, ok := r.notifications[id]; ok {
		notification.IsRead = true
	}
	return nil
}

func (r *inMemoryNotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, notification := range r.notifications {
		if notification.UserID == userID {
			notification.IsRead = true
		}
	}
	return nil
}

func (r *inMemoryNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, notification := range r.notifications {
		if notification.UserID == userID && !notification.IsRead {
			count++
		}
	}
	return count, nil
}
