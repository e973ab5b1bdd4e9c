package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"gorm.io/gorm"
)

type inMemoryAttendanceRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*entity.AttendanceRecord
}

func NewInMemoryAttendanceRepository() AttendanceRepository {
	return &inMemoryAttendanceRepository{
		records: make(map[uuid.UUID]*entity.AttendanceRecord),
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (r *inMemoryAttendanceRepository) FindByKey(ctx context.Context, studentID uuid.UUID, date time.Time, subject string) (*entity.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.records {
		if record.StudentID == studentID && record.Subject == subject && sameDay(record.Date, date) {
			return record, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *inMemoryAttendanceRepository) Create(ctx context.Context, record *entity.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	r.records[record.ID] = record
	return nil
}

func (r *inMemoryAttendanceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.AttendanceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	record.Status = status
	record.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryAttendanceRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.AttendanceRecord
	for _, record := range r.records {
		if record.StudentID == studentID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *inMemoryAttendanceRepository) ListBySubjectMonth(ctx context.Context, subject string, from, to time.Time) ([]*entity.AttendanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.AttendanceRecord
	for _, record := range r.records {
		if record.Subject != subject {
			continue
		}
		if record.Date.Before(from) || !record.Date.Before(to) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}
