package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"gorm.io/gorm"
)

type AttendanceRepository interface {
	FindByKey(ctx context.Context, studentID uuid.UUID, date time.Time, subject string) (*entity.AttendanceRecord, error)
	Create(ctx context.Context, record *entity.AttendanceRecord) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.AttendanceStatus) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.AttendanceRecord, error)
	ListBySubjectMonth(ctx context.Context, subject string, from, to time.Time) ([]*entity.AttendanceRecord, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) FindByKey(ctx context.Context, studentID uuid.UUID, date time.Time, subject string) (*entity.AttendanceRecord, error) {
	var record entity.AttendanceRecord
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND date = ? AND subject = ?", studentID, date, subject).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepository) Create(ctx context.Context, record *entity.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *attendanceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.AttendanceStatus) error {
	return r.db.WithContext(ctx).
		Model(&entity.AttendanceRecord{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *attendanceRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.AttendanceRecord, error) {
	var records []*entity.AttendanceRecord
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("date asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepository) ListBySubjectMonth(ctx context.Context, subject string, from, to time.Time) ([]*entity.AttendanceRecord, error) {
	var records []*entity.AttendanceRecord
	if err := r.db.WithContext(ctx).
		Where("subject = ? AND date >= ? AND date < ?", subject, from, to).
		Order("date asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
