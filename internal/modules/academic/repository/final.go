package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"gorm.io/gorm"
)

type FinalRepository interface {
	CreateExam(ctx context.Context, exam *entity.FinalExam) error
	FindExamByID(ctx context.Context, id uuid.UUID) (*entity.FinalExam, error)
	ListExams(ctx context.Context) ([]*entity.FinalExam, error)
	// DeleteExam removes the exam together with all of its enrollments.
	DeleteExam(ctx context.Context, id uuid.UUID) error
	CreateEnrollment(ctx context.Context, enrollment *entity.FinalEnrollment) error
	DeleteEnrollment(ctx context.Context, examID, studentID uuid.UUID) error
	HasEnrollment(ctx context.Context, examID, studentID uuid.UUID) (bool, error)
	CountEnrollments(ctx context.Context, examID uuid.UUID) (int64, error)
}

type finalRepository struct {
	db *gorm.DB
}

func NewFinalRepository(db *gorm.DB) FinalRepository {
	return &finalRepository{db: db}
}

func (r *finalRepository) CreateExam(ctx context.Context, exam *entity.FinalExam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *finalRepository) FindExamByID(ctx context.Context, id uuid.UUID) (*entity.FinalExam, error) {
	var exam entity.FinalExam
	if err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Enrollments").
		First(&exam, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *finalRepository) ListExams(ctx context.Context) ([]*entity.FinalExam, error) {
	var exams []*entity.FinalExam
	if err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Enrollments").
		Order("date asc").
		Find(&exams).Error; err != nil {
		return nil, err
	}
	return exams, nil
}

func (r *finalRepository) DeleteExam(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.FinalEnrollment{}, "exam_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.FinalExam{}, "id = ?", id).Error
	})
}

func (r *finalRepository) CreateEnrollment(ctx context.Context, enrollment *entity.FinalEnrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *finalRepository) DeleteEnrollment(ctx context.Context, examID, studentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&entity.FinalEnrollment{}, "exam_id = ? AND student_id = ?", examID, studentID).Error
}

func (r *finalRepository) HasEnrollment(ctx context.Context, examID, studentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.FinalEnrollment{}).
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *finalRepository) CountEnrollments(ctx context.Context, examID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.FinalEnrollment{}).
		Where("exam_id = ?", examID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
