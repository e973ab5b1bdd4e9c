package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"gorm.io/gorm"
)

type GradeRepository interface {
	Create(ctx context.Context, grade *entity.Grade) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Grade, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Grade, error)
	Update(ctx context.Context, grade *entity.Grade) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type gradeRepository struct {
	db *gorm.DB
}

func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) Create(ctx context.Context, grade *entity.Grade) error {
	return r.db.WithContext(ctx).Create(grade).Error
}

func (r *gradeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Grade, error) {
	var grade entity.Grade
	if err := r.db.WithContext(ctx).Preload("Subject").First(&grade, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &grade, nil
}

func (r *gradeRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Grade, error) {
	var grades []*entity.Grade
	if err := r.db.WithContext(ctx).
		Preload("Subject").
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

func (r *gradeRepository) Update(ctx context.Context, grade *entity.Grade) error {
	return r.db.WithContext(ctx).Save(grade).Error
}

func (r *gradeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Grade{}, "id = ?", id).Error
}
