package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"gorm.io/gorm"
)

type SubjectRepository interface {
	Create(ctx context.Context, subject *entity.Subject) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Subject, error)
	FindAll(ctx context.Context) ([]*entity.Subject, error)
	AssignProfessor(ctx context.Context, subjectID, userID uuid.UUID) error
	IsProfessor(ctx context.Context, subjectID, userID uuid.UUID) (bool, error)
	ListByProfessor(ctx context.Context, userID uuid.UUID) ([]*entity.Subject, error)
	EnrollStudent(ctx context.Context, subjectID, studentID uuid.UUID) error
	ListEnrolledStudentIDs(ctx context.Context, subjectID uuid.UUID) ([]uuid.UUID, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Subject, error)
}

type subjectRepository struct {
	db *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) Create(ctx context.Context, subject *entity.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Subject, error) {
	var subject entity.Subject
	if err := r.db.WithContext(ctx).First(&subject, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepository) FindAll(ctx context.Context) ([]*entity.Subject, error) {
	var subjects []*entity.Subject
	if err := r.db.WithContext(ctx).Order("year asc, name asc").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepository) AssignProfessor(ctx context.Context, subjectID, userID uuid.UUID) error {
	assignment := entity.SubjectProfessor{SubjectID: subjectID, UserID: userID}
	return r.db.WithContext(ctx).FirstOrCreate(&assignment).Error
}

func (r *subjectRepository) IsProfessor(ctx context.Context, subjectID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.SubjectProfessor{}).
		Where("subject_id = ? AND user_id = ?", subjectID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *subjectRepository) ListByProfessor(ctx context.Context, userID uuid.UUID) ([]*entity.Subject, error) {
	var subjects []*entity.Subject
	if err := r.db.WithContext(ctx).
		Joins("JOIN subject_professors sp ON sp.subject_id = subjects.id").
		Where("sp.user_id = ?", userID).
		Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepository) EnrollStudent(ctx context.Context, subjectID, studentID uuid.UUID) error {
	enrollment := entity.SubjectEnrollment{SubjectID: subjectID, StudentID: studentID}
	return r.db.WithContext(ctx).FirstOrCreate(&enrollment).Error
}

func (r *subjectRepository) ListEnrolledStudentIDs(ctx context.Context, subjectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&entity.SubjectEnrollment{}).
		Where("subject_id = ?", subjectID).
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *subjectRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Subject, error) {
	var subjects []*entity.Subject
	if err := r.db.WithContext(ctx).
		Joins("JOIN subject_enrollments se ON se.subject_id = subjects.id").
		Where("se.student_id = ?", studentID).
		Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}
