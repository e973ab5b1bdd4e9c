package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"gorm.io/gorm"
)

type NoteRepository interface {
	CreateNote(ctx context.Context, note *entity.Note) error
	FindNoteByID(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	ListNotesByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Note, error)
	DeleteNote(ctx context.Context, id uuid.UUID) error

	CreateSuggestion(ctx context.Context, suggestion *entity.Suggestion) error
	ListSuggestions(ctx context.Context, limit, offset int) ([]*entity.Suggestion, error)
}

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) CreateNote(ctx context.Context, note *entity.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *noteRepository) FindNoteByID(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	var note entity.Note
	if err := r.db.WithContext(ctx).
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		First(&note, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) ListNotesByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Note, error) {
	var notes []*entity.Note
	if err := r.db.WithContext(ctx).
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepository) DeleteNote(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Note{}, "id = ?", id).Error
}

func (r *noteRepository) CreateSuggestion(ctx context.Context, suggestion *entity.Suggestion) error {
	return r.db.WithContext(ctx).Create(suggestion).Error
}

func (r *noteRepository) ListSuggestions(ctx context.Context, limit, offset int) ([]*entity.Suggestion, error) {
	var suggestions []*entity.Suggestion
	if err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&suggestions).Error; err != nil {
		return nil, err
	}
	return suggestions, nil
}
