package note

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/unicampus/portal/internal/entity"
	"github.com/unicampus/portal/internal/modules/note/dto"
	"github.com/unicampus/portal/internal/modules/note/repository"
	userrepo "github.com/unicampus/portal/internal/modules/user/repository"
	"github.com/unicampus/portal/pkg/apperror"
	"gorm.io/gorm"
)

type NoteService interface {
	CreateNote(ctx context.Context, authorID uuid.UUID, input dto.CreateNoteInput) (*dto.NoteResponse, error)
	ListStudentNotes(ctx context.Context, studentID uuid.UUID) ([]dto.NoteResponse, error)
	DeleteNote(ctx context.Context, actor *entity.User, noteID uuid.UUID) error

	SubmitSuggestion(ctx context.Context, authorID uuid.UUID, input dto.CreateSuggestionInput) (*dto.SuggestionResponse, error)
	ListSuggestions(ctx context.Context, limit, offset int) ([]dto.SuggestionResponse, error)
}

type noteService struct {
	repo      repository.NoteRepository
	users     userrepo.UserRepository
	sanitizer *bluemonday.Policy
}

func NewNoteService(repo repository.NoteRepository, users userrepo.UserRepository) NoteService {
	return &noteService{
		repo:  repo,
		users: users,
		// Bodies are user-authored free text rendered in the web client.
		sanitizer: bluemonday.UGCPolicy(),
	}
}

func (s *noteService) CreateNote(ctx context.Context, authorID uuid.UUID, input dto.CreateNoteInput) (*dto.NoteResponse, error) {
	studentID, err := uuid.Parse(input.StudentID)
	if err != nil {
		return nil, apperror.Validation("invalid student id")
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperror.AppError{Code: 404, Message: "student not found", Err: apperror.ErrNotFound}
		}
		return nil, &apperror.AppError{Code: 500, Message: "failed to load student", Err: err}
	}
	if student.Role.Name != entity.RoleStudent {
		return nil, apperror.Validation("notes can only be attached to students")
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(input.Body))
	if body == "" {
		return nil, apperror.Validation("note body must not be empty")
	}

	note := &entity.Note{
		StudentID: studentID,
		AuthorID:  authorID,
		Title:     strings.TrimSpace(input.Title),
		Body:      body,
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to create note", Err: err}
	}
	return toNoteResponse(note), nil
}

func (s *noteService) ListStudentNotes(ctx context.Context, studentID uuid.UUID) ([]dto.NoteResponse, error) {
	notes, err := s.repo.ListNotesByStudent(ctx, studentID)
	if err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to list notes", Err: err}
	}

	out := make([]dto.NoteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, *toNoteResponse(note))
	}
	return out, nil
}

// DeleteNote is restricted to the author and admins.
func (s *noteService) DeleteNote(ctx context.Context, actor *entity.User, noteID uuid.UUID) error {
	note, err := s.repo.FindNoteByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperror.AppError{Code: 404, Message: "note not found", Err: apperror.ErrNotFound}
		}
		return &apperror.AppError{Code: 500, Message: "failed to load note", Err: err}
	}

	if note.AuthorID != actor.ID && actor.Role.Name != entity.RoleAdmin {
		return &apperror.AppError{Code: 403, Message: "only the author can delete this note", Err: apperror.ErrForbidden}
	}

	if err := s.repo.DeleteNote(ctx, noteID); err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to delete note", Err: err}
	}
	return nil
}

func (s *noteService) SubmitSuggestion(ctx context.Context, authorID uuid.UUID, input dto.CreateSuggestionInput) (*dto.SuggestionResponse, error) {
	body := strings.TrimSpace(s.sanitizer.Sanitize(input.Body))
	if body == "" {
		return nil, apperror.Validation("suggestion body must not be empty")
	}

	suggestion := &entity.Suggestion{
		Category: input.Category,
		Body:     body,
	}
	if !input.Anonymous {
		suggestion.AuthorID = &authorID
	}

	if err := s.repo.CreateSuggestion(ctx, suggestion); err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to submit suggestion", Err: err}
	}
	return toSuggestionResponse(suggestion), nil
}

func (s *noteService) ListSuggestions(ctx context.Context, limit, offset int) ([]dto.SuggestionResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	suggestions, err := s.repo.ListSuggestions(ctx, limit, offset)
	if err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to list suggestions", Err: err}
	}

	out := make([]dto.SuggestionResponse, 0, len(suggestions))
	for _, suggestion := range suggestions {
		out = append(out, *toSuggestionResponse(suggestion))
	}
	return out, nil
}

func toNoteResponse(note *entity.Note) *dto.NoteResponse {
	resp := &dto.NoteResponse{
		ID:        note.ID,
		StudentID: note.StudentID,
		AuthorID:  note.AuthorID,
		Title:     note.Title,
		Body:      note.Body,
		CreatedAt: note.CreatedAt,
	}
	if note.Author != nil {
		resp.AuthorName = note.Author.Name
	}
	return resp
}

func toSuggestionResponse(suggestion *entity.Suggestion) *dto.SuggestionResponse {
	return &dto.SuggestionResponse{
		ID:        suggestion.ID,
		AuthorID:  suggestion.AuthorID,
		Category:  suggestion.Category,
		Body:      suggestion.Body,
		CreatedAt: suggestion.CreatedAt,
	}
}
