package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteInput struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Title     string `json:"title" binding:"required,max=150"`
	Body      string `json:"body" binding:"required"`
}

type NoteResponse struct {
	ID         uuid.UUID `json:"id"`
	StudentID  uuid.UUID `json:"student_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateSuggestionInput struct {
	Category  string `json:"category" binding:"required,oneof=suggestion complaint"`
	Body      string `json:"body" binding:"required"`
	Anonymous bool   `json:"anonymous"`
}

type SuggestionResponse struct {
	ID        uuid.UUID  `json:"id"`
	AuthorID  *uuid.UUID `json:"author_id,omitempty"`
	Category  string     `json:"category"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
}
