package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSubjectInput struct {
	Name string `json:"name" binding:"required,max=100"`
	Year int    `json:"year" binding:"required,min=1,max=10"`
}

type AssignProfessorInput struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type EnrollStudentInput struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
}

type SubjectResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Year int       `json:"year"`
}

type CreateGradeInput struct {
	StudentID string  `json:"student_id" binding:"required,uuid"`
	SubjectID string  `json:"subject_id" binding:"required,uuid"`
	Term      string  `json:"term" binding:"required,max=50"`
	Score     float64 `json:"score" binding:"min=0,max=10"`
}

type UpdateGradeInput struct {
	Term  *string  `json:"term,omitempty" binding:"omitempty,max=50"`
	Score *float64 `json:"score,omitempty" binding:"omitempty,min=0,max=10"`
}

type GradeResponse struct {
	ID          uuid.UUID `json:"id"`
	StudentID   uuid.UUID `json:"student_id"`
	SubjectID   uuid.UUID `json:"subject_id"`
	SubjectName string    `json:"subject_name,omitempty"`
	Term        string    `json:"term"`
	Score       float64   `json:"score"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateFinalExamInput struct {
	SubjectID string `json:"subject_id" binding:"required,uuid"`
	Date      string `json:"date" binding:"required"` // RFC 3339
	Capacity  int    `json:"capacity" binding:"required,min=1"`
}

// FinalExamResponse carries the live seat count so clients can show
// availability without a second request.
type FinalExamResponse struct {
	ID          uuid.UUID `json:"id"`
	SubjectID   uuid.UUID `json:"subject_id"`
	SubjectName string    `json:"subject_name,omitempty"`
	Date        time.Time `json:"date"`
	Capacity    int       `json:"capacity"`
	Enrolled    int       `json:"enrolled"`
	IsEnrolled  bool      `json:"is_enrolled"`
}
