package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Subject struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Year      int       `gorm:"not null" json:"year"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (s *Subject) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type SubjectProfessor struct {
	SubjectID uuid.UUID `gorm:"type:uuid;primaryKey" json:"subject_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type SubjectEnrollment struct {
	SubjectID uuid.UUID `gorm:"type:uuid;primaryKey" json:"subject_id"`
	StudentID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"student_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Grade struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	Term      string    `gorm:"size:50;not null" json:"term"`
	Score     float64   `gorm:"not null" json:"score"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Subject *Subject `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
}

func (g *Grade) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

type FinalExam struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	Date      time.Time `gorm:"not null" json:"date"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Subject     *Subject          `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Enrollments []FinalEnrollment `gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
}

func (f *FinalExam) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type FinalEnrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExamID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_final_enrollment,priority:1" json:"exam_id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_final_enrollment,priority:2" json:"student_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (f *FinalEnrollment) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
