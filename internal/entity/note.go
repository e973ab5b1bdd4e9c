package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Note is an observation a preceptor or professor attaches to a student.
type Note struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	Title     string    `gorm:"size:150;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Suggestion is a suggestion-or-complaint box entry. AuthorID is nil for
// anonymous submissions.
type Suggestion struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID  *uuid.UUID `gorm:"type:uuid" json:"author_id,omitempty"`
	Category  string     `gorm:"size:50;not null" json:"category"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (s *Suggestion) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
