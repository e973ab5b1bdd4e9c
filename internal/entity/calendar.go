package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalendarEvent is shown to everyone unless AudienceRole narrows it to a
// single role.
type CalendarEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"size:150;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Date         time.Time `gorm:"not null;index" json:"date"`
	AudienceRole *string   `gorm:"size:50" json:"audience_role,omitempty"`
	CreatedByID  uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (e *CalendarEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
