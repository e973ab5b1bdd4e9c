package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateEventInput struct {
	Title        string  `json:"title" binding:"required,max=150"`
	Description  string  `json:"description"`
	Date         string  `json:"date" binding:"required"` // RFC 3339
	AudienceRole *string `json:"audience_role,omitempty" binding:"omitempty,oneof=admin student preceptor professor"`
}

type UpdateEventInput struct {
	Title        *string `json:"title,omitempty" binding:"omitempty,max=150"`
	Description  *string `json:"description,omitempty"`
	Date         *string `json:"date,omitempty"`
	AudienceRole *string `json:"audience_role,omitempty" binding:"omitempty,oneof=admin student preceptor professor"`
}

type MonthQuery struct {
	Year  int `form:"year" binding:"required,min=2000,max=2100"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}

type EventResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Date         time.Time `json:"date"`
	AudienceRole *string   `json:"audience_role,omitempty"`
	CreatedByID  uuid.UUID `json:"created_by_id"`
}
