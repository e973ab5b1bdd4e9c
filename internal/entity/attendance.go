package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"

	// AttendanceNoData is never persisted; it only appears in grid
	// projections for days without a record.
	AttendanceNoData AttendanceStatus = "no_data"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

// AttendanceRecord holds one student's status for one subject on one day.
// The composite unique index backs the upsert in the attendance service: at
// most one row may exist per (student, date, subject).
type AttendanceRecord struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_key,priority:1" json:"student_id"`
	Date      time.Time        `gorm:"type:date;not null;uniqueIndex:idx_attendance_key,priority:2" json:"date"`
	Subject   string           `gorm:"size:100;not null;uniqueIndex:idx_attendance_key,priority:3" json:"subject"`
	Status    AttendanceStatus `gorm:"size:10;not null" json:"status"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
