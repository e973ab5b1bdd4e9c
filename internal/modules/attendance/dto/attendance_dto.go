package dto

import "github.com/google/uuid"

type AttendanceEntryInput struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Status    string `json:"status" binding:"required,oneof=present absent late"`
}

type SaveAttendanceInput struct {
	Subject string                 `json:"subject" binding:"required"`
	Date    string                 `json:"date" binding:"required"` // YYYY-MM-DD
	Entries []AttendanceEntryInput `json:"entries" binding:"required,min=1,dive"`
}

type MonthlyGridQuery struct {
	Subject string `form:"subject" binding:"required"`
	Year    int    `form:"year" binding:"required,min=2000,max=2100"`
	Month   int    `form:"month" binding:"required,min=1,max=12"`
}

// GridRow is one student's month: Days[i] holds the status for day i+1, with
// "no_data" filling days that have no record.
type GridRow struct {
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	Days        []string  `json:"days"`
}

type MonthlyGridResponse struct {
	Subject     string    `json:"subject"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	DaysInMonth int       `json:"days_in_month"`
	Rows        []GridRow `json:"rows"`
}

type SubjectSummary struct {
	Subject    string `json:"subject"`
	Present    int    `json:"present"`
	Absent     int    `json:"absent"`
	Late       int    `json:"late"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

type StudentSummaryResponse struct {
	StudentID uuid.UUID        `json:"student_id"`
	Subjects  []SubjectSummary `json:"subjects"`
	Overall   SubjectSummary   `json:"overall"`
}
