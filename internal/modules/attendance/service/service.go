package attendance

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"github.com/unicampus/portal/internal/modules/attendance/dto"
	"github.com/unicampus/portal/internal/modules/attendance/repository"
	userrepo "github.com/unicampus/portal/internal/modules/user/repository"
	"github.com/unicampus/portal/pkg/apperror"
	"gorm.io/gorm"
)

type AttendanceService interface {
	Save(ctx context.Context, subject string, date time.Time, entries []dto.AttendanceEntryInput) error
	MonthlyGrid(ctx context.Context, studentIDs []uuid.UUID, subject string, year, month int) (*dto.MonthlyGridResponse, error)
	StudentSummary(ctx context.Context, studentID uuid.UUID) (*dto.StudentSummaryResponse, error)
}

type attendanceService struct {
	repo  repository.AttendanceRepository
	users userrepo.UserRepository
}

func NewAttendanceService(repo repository.AttendanceRepository, users userrepo.UserRepository) AttendanceService {
	return &attendanceService{repo: repo, users: users}
}

// Percentage counts present and late as attended and rounds to the nearest
// whole percent. A student with no records is at 100, not 0.
func Percentage(records []*entity.AttendanceRecord) int {
	if len(records) == 0 {
		return 100
	}
	attended := 0
	for _, record := range records {
		if record.Status == entity.AttendancePresent || record.Status == entity.AttendanceLate {
			attended++
		}
	}
	return int(math.Round(100 * float64(attended) / float64(len(records))))
}

// Save upserts one row per entry keyed on (student, date, subject). Re-saving
// a day overwrites statuses in place instead of stacking duplicate rows.
func (s *attendanceService) Save(ctx context.Context, subject string, date time.Time, entries []dto.AttendanceEntryInput) error {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	for _, entry := range entries {
		status := entity.AttendanceStatus(entry.Status)
		if !status.Valid() {
			return apperror.Validation("invalid attendance status: %s", entry.Status)
		}

		studentID, err := uuid.Parse(entry.StudentID)
		if err != nil {
			return apperror.Validation("invalid student id: %s", entry.StudentID)
		}

		existing, err := s.repo.FindByKey(ctx, studentID, day, subject)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperror.AppError{Code: 500, Message: "failed to load attendance record", Err: err}
			}
			record := &entity.AttendanceRecord{
				StudentID: studentID,
				Date:      day,
				Subject:   subject,
				Status:    status,
			}
			if err := s.repo.Create(ctx, record); err != nil {
				return &apperror.AppError{Code: 500, Message: "failed to save attendance record", Err: err}
			}
			continue
		}

		if existing.Status != status {
			if err := s.repo.UpdateStatus(ctx, existing.ID, status); err != nil {
				return &apperror.AppError{Code: 500, Message: "failed to update attendance record", Err: err}
			}
		}
	}
	return nil
}

// MonthlyGrid projects one row per student with a cell for every calendar day
// of the month. Days without a record show as no_data, which is not the same
// as absent.
func (s *attendanceService) MonthlyGrid(ctx context.Context, studentIDs []uuid.UUID, subject string, year, month int) (*dto.MonthlyGridResponse, error) {
	if month < 1 || month > 12 {
		return nil, apperror.Validation("month must be between 1 and 12")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	daysInMonth := to.AddDate(0, 0, -1).Day()

	records, err := s.repo.ListBySubjectMonth(ctx, subject, from, to)
	if err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to load attendance records", Err: err}
	}

	byStudentDay := make(map[uuid.UUID]map[int]entity.AttendanceStatus)
	for _, record := range records {
		if byStudentDay[record.StudentID] == nil {
			byStudentDay[record.StudentID] = make(map[int]entity.AttendanceStatus)
		}
		byStudentDay[record.StudentID][record.Date.Day()] = record.Status
	}

	resp := &dto.MonthlyGridResponse{
		Subject:     subject,
		Year:        year,
		Month:       month,
		DaysInMonth: daysInMonth,
		Rows:        make([]dto.GridRow, 0, len(studentIDs)),
	}

	for _, studentID := range studentIDs {
		row := dto.GridRow{
			StudentID: studentID,
			Days:      make([]string, daysInMonth),
		}
		if u, err := s.users.FindByID(ctx, studentID); err == nil {
			row.StudentName = u.Name
		}
		for day := 1; day <= daysInMonth; day++ {
			status, ok := byStudentDay[studentID][day]
			if !ok {
				status = entity.AttendanceNoData
			}
			row.Days[day-1] = string(status)
		}
		resp.Rows = append(resp.Rows, row)
	}

	return resp, nil
}

func (s *attendanceService) StudentSummary(ctx context.Context, studentID uuid.UUID) (*dto.StudentSummaryResponse, error) {
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to load attendance records", Err: err}
	}

	bySubject := make(map[string][]*entity.AttendanceRecord)
	order := make([]string, 0)
	for _, record := range records {
		if _, seen := bySubject[record.Subject]; !seen {
			order = append(order, record.Subject)
		}
		bySubject[record.Subject] = append(bySubject[record.Subject], record)
	}

	resp := &dto.StudentSummaryResponse{
		StudentID: studentID,
		Subjects:  make([]dto.SubjectSummary, 0, len(order)),
	}
	for _, subject := range order {
		resp.Subjects = append(resp.Subjects, summarize(subject, bySubject[subject]))
	}
	resp.Overall = summarize("", records)

	return resp, nil
}

func summarize(subject string, records []*entity.AttendanceRecord) dto.SubjectSummary {
	summary := dto.SubjectSummary{Subject: subject, Total: len(records)}
	for _, record := range records {
		switch record.Status {
		case entity.AttendancePresent:
			summary.Present++
		case entity.AttendanceAbsent:
			summary.Absent++
		case entity.AttendanceLate:
			summary.Late++
		}
	}
	summary.Percentage = Percentage(records)
	return summary
}
