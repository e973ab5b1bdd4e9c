package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unicampus/portal/internal/entity"
	"github.com/unicampus/portal/internal/modules/attendance/dto"
	"github.com/unicampus/portal/internal/modules/attendance/repository"
	userRepo "github.com/unicampus/portal/internal/modules/user/repository"
	"github.com/unicampus/portal/pkg/apperror"
)

type attendanceFixture struct {
	svc   AttendanceService
	repo  repository.AttendanceRepository
	users userRepo.UserRepository
}

func newAttendanceFixture() *attendanceFixture {
	users := userRepo.NewInMemoryUserRepository()
	repo := repository.NewInMemoryAttendanceRepository()
	return &attendanceFixture{
		svc:   NewAttendanceService(repo, users),
		repo:  repo,
		users: users,
	}
}

func (f *attendanceFixture) seedStudent(t *testing.T, name string) *entity.User {
	t.Helper()
	u := &entity.User{
		Name:  name,
		Email: name + "@unicampus.edu",
		Role:  entity.Role{Name: entity.RoleStudent},
	}
	require.NoError(t, f.users.Create(context.Background(), u, nil))
	return u
}

func records(statuses ...entity.AttendanceStatus) []*entity.AttendanceRecord {
	out := make([]*entity.AttendanceRecord, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, &entity.AttendanceRecord{Status: status})
	}
	return out
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 100, Percentage(nil), "no records means nothing to miss")

	assert.Equal(t, 75, Percentage(records(
		entity.AttendancePresent,
		entity.AttendancePresent,
		entity.AttendanceLate,
		entity.AttendanceAbsent,
	)), "late counts as attended")

	assert.Equal(t, 33, Percentage(records(
		entity.AttendancePresent,
		entity.AttendanceAbsent,
		entity.AttendanceAbsent,
	)), "rounds to nearest whole percent")

	assert.Equal(t, 0, Percentage(records(entity.AttendanceAbsent)))
}

func TestSaveUpsertsPerStudentDaySubject(t *testing.T) {
	f := newAttendanceFixture()
	ctx := context.Background()
	student := f.seedStudent(t, "alice")
	day := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)

	err := f.svc.Save(ctx, "Algebra", day, []dto.AttendanceEntryInput{
		{StudentID: student.ID.String(), Status: "present"},
	})
	require.NoError(t, err)

	// Re-saving the same day replaces the status instead of adding a row.
	err = f.svc.Save(ctx, "Algebra", day, []dto.AttendanceEntryInput{
		{StudentID: student.ID.String(), Status: "absent"},
	})
	require.NoError(t, err)

	stored, err := f.repo.ListByStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, entity.AttendanceAbsent, stored[0].Status)

	// A different subject on the same day is a separate record.
	err = f.svc.Save(ctx, "History", day, []dto.AttendanceEntryInput{
		{StudentID: student.ID.String(), Status: "late"},
	})
	require.NoError(t, err)

	stored, err = f.repo.ListByStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestSaveRejectsUnknownStatus(t *testing.T) {
	f := newAttendanceFixture()
	student := f.seedStudent(t, "alice")

	err := f.svc.Save(context.Background(), "Algebra", time.Now(), []dto.AttendanceEntryInput{
		{StudentID: student.ID.String(), Status: "no_data"},
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestMonthlyGridDistinguishesNoDataFromAbsent(t *testing.T) {
	f := newAttendanceFixture()
	ctx := context.Background()
	student := f.seedStudent(t, "alice")

	require.NoError(t, f.svc.Save(ctx, "Algebra",
		time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC),
		[]dto.AttendanceEntryInput{{StudentID: student.ID.String(), Status: "present"}}))
	require.NoError(t, f.svc.Save(ctx, "Algebra",
		time.Date(2026, time.February, 4, 0, 0, 0, 0, time.UTC),
		[]dto.AttendanceEntryInput{{StudentID: student.ID.String(), Status: "absent"}}))

	grid, err := f.svc.MonthlyGrid(ctx, []uuid.UUID{student.ID}, "Algebra", 2026, 2)
	require.NoError(t, err)

	assert.Equal(t, 28, grid.DaysInMonth)
	require.Len(t, grid.Rows, 1)
	row := grid.Rows[0]
	assert.Equal(t, "alice", row.StudentName)
	require.Len(t, row.Days, 28)

	assert.Equal(t, "present", row.Days[2])
	assert.Equal(t, "absent", row.Days[3])
	assert.Equal(t, "no_data", row.Days[0], "a day without a record is not an absence")
	assert.Equal(t, "no_data", row.Days[27])
}

func TestMonthlyGridIgnoresOtherSubjectsAndMonths(t *testing.T) {
	f := newAttendanceFixture()
	ctx := context.Background()
	student := f.seedStudent(t, "alice")

	require.NoError(t, f.svc.Save(ctx, "History",
		time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC),
		[]dto.AttendanceEntryInput{{StudentID: student.ID.String(), Status: "present"}}))
	require.NoError(t, f.svc.Save(ctx, "Algebra",
		time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
		[]dto.AttendanceEntryInput{{StudentID: student.ID.String(), Status: "present"}}))

	grid, err := f.svc.MonthlyGrid(ctx, []uuid.UUID{student.ID}, "Algebra", 2026, 2)
	require.NoError(t, err)

	require.Len(t, grid.Rows, 1)
	for _, cell := range grid.Rows[0].Days {
		assert.Equal(t, "no_data", cell)
	}
}

func TestStudentSummaryAggregatesPerSubject(t *testing.T) {
	f := newAttendanceFixture()
	ctx := context.Background()
	student := f.seedStudent(t, "alice")

	days := []struct {
		subject string
		day     int
		status  string
	}{
		{"Algebra", 1, "present"},
		{"Algebra", 2, "late"},
		{"Algebra", 3, "absent"},
		{"Algebra", 4, "present"},
		{"History", 1, "absent"},
	}
	for _, d := range days {
		require.NoError(t, f.svc.Save(ctx, d.subject,
			time.Date(2026, time.March, d.day, 0, 0, 0, 0, time.UTC),
			[]dto.AttendanceEntryInput{{StudentID: student.ID.String(), Status: d.status}}))
	}

	summary, err := f.svc.StudentSummary(ctx, student.ID)
	require.NoError(t, err)

	require.Len(t, summary.Subjects, 2)
	bySubject := map[string]dto.SubjectSummary{}
	for _, s := range summary.Subjects {
		bySubject[s.Subject] = s
	}

	algebra := bySubject["Algebra"]
	assert.Equal(t, 2, algebra.Present)
	assert.Equal(t, 1, algebra.Late)
	assert.Equal(t, 1, algebra.Absent)
	assert.Equal(t, 4, algebra.Total)
	assert.Equal(t, 75, algebra.Percentage)

	history := bySubject["History"]
	assert.Equal(t, 1, history.Total)
	assert.Equal(t, 0, history.Percentage)

	assert.Equal(t, 5, summary.Overall.Total)
	assert.Equal(t, 60, summary.Overall.Percentage)
}

func TestStudentSummaryEmptyIsFullAttendance(t *testing.T) {
	f := newAttendanceFixture()
	student := f.seedStudent(t, "alice")

	summary, err := f.svc.StudentSummary(context.Background(), student.ID)
	require.NoError(t, err)

	assert.Empty(t, summary.Subjects)
	assert.Equal(t, 100, summary.Overall.Percentage)
}
