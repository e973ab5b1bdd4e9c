package academic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unicampus/portal/internal/entity"
	"github.com/unicampus/portal/internal/modules/academic/dto"
	"github.com/unicampus/portal/internal/modules/academic/repository"
	notifRepo "github.com/unicampus/portal/internal/modules/notification/repository"
	notification "github.com/unicampus/portal/internal/modules/notification/service"
	userRepo "github.com/unicampus/portal/internal/modules/user/repository"
	"github.com/unicampus/portal/pkg/apperror"
)

type academicFixture struct {
	svc      AcademicService
	subjects repository.SubjectRepository
	finals   repository.FinalRepository
	users    userRepo.UserRepository
	notifs   notifRepo.NotificationRepository
}

func newAcademicFixture() *academicFixture {
	users := userRepo.NewInMemoryUserRepository()
	subjects := repository.NewInMemorySubjectRepository()
	grades := repository.NewInMemoryGradeRepository()
	finals := repository.NewInMemoryFinalRepository()
	notifs := notifRepo.NewInMemoryNotificationRepository()
	notifier := notification.NewNotificationService(notifs, nil)
	return &academicFixture{
		svc:      NewAcademicService(subjects, grades, finals, users, notifier),
		subjects: subjects,
		finals:   finals,
		users:    users,
		notifs:   notifs,
	}
}

func (f *academicFixture) seedUser(t *testing.T, name, role string) *entity.User {
	t.Helper()
	u := &entity.User{
		Name:  name,
		Email: name + "@unicampus.edu",
		Role:  entity.Role{Name: role},
	}
	require.NoError(t, f.users.Create(context.Background(), u, nil))
	return u
}

func (f *academicFixture) seedSubject(t *testing.T, name string) *entity.Subject {
	t.Helper()
	subject := &entity.Subject{Name: name, Year: 1}
	require.NoError(t, f.subjects.Create(context.Background(), subject))
	return subject
}

func (f *academicFixture) seedExam(t *testing.T, subject *entity.Subject, capacity int) *dto.FinalExamResponse {
	t.Helper()
	exam, err := f.svc.CreateFinalExam(context.Background(), dto.CreateFinalExamInput{
		SubjectID: subject.ID.String(),
		Date:      time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
		Capacity:  capacity,
	})
	require.NoError(t, err)
	return exam
}

func TestEnrollInFinalRejectsWhenFull(t *testing.T) {
	f := newAcademicFixture()
	ctx := context.Background()
	subject := f.seedSubject(t, "Algebra")
	exam := f.seedExam(t, subject, 1)
	alice := f.seedUser(t, "alice", entity.RoleStudent)
	bob := f.seedUser(t, "bob", entity.RoleStudent)

	require.NoError(t, f.svc.EnrollInFinal(ctx, exam.ID, alice.ID))

	err := f.svc.EnrollInFinal(ctx, exam.ID, bob.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput, "a full exam is a validation failure, not a conflict")
}

func TestEnrollInFinalRejectsDuplicate(t *testing.T) {
	f := newAcademicFixture()
	ctx := context.Background()
	subject := f.seedSubject(t, "Algebra")
	exam := f.seedExam(t, subject, 10)
	alice := f.seedUser(t, "alice", entity.RoleStudent)

	require.NoError(t, f.svc.EnrollInFinal(ctx, exam.ID, alice.ID))

	err := f.svc.EnrollInFinal(ctx, exam.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	count, err := f.finals.CountEnrollments(ctx, exam.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestWithdrawFromFinalFreesTheSeat(t *testing.T) {
	f := newAcademicFixture()
	ctx := context.Background()
	subject := f.seedSubject(t, "Algebra")
	exam := f.seedExam(t, subject, 1)
	alice := f.seedUser(t, "alice", entity.RoleStudent)
	bob := f.seedUser(t, "bob", entity.RoleStudent)

	require.NoError(t, f.svc.EnrollInFinal(ctx, exam.ID, alice.ID))
	require.NoError(t, f.svc.WithdrawFromFinal(ctx, exam.ID, alice.ID))

	assert.NoError(t, f.svc.EnrollInFinal(ctx, exam.ID, bob.ID))

	err := f.svc.WithdrawFromFinal(ctx, exam.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "withdrawing twice has nothing left to remove")
}

func TestDeleteFinalExamCascadesEnrollments(t *testing.T) {
	f := newAcademicFixture()
	ctx := context.Background()
	subject := f.seedSubject(t, "Algebra")
	exam := f.seedExam(t, subject, 10)
	alice := f.seedUser(t, "alice", entity.RoleStudent)

	require.NoError(t, f.svc.EnrollInFinal(ctx, exam.ID, alice.ID))
	require.NoError(t, f.svc.DeleteFinalExam(ctx, exam.ID))

	enrolled, err := f.finals.HasEnrollment(ctx, exam.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)

	exams, err := f.svc.ListFinalExams(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, exams)
}

func TestEnrollInFinalNotifiesStudent(t *testing.T) {
	f := newAcademicFixture()
	ctx := context.Background()
	subject := f.seedSubject(t, "Algebra")
	exam := f.seedExam(t, subject, 5)
	alice := f.seedUser(t, "alice", entity.RoleStudent)

	require.NoError(t, f.svc.EnrollInFinal(ctx, exam.ID, alice.ID))

	unread, err := f.notifs.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func TestCreateGradeRequiresSubjectAssignment(t *testing.T) {
	f := newAcademicFixture()
	ctx := context.Background()
	subject := f.seedSubject(t, "Algebra")
	prof := f.seedUser(t, "prof", entity.RoleProfessor)
	outsider := f.seedUser(t, "outsider", entity.RoleProfessor)
	alice := f.seedUser(t, "alice", entity.RoleStudent)

	require.NoError(t, f.subjects.AssignProfessor(ctx, subject.ID, prof.ID))

	input := dto.CreateGradeInput{
		StudentID: alice.ID.String(),
		SubjectID: subject.ID.String(),
		Term:      "first",
		Score:     8.5,
	}

	_, err := f.svc.CreateGrade(ctx, outsider, input)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	grade, err := f.svc.CreateGrade(ctx, prof, input)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", grade.SubjectName)
	assert.InDelta(t, 8.5, grade.Score, 0.001)

	unread, err := f.notifs.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread, "publishing a grade notifies the student")
}

func TestAdminMayGradeAnySubject(t *testing.T) {
	f := newAcademicFixture()
	ctx := context.Background()
	subject := f.seedSubject(t, "Algebra")
	admin := f.seedUser(t, "root", entity.RoleAdmin)
	alice := f.seedUser(t, "alice", entity.RoleStudent)

	_, err := f.svc.CreateGrade(ctx, admin, dto.CreateGradeInput{
		StudentID: alice.ID.String(),
		SubjectID: subject.ID.String(),
		Term:      "first",
		Score:     7,
	})
	assert.NoError(t, err)
}

func TestAssignProfessorValidatesRole(t *testing.T) {
	f := newAcademicFixture()
	ctx := context.Background()
	subject := f.seedSubject(t, "Algebra")
	alice := f.seedUser(t, "alice", entity.RoleStudent)

	err := f.svc.AssignProfessor(ctx, subject.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestEnrollStudentValidatesRole(t *testing.T) {
	f := newAcademicFixture()
	ctx := context.Background()
	subject := f.seedSubject(t, "Algebra")
	prof := f.seedUser(t, "prof", entity.RoleProfessor)

	err := f.svc.EnrollStudent(ctx, subject.ID, prof.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestListFinalExamsReportsSeatUsage(t *testing.T) {
	f := newAcademicFixture()
	ctx := context.Background()
	subject := f.seedSubject(t, "Algebra")
	exam := f.seedExam(t, subject, 2)
	alice := f.seedUser(t, "alice", entity.RoleStudent)
	bob := f.seedUser(t, "bob", entity.RoleStudent)

	require.NoError(t, f.svc.EnrollInFinal(ctx, exam.ID, alice.ID))

	fromAlice, err := f.svc.ListFinalExams(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, fromAlice, 1)
	assert.Equal(t, 1, fromAlice[0].Enrolled)
	assert.True(t, fromAlice[0].IsEnrolled)

	fromBob, err := f.svc.ListFinalExams(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, fromBob[0].IsEnrolled)
}
