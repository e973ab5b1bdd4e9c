package academic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"github.com/unicampus/portal/internal/modules/academic/dto"
	"github.com/unicampus/portal/internal/modules/academic/repository"
	notification "github.com/unicampus/portal/internal/modules/notification/service"
	userrepo "github.com/unicampus/portal/internal/modules/user/repository"
	"github.com/unicampus/portal/pkg/apperror"
	"gorm.io/gorm"
)

type AcademicService interface {
	CreateSubject(ctx context.Context, input dto.CreateSubjectInput) (*dto.SubjectResponse, error)
	ListSubjects(ctx context.Context) ([]dto.SubjectResponse, error)
	ListSubjectsFor(ctx context.Context, userID uuid.UUID, role string) ([]dto.SubjectResponse, error)
	AssignProfessor(ctx context.Context, subjectID, professorID uuid.UUID) error
	EnrollStudent(ctx context.Context, subjectID, studentID uuid.UUID) error

	CreateGrade(ctx context.Context, actor *entity.User, input dto.CreateGradeInput) (*dto.GradeResponse, error)
	ListStudentGrades(ctx context.Context, studentID uuid.UUID) ([]dto.GradeResponse, error)
	UpdateGrade(ctx context.Context, actor *entity.User, gradeID uuid.UUID, input dto.UpdateGradeInput) (*dto.GradeResponse, error)
	DeleteGrade(ctx context.Context, actor *entity.User, gradeID uuid.UUID) error

	CreateFinalExam(ctx context.Context, input dto.CreateFinalExamInput) (*dto.FinalExamResponse, error)
	ListFinalExams(ctx context.Context, viewerID uuid.UUID) ([]dto.FinalExamResponse, error)
	EnrollInFinal(ctx context.Context, examID, studentID uuid.UUID) error
	WithdrawFromFinal(ctx context.Context, examID, studentID uuid.UUID) error
	DeleteFinalExam(ctx context.Context, examID uuid.UUID) error
}

type academicService struct {
	subjects repository.SubjectRepository
	grades   repository.GradeRepository
	finals   repository.FinalRepository
	users    userrepo.UserRepository
	notifier notification.NotificationService
}

func NewAcademicService(
	subjects repository.SubjectRepository,
	grades repository.GradeRepository,
	finals repository.FinalRepository,
	users userrepo.UserRepository,
	notifier notification.NotificationService,
) AcademicService {
	return &academicService{
		subjects: subjects,
		grades:   grades,
		finals:   finals,
		users:    users,
		notifier: notifier,
	}
}

func (s *academicService) CreateSubject(ctx context.Context, input dto.CreateSubjectInput) (*dto.SubjectResponse, error) {
	subject := &entity.Subject{
		Name: strings.TrimSpace(input.Name),
		Year: input.Year,
	}
	if subject.Name == "" {
		return nil, apperror.Validation("subject name must not be empty")
	}

	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to create subject", Err: err}
	}
	return toSubjectResponse(subject), nil
}

func (s *academicService) ListSubjects(ctx context.Context) ([]dto.SubjectResponse, error) {
	subjects, err := s.subjects.FindAll(ctx)
	if err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to list subjects", Err: err}
	}
	return toSubjectResponses(subjects), nil
}

// ListSubjectsFor narrows the catalog to what the viewer is attached to:
// professors see what they teach, students what they are enrolled in, other
// roles see everything.
func (s *academicService) ListSubjectsFor(ctx context.Context, userID uuid.UUID, role string) ([]dto.SubjectResponse, error) {
	var (
		subjects []*entity.Subject
		err      error
	)
	switch role {
	case entity.RoleProfessor:
		subjects, err = s.subjects.ListByProfessor(ctx, userID)
	case entity.RoleStudent:
		subjects, err = s.subjects.ListByStudent(ctx, userID)
	default:
		subjects, err = s.subjects.FindAll(ctx)
	}
	if err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to list subjects", Err: err}
	}
	return toSubjectResponses(subjects), nil
}

func (s *academicService) AssignProfessor(ctx context.Context, subjectID, professorID uuid.UUID) error {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		return subjectLookupError(err)
	}

	professor, err := s.users.FindByID(ctx, professorID)
	if err != nil {
		return userLookupError(err)
	}
	if professor.Role.Name != entity.RoleProfessor {
		return apperror.Validation("user %s is not a professor", professorID)
	}

	if err := s.subjects.AssignProfessor(ctx, subjectID, professorID); err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to assign professor", Err: err}
	}
	return nil
}

func (s *academicService) EnrollStudent(ctx context.Context, subjectID, studentID uuid.UUID) error {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		return subjectLookupError(err)
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return userLookupError(err)
	}
	if student.Role.Name != entity.RoleStudent {
		return apperror.Validation("user %s is not a student", studentID)
	}

	if err := s.subjects.EnrollStudent(ctx, subjectID, studentID); err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to enroll student", Err: err}
	}
	return nil
}

func (s *academicService) CreateGrade(ctx context.Context, actor *entity.User, input dto.CreateGradeInput) (*dto.GradeResponse, error) {
	studentID, err := uuid.Parse(input.StudentID)
	if err != nil {
		return nil, apperror.Validation("invalid student id")
	}
	subjectID, err := uuid.Parse(input.SubjectID)
	if err != nil {
		return nil, apperror.Validation("invalid subject id")
	}

	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, subjectLookupError(err)
	}

	if err := s.requireGradeAuthority(ctx, actor, subjectID); err != nil {
		return nil, err
	}

	grade := &entity.Grade{
		StudentID: studentID,
		SubjectID: subjectID,
		Term:      strings.TrimSpace(input.Term),
		Score:     input.Score,
	}
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to create grade", Err: err}
	}

	s.notifier.CreateNotification(ctx, &entity.Notification{
		UserID:     studentID,
		ActorID:    actor.ID,
		EntityID:   grade.ID,
		EntityType: "grade",
		Type:       entity.NotificationGradePublished,
		Message:    fmt.Sprintf("A new grade was published for %s", subject.Name),
	})

	grade.Subject = subject
	return toGradeResponse(grade), nil
}

func (s *academicService) ListStudentGrades(ctx context.Context, studentID uuid.UUID) ([]dto.GradeResponse, error) {
	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to list grades", Err: err}
	}

	out := make([]dto.GradeResponse, 0, len(grades))
	for _, grade := range grades {
		out = append(out, *toGradeResponse(grade))
	}
	return out, nil
}

func (s *academicService) UpdateGrade(ctx context.Context, actor *entity.User, gradeID uuid.UUID, input dto.UpdateGradeInput) (*dto.GradeResponse, error) {
	grade, err := s.grades.FindByID(ctx, gradeID)
	if err != nil {
		return nil, gradeLookupError(err)
	}

	if err := s.requireGradeAuthority(ctx, actor, grade.SubjectID); err != nil {
		return nil, err
	}

	if input.Term != nil {
		grade.Term = strings.TrimSpace(*input.Term)
	}
	if input.Score != nil {
		grade.Score = *input.Score
	}

	if err := s.grades.Update(ctx, grade); err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to update grade", Err: err}
	}
	return toGradeResponse(grade), nil
}

func (s *academicService) DeleteGrade(ctx context.Context, actor *entity.User, gradeID uuid.UUID) error {
	grade, err := s.grades.FindByID(ctx, gradeID)
	if err != nil {
		return gradeLookupError(err)
	}

	if err := s.requireGradeAuthority(ctx, actor, grade.SubjectID); err != nil {
		return err
	}

	if err := s.grades.Delete(ctx, gradeID); err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to delete grade", Err: err}
	}
	return nil
}

// requireGradeAuthority lets admins touch any grade; professors only grades
// in subjects they are assigned to.
func (s *academicService) requireGradeAuthority(ctx context.Context, actor *entity.User, subjectID uuid.UUID) error {
	if actor.Role.Name == entity.RoleAdmin {
		return nil
	}

	teaches, err := s.subjects.IsProfessor(ctx, subjectID, actor.ID)
	if err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to check subject assignment", Err: err}
	}
	if !teaches {
		return &apperror.AppError{Code: 403, Message: "you are not assigned to this subject", Err: apperror.ErrForbidden}
	}
	return nil
}

func (s *academicService) CreateFinalExam(ctx context.Context, input dto.CreateFinalExamInput) (*dto.FinalExamResponse, error) {
	subjectID, err := uuid.Parse(input.SubjectID)
	if err != nil {
		return nil, apperror.Validation("invalid subject id")
	}

	date, err := time.Parse(time.RFC3339, input.Date)
	if err != nil {
		return nil, apperror.Validation("date must be in RFC 3339 format")
	}

	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return nil, subjectLookupError(err)
	}

	exam := &entity.FinalExam{
		SubjectID: subjectID,
		Date:      date,
		Capacity:  input.Capacity,
	}
	if err := s.finals.CreateExam(ctx, exam); err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to create final exam", Err: err}
	}

	exam.Subject = subject
	return toFinalExamResponse(exam, 0, false), nil
}

func (s *academicService) ListFinalExams(ctx context.Context, viewerID uuid.UUID) ([]dto.FinalExamResponse, error) {
	exams, err := s.finals.ListExams(ctx)
	if err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to list final exams", Err: err}
	}

	out := make([]dto.FinalExamResponse, 0, len(exams))
	for _, exam := range exams {
		enrolled := len(exam.Enrollments)
		isEnrolled := false
		for _, enrollment := range exam.Enrollments {
			if enrollment.StudentID == viewerID {
				isEnrolled = true
				break
			}
		}
		out = append(out, *toFinalExamResponse(exam, enrolled, isEnrolled))
	}
	return out, nil
}

// EnrollInFinal rejects full exams and repeat enrollments as validation
// failures rather than conflicts, so the client shows them like form errors.
func (s *academicService) EnrollInFinal(ctx context.Context, examID, studentID uuid.UUID) error {
	exam, err := s.finals.FindExamByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperror.AppError{Code: 404, Message: "final exam not found", Err: apperror.ErrNotFound}
		}
		return &apperror.AppError{Code: 500, Message: "failed to load final exam", Err: err}
	}

	already, err := s.finals.HasEnrollment(ctx, examID, studentID)
	if err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to check enrollment", Err: err}
	}
	if already {
		return apperror.Validation("you are already enrolled in this final exam")
	}

	count, err := s.finals.CountEnrollments(ctx, examID)
	if err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to count enrollments", Err: err}
	}
	if count >= int64(exam.Capacity) {
		return apperror.Validation("final exam is at capacity")
	}

	enrollment := &entity.FinalEnrollment{ExamID: examID, StudentID: studentID}
	if err := s.finals.CreateEnrollment(ctx, enrollment); err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to enroll in final exam", Err: err}
	}

	subjectName := ""
	if exam.Subject != nil {
		subjectName = exam.Subject.Name
	}
	s.notifier.CreateNotification(ctx, &entity.Notification{
		UserID:     studentID,
		ActorID:    studentID,
		EntityID:   exam.ID,
		EntityType: "final_exam",
		Type:       entity.NotificationFinalEnrollment,
		Message:    fmt.Sprintf("You are enrolled in the %s final on %s", subjectName, exam.Date.Format("2006-01-02")),
	})
	return nil
}

func (s *academicService) WithdrawFromFinal(ctx context.Context, examID, studentID uuid.UUID) error {
	enrolled, err := s.finals.HasEnrollment(ctx, examID, studentID)
	if err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to check enrollment", Err: err}
	}
	if !enrolled {
		return &apperror.AppError{Code: 404, Message: "enrollment not found", Err: apperror.ErrNotFound}
	}

	if err := s.finals.DeleteEnrollment(ctx, examID, studentID); err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to withdraw from final exam", Err: err}
	}
	return nil
}

func (s *academicService) DeleteFinalExam(ctx context.Context, examID uuid.UUID) error {
	if _, err := s.finals.FindExamByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperror.AppError{Code: 404, Message: "final exam not found", Err: apperror.ErrNotFound}
		}
		return &apperror.AppError{Code: 500, Message: "failed to load final exam", Err: err}
	}

	if err := s.finals.DeleteExam(ctx, examID); err != nil {
		return &apperror.AppError{Code: 500, Message: "failed to delete final exam", Err: err}
	}
	return nil
}

func toSubjectResponse(subject *entity.Subject) *dto.SubjectResponse {
	return &dto.SubjectResponse{ID: subject.ID, Name: subject.Name, Year: subject.Year}
}

func toSubjectResponses(subjects []*entity.Subject) []dto.SubjectResponse {
	out := make([]dto.SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, *toSubjectResponse(subject))
	}
	return out
}

func toGradeResponse(grade *entity.Grade) *dto.GradeResponse {
	resp := &dto.GradeResponse{
		ID:        grade.ID,
		StudentID: grade.StudentID,
		SubjectID: grade.SubjectID,
		Term:      grade.Term,
		Score:     grade.Score,
		CreatedAt: grade.CreatedAt,
	}
	if grade.Subject != nil {
		resp.SubjectName = grade.Subject.Name
	}
	return resp
}

func toFinalExamResponse(exam *entity.FinalExam, enrolled int, isEnrolled bool) *dto.FinalExamResponse {
	resp := &dto.FinalExamResponse{
		ID:         exam.ID,
		SubjectID:  exam.SubjectID,
		Date:       exam.Date,
		Capacity:   exam.Capacity,
		Enrolled:   enrolled,
		IsEnrolled: isEnrolled,
	}
	if exam.Subject != nil {
		resp.SubjectName = exam.Subject.Name
	}
	return resp
}

func subjectLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperror.AppError{Code: 404, Message: "subject not found", Err: apperror.ErrNotFound}
	}
	return &apperror.AppError{Code: 500, Message: "failed to load subject", Err: err}
}

func userLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperror.AppError{Code: 404, Message: "user not found", Err: apperror.ErrNotFound}
	}
	return &apperror.AppError{Code: 500, Message: "failed to load user", Err: err}
}

func gradeLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperror.AppError{Code: 404, Message: "grade not found", Err: apperror.ErrNotFound}
	}
	return &apperror.AppError{Code: 500, Message: "failed to load grade", Err: err}
}
