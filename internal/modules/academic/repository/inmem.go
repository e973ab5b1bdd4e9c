package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"gorm.io/gorm"
)

// In-memory implementations of the academic repositories, sharing the gorm
// contracts; used by the service tests.

type inMemorySubjectRepository struct {
	mu          sync.RWMutex
	subjects    map[uuid.UUID]*entity.Subject
	professors  map[uuid.UUID][]uuid.UUID // subjectID -> userIDs
	enrollments map[uuid.UUID][]uuid.UUID // subjectID -> studentIDs
}

func NewInMemorySubjectRepository() SubjectRepository {
	return &inMemorySubjectRepository{
		subjects:    make(map[uuid.UUID]*entity.Subject),
		professors:  make(map[uuid.UUID][]uuid.UUID),
		enrollments: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *inMemorySubjectRepository) Create(ctx context.Context, subject *entity.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if subject.ID == uuid.Nil {
		subject.ID = uuid.New()
	}
	r.subjects[subject.ID] = subject
	return nil
}

func (r *inMemorySubjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subject, ok := r.subjects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return subject, nil
}

func (r *inMemorySubjectRepository) FindAll(ctx context.Context) ([]*entity.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subjects := make([]*entity.Subject, 0, len(r.subjects))
	for _, subject := range r.subjects {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Year != subjects[j].Year {
			return subjects[i].Year < subjects[j].Year
		}
		return subjects[i].Name < subjects[j].Name
	})
	return subjects, nil
}

func (r *inMemorySubjectRepository) AssignProfessor(ctx context.Context, subjectID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.professors[subjectID] {
		if id == userID {
			return nil
		}
	}
	r.professors[subjectID] = append(r.professors[subjectID], userID)
	return nil
}

func (r *inMemorySubjectRepository) IsProfessor(ctx context.Context, subjectID, userID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.professors[subjectID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemorySubjectRepository) ListByProfessor(ctx context.Context, userID uuid.UUID) ([]*entity.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var subjects []*entity.Subject
	for subjectID, userIDs := range r.professors {
		for _, id := range userIDs {
			if id == userID {
				subjects = append(subjects, r.subjects[subjectID])
				break
			}
		}
	}
	return subjects, nil
}

func (r *inMemorySubjectRepository) EnrollStudent(ctx context.Context, subjectID, studentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.enrollments[subjectID] {
		if id == studentID {
			return nil
		}
	}
	r.enrollments[subjectID] = append(r.enrollments[subjectID], studentID)
	return nil
}

func (r *inMemorySubjectRepository) ListEnrolledStudentIDs(ctx context.Context, subjectID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]uuid.UUID(nil), r.enrollments[subjectID]...), nil
}

func (r *inMemorySubjectRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var subjects []*entity.Subject
	for subjectID, studentIDs := range r.enrollments {
		for _, id := range studentIDs {
			if id == studentID {
				subjects = append(subjects, r.subjects[subjectID])
				break
			}
		}
	}
	return subjects, nil
}

type inMemoryGradeRepository struct {
	mu     sync.RWMutex
	grades map[uuid.UUID]*entity.Grade
}

func NewInMemoryGradeRepository() GradeRepository {
	return &inMemoryGradeRepository{grades: make(map[uuid.UUID]*entity.Grade)}
}

func (r *inMemoryGradeRepository) Create(ctx context.Context, grade *entity.Grade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if grade.ID == uuid.Nil {
		grade.ID = uuid.New()
	}
	r.grades[grade.ID] = grade
	return nil
}

func (r *inMemoryGradeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Grade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	grade, ok := r.grades[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return grade, nil
}

func (r *inMemoryGradeRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*entity.Grade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var grades []*entity.Grade
	for _, grade := range r.grades {
		if grade.StudentID == studentID {
			grades = append(grades, grade)
		}
	}
	sort.Slice(grades, func(i, j int) bool {
		return grades[i].CreatedAt.After(grades[j].CreatedAt)
	})
	return grades, nil
}

func (r *inMemoryGradeRepository) Update(ctx context.Context, grade *entity.Grade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.grades[grade.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.grades[grade.ID] = grade
	return nil
}

func (r *inMemoryGradeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.grades, id)
	return nil
}

type inMemoryFinalRepository struct {
	mu          sync.RWMutex
	exams       map[uuid.UUID]*entity.FinalExam
	enrollments map[uuid.UUID][]*entity.FinalEnrollment // examID -> enrollments
}

func NewInMemoryFinalRepository() FinalRepository {
	return &inMemoryFinalRepository{
		exams:       make(map[uuid.UUID]*entity.FinalExam),
		enrollments: make(map[uuid.UUID][]*entity.FinalEnrollment),
	}
}

func (r *inMemoryFinalRepository) CreateExam(ctx context.Context, exam *entity.FinalExam) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if exam.ID == uuid.Nil {
		exam.ID = uuid.New()
	}
	r.exams[exam.ID] = exam
	return nil
}

func (r *inMemoryFinalRepository) FindExamByID(ctx context.Context, id uuid.UUID) (*entity.FinalExam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exam, ok := r.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withEnrollments(exam), nil
}

func (r *inMemoryFinalRepository) ListExams(ctx context.Context) ([]*entity.FinalExam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exams := make([]*entity.FinalExam, 0, len(r.exams))
	for _, exam := range r.exams {
		exams = append(exams, r.withEnrollments(exam))
	}
	sort.Slice(exams, func(i, j int) bool {
		return exams[i].Date.Before(exams[j].Date)
	})
	return exams, nil
}

func (r *inMemoryFinalRepository) DeleteExam(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.exams, id)
	delete(r.enrollments, id)
	return nil
}

// withEnrollments mirrors the gorm Preload: reads hand back a copy with the
// current enrollments attached. Callers must not mutate the stored exam.
func (r *inMemoryFinalRepository) withEnrollments(exam *entity.FinalExam) *entity.FinalExam {
	copied := *exam
	copied.Enrollments = make([]entity.FinalEnrollment, 0, len(r.enrollments[exam.ID]))
	for _, enrollment := range r.enrollments[exam.ID] {
		copied.Enrollments = append(copied.Enrollments, *enrollment)
	}
	return &copied
}

func (r *inMemoryFinalRepository) CreateEnrollment(ctx context.Context, enrollment *entity.FinalEnrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if enrollment.ID == uuid.Nil {
		enrollment.ID = uuid.New()
	}
	r.enrollments[enrollment.ExamID] = append(r.enrollments[enrollment.ExamID], enrollment)
	return nil
}

func (r *inMemoryFinalRepository) DeleteEnrollment(ctx context.Context, examID, studentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.enrollments[examID][:0]
	for _, enrollment := range r.enrollments[examID] {
		if enrollment.StudentID != studentID {
			kept = append(kept, enrollment)
		}
	}
	r.enrollments[examID] = kept
	return nil
}

func (r *inMemoryFinalRepository) HasEnrollment(ctx context.Context, examID, studentID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, enrollment := range r.enrollments[examID] {
		if enrollment.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryFinalRepository) CountEnrollments(ctx context.Context, examID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.enrollments[examID])), nil
}
