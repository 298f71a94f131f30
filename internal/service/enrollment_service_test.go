package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"schoolhub/api/internal/apperrors"
	"schoolhub/api/internal/ids"
	"schoolhub/api/internal/models"
	"schoolhub/api/internal/repository"
)

type memClassStore struct {
	classes map[string]models.Class
}

func (s *memClassStore) GetByID(_ context.Context, id string) (models.Class, error) {
	class, ok := s.classes[id]
	if !ok {
		return models.Class{}, repository.ErrClassNotFound
	}
	return class, nil
}

type memEnrollmentStore struct {
	mu          sync.Mutex
	enrollments map[string]models.Enrollment
}

func newMemEnrollmentStore() *memEnrollmentStore {
	return &memEnrollmentStore{enrollments: make(map[string]models.Enrollment)}
}

func (s *memEnrollmentStore) CreateIfCapacity(_ context.Context, enrollment models.Enrollment, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := 0
	for _, e := range s.enrollments {
		if e.ClassID == enrollment.ClassID && e.Status == models.EnrollmentStatusActive {
			active++
		}
	}
	if active >= capacity {
		return repository.ErrClassFull
	}
	enrollment.EnrolledAt = time.Now()
	s.enrollments[enrollment.ID] = enrollment
	return nil
}

func (s *memEnrollmentStore) GetByID(_ context.Context, id string) (models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enrollment, ok := s.enrollments[id]
	if !ok {
		return models.Enrollment{}, repository.ErrEnrollmentNotFound
	}
	return enrollment, nil
}

func (s *memEnrollmentStore) FindActive(_ context.Context, classID, studentID string) (models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.enrollments {
		if e.ClassID == classID && e.StudentID == studentID && e.Status == models.EnrollmentStatusActive {
			return e, nil
		}
	}
	return models.Enrollment{}, repository.ErrEnrollmentNotFound
}

func (s *memEnrollmentStore) UpdateStatus(_ context.Context, id string, status models.EnrollmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	enrollment, ok := s.enrollments[id]
	if !ok {
		return repository.ErrEnrollmentNotFound
	}
	enrollment.Status = status
	s.enrollments[id] = enrollment
	return nil
}

func (s *memEnrollmentStore) ListByClass(_ context.Context, classID string) ([]models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Enrollment
	for _, e := range s.enrollments {
		if e.ClassID == classID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memEnrollmentStore) ListByStudent(_ context.Context, studentID string) ([]models.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Enrollment
	for _, e := range s.enrollments {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memFeeStore struct {
	mu       sync.Mutex
	balances map[string]models.FeeBalance
}

func newMemFeeStore() *memFeeStore {
	return &memFeeStore{balances: make(map[string]models.FeeBalance)}
}

func (s *memFeeStore) GetByEnrollment(_ context.Context, enrollmentID string) (models.FeeBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fee, ok := s.balances[enrollmentID]
	if !ok {
		return models.FeeBalance{}, repository.ErrFeeBalanceNotFound
	}
	return fee, nil
}

func (s *memFeeStore) AddCharge(_ context.Context, enrollmentID string, amountCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fee := s.balances[enrollmentID]
	fee.EnrollmentID = enrollmentID
	fee.DueCents += amountCents
	s.balances[enrollmentID] = fee
	return nil
}

func (s *memFeeStore) AddPayment(_ context.Context, enrollmentID string, amountCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fee, ok := s.balances[enrollmentID]
	if !ok {
		return repository.ErrFeeBalanceNotFound
	}
	if fee.PaidCents+amountCents > fee.DueCents {
		return repository.ErrPaymentExceedsDue
	}
	fee.PaidCents += amountCents
	s.balances[enrollmentID] = fee
	return nil
}

type enrollmentFixture struct {
	svc     *EnrollmentService
	users   *memUserStore
	classes *memClassStore
	fees    *memFeeStore
	class   models.Class
	student models.User
}

func newEnrollmentFixture(t *testing.T, capacity int) enrollmentFixture {
	t.Helper()

	users := newMemUserStore()
	parentEmail := "parent@x.com"
	student := models.User{
		ID:          ids.New(),
		Email:       "student@x.com",
		Role:        models.UserRoleStudent,
		Status:      models.UserStatusActive,
		ParentEmail: &parentEmail,
	}
	if err := users.Create(context.Background(), student); err != nil {
		t.Fatalf("seed student: %v", err)
	}

	class := models.Class{
		ID:              ids.New(),
		Name:            "Algebra I",
		Subject:         "math",
		Capacity:        capacity,
		MonthlyFeeCents: 5000,
	}
	classes := &memClassStore{classes: map[string]models.Class{class.ID: class}}
	fees := newMemFeeStore()

	svc := NewEnrollmentService(classes, newMemEnrollmentStore(), fees, users, zerolog.Nop())
	return enrollmentFixture{svc: svc, users: users, classes: classes, fees: fees, class: class, student: student}
}

func TestEnrollChargesFirstFee(t *testing.T) {
	f := newEnrollmentFixture(t, 10)

	enrollment, err := f.svc.Enroll(context.Background(), f.class.ID, f.student.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}

	fee, err := f.fees.GetByEnrollment(context.Background(), enrollment.ID)
	if err != nil {
		t.Fatalf("fee balance missing: %v", err)
	}
	if fee.DueCents != 5000 || fee.PaidCents != 0 {
		t.Fatalf("unexpected balance: %+v", fee)
	}
}

func TestEnrollDuplicateConflict(t *testing.T) {
	f := newEnrollmentFixture(t, 10)

	if _, err := f.svc.Enroll(context.Background(), f.class.ID, f.student.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	_, err := f.svc.Enroll(context.Background(), f.class.ID, f.student.ID)
	if apperrors.Status(err) != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestEnrollFullClass(t *testing.T) {
	f := newEnrollmentFixture(t, 1)

	if _, err := f.svc.Enroll(context.Background(), f.class.ID, f.student.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	other := models.User{
		ID:     ids.New(),
		Email:  "other@x.com",
		Role:   models.UserRoleStudent,
		Status: models.UserStatusActive,
	}
	if err := f.users.Create(context.Background(), other); err != nil {
		t.Fatalf("seed second student: %v", err)
	}

	_, err := f.svc.Enroll(context.Background(), f.class.ID, other.ID)
	if apperrors.Status(err) != http.StatusConflict {
		t.Fatalf("expected 409 for full class, got %v", err)
	}
}

func TestEnrollRejectsNonStudents(t *testing.T) {
	f := newEnrollmentFixture(t, 10)

	teacher := models.User{
		ID:     ids.New(),
		Email:  "teacher@x.com",
		Role:   models.UserRoleTeacher,
		Status: models.UserStatusActive,
	}
	if err := f.users.Create(context.Background(), teacher); err != nil {
		t.Fatalf("seed teacher: %v", err)
	}

	_, err := f.svc.Enroll(context.Background(), f.class.ID, teacher.ID)
	if apperrors.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestPaymentCannotExceedBalance(t *testing.T) {
	f := newEnrollmentFixture(t, 10)

	enrollment, err := f.svc.Enroll(context.Background(), f.class.ID, f.student.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}

	if _, err := f.svc.RecordPayment(context.Background(), enrollment.ID, 6000); apperrors.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 overpaying, got %v", err)
	}

	fee, err := f.svc.RecordPayment(context.Background(), enrollment.ID, 5000)
	if err != nil {
		t.Fatalf("exact payment: %v", err)
	}
	if fee.OutstandingCents() != 0 {
		t.Fatalf("expected settled balance, got %d outstanding", fee.OutstandingCents())
	}
}

func TestStudentEnrollmentVisibility(t *testing.T) {
	f := newEnrollmentFixture(t, 10)

	if _, err := f.svc.Enroll(context.Background(), f.class.ID, f.student.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	self := f.student.Public()
	if _, err := f.svc.ListForStudent(context.Background(), self, f.student.ID); err != nil {
		t.Fatalf("student should see own enrollments: %v", err)
	}

	parent := models.PublicUser{ID: ids.New(), Email: "parent@x.com", Role: string(models.UserRoleParent)}
	if _, err := f.svc.ListForStudent(context.Background(), parent, f.student.ID); err != nil {
		t.Fatalf("linked parent should see enrollments: %v", err)
	}

	stranger := models.PublicUser{ID: ids.New(), Email: "nope@x.com", Role: string(models.UserRoleParent)}
	if _, err := f.svc.ListForStudent(context.Background(), stranger, f.student.ID); apperrors.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403 for unlinked parent, got %v", err)
	}

	otherStudent := models.PublicUser{ID: ids.New(), Email: "o@x.com", Role: string(models.UserRoleStudent)}
	if _, err := f.svc.ListForStudent(context.Background(), otherStudent, f.student.ID); apperrors.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403 for another student, got %v", err)
	}
}
