package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"schoolhub/api/internal/apperrors"
	"schoolhub/api/internal/ids"
	"schoolhub/api/internal/models"
	"schoolhub/api/internal/repository"
)

type ClassStore interface {
	GetByID(ctx context.Context, id string) (models.Class, error)
}

type EnrollmentStore interface {
	CreateIfCapacity(ctx context.Context, enrollment models.Enrollment, capacity int) error
	GetByID(ctx context.Context, id string) (models.Enrollment, error)
	FindActive(ctx context.Context, classID, studentID string) (models.Enrollment, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	ListByClass(ctx context.Context, classID string) ([]models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type FeeStore interface {
	GetByEnrollment(ctx context.Context, enrollmentID string) (models.FeeBalance, error)
	AddCharge(ctx context.Context, enrollmentID string, amountCents int64) error
	AddPayment(ctx context.Context, enrollmentID string, amountCents int64) error
}

type EnrollmentService struct {
	classes     ClassStore
	enrollments EnrollmentStore
	fees        FeeStore
	users       UserStore
	log         zerolog.Logger
}

func NewEnrollmentService(classes ClassStore, enrollments EnrollmentStore, fees FeeStore, users UserStore, log zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		classes:     classes,
		enrollments: enrollments,
		fees:        fees,
		users:       users,
		log:         log,
	}
}

// Enroll places an active student into a class, charging the first monthly
// fee up front. Capacity is enforced inside the insert, so a full class
// rejects the enrollment even under concurrent requests.
func (s *EnrollmentService) Enroll(ctx context.Context, classID, studentID string) (models.Enrollment, error) {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return models.Enrollment{}, apperrors.NotFound("class not found")
		}
		return models.Enrollment{}, apperrors.Internal(err)
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Enrollment{}, apperrors.NotFound("student not found")
		}
		return models.Enrollment{}, apperrors.Internal(err)
	}
	if student.Role != models.UserRoleStudent {
		return models.Enrollment{}, apperrors.Validation("user is not a student")
	}
	if student.Status != models.UserStatusActive {
		return models.Enrollment{}, apperrors.Validation("student account is not active")
	}

	if _, err := s.enrollments.FindActive(ctx, classID, studentID); err == nil {
		return models.Enrollment{}, apperrors.Conflict("student already enrolled")
	} else if !errors.Is(err, repository.ErrEnrollmentNotFound) {
		return models.Enrollment{}, apperrors.Internal(err)
	}

	enrollment := models.Enrollment{
		ID:        ids.New(),
		ClassID:   classID,
		StudentID: studentID,
		Status:    models.EnrollmentStatusActive,
	}
	if err := s.enrollments.CreateIfCapacity(ctx, enrollment, class.Capacity); err != nil {
		if errors.Is(err, repository.ErrClassFull) {
			return models.Enrollment{}, apperrors.Conflict("class is full")
		}
		return models.Enrollment{}, apperrors.Internal(err)
	}

	if class.MonthlyFeeCents > 0 {
		if err := s.fees.AddCharge(ctx, enrollment.ID, class.MonthlyFeeCents); err != nil {
			s.log.Error().Err(err).Str("enrollment_id", enrollment.ID).Msg("initial fee charge failed")
		}
	}

	return enrollment, nil
}

func (s *EnrollmentService) Withdraw(ctx context.Context, enrollmentID string) error {
	if err := s.enrollments.UpdateStatus(ctx, enrollmentID, models.EnrollmentStatusWithdrawn); err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return apperrors.NotFound("enrollment not found")
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *EnrollmentService) Charge(ctx context.Context, enrollmentID string, amountCents int64) (models.FeeBalance, error) {
	if amountCents <= 0 {
		return models.FeeBalance{}, apperrors.Validation("amount must be positive")
	}
	if _, err := s.enrollments.GetByID(ctx, enrollmentID); err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return models.FeeBalance{}, apperrors.NotFound("enrollment not found")
		}
		return models.FeeBalance{}, apperrors.Internal(err)
	}
	if err := s.fees.AddCharge(ctx, enrollmentID, amountCents); err != nil {
		return models.FeeBalance{}, apperrors.Internal(err)
	}
	return s.fee(ctx, enrollmentID)
}

func (s *EnrollmentService) RecordPayment(ctx context.Context, enrollmentID string, amountCents int64) (models.FeeBalance, error) {
	if amountCents <= 0 {
		return models.FeeBalance{}, apperrors.Validation("amount must be positive")
	}
	if err := s.fees.AddPayment(ctx, enrollmentID, amountCents); err != nil {
		switch {
		case errors.Is(err, repository.ErrFeeBalanceNotFound):
			return models.FeeBalance{}, apperrors.NotFound("fee balance not found")
		case errors.Is(err, repository.ErrPaymentExceedsDue):
			return models.FeeBalance{}, apperrors.Validation("payment exceeds outstanding balance")
		default:
			return models.FeeBalance{}, apperrors.Internal(err)
		}
	}
	return s.fee(ctx, enrollmentID)
}

func (s *EnrollmentService) ListByClass(ctx context.Context, classID string) ([]models.Enrollment, error) {
	if _, err := s.classes.GetByID(ctx, classID); err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			return nil, apperrors.NotFound("class not found")
		}
		return nil, apperrors.Internal(err)
	}
	enrollments, err := s.enrollments.ListByClass(ctx, classID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return enrollments, nil
}

// ListForStudent applies the student-visibility rule before listing.
func (s *EnrollmentService) ListForStudent(ctx context.Context, requester models.PublicUser, studentID string) ([]models.Enrollment, error) {
	if err := canAccessStudent(ctx, s.users, requester, studentID); err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return enrollments, nil
}

// BalanceFor resolves the enrollment's student and applies the same
// visibility rule fee data inherits from enrollments.
func (s *EnrollmentService) BalanceFor(ctx context.Context, requester models.PublicUser, enrollmentID string) (models.FeeBalance, error) {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return models.FeeBalance{}, apperrors.NotFound("enrollment not found")
		}
		return models.FeeBalance{}, apperrors.Internal(err)
	}
	if err := canAccessStudent(ctx, s.users, requester, enrollment.StudentID); err != nil {
		return models.FeeBalance{}, err
	}
	return s.fee(ctx, enrollmentID)
}

func (s *EnrollmentService) fee(ctx context.Context, enrollmentID string) (models.FeeBalance, error) {
	fee, err := s.fees.GetByEnrollment(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrFeeBalanceNotFound) {
			return models.FeeBalance{}, apperrors.NotFound("fee balance not found")
		}
		return models.FeeBalance{}, apperrors.Internal(err)
	}
	return fee, nil
}
