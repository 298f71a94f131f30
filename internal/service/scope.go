package service

import (
	"context"

	"schoolhub/api/internal/apperrors"
	"schoolhub/api/internal/models"
)

// canAccessStudent is the shared visibility rule for student-scoped data:
// staff see everyone, students see themselves, parents see children linked
// through the parent email recorded at registration.
func canAccessStudent(ctx context.Context, users UserStore, requester models.PublicUser, studentID string) error {
	switch models.UserRole(requester.Role) {
	case models.UserRoleAdmin, models.UserRoleTeacher:
		return nil
	case models.UserRoleStudent:
		if requester.ID == studentID {
			return nil
		}
	case models.UserRoleParent:
		student, err := users.GetByID(ctx, studentID)
		if err == nil && student.ParentEmail != nil && *student.ParentEmail == requester.Email {
			return nil
		}
	}
	return apperrors.Authorization("insufficient permissions")
}
