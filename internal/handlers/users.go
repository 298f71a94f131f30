package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"schoolhub/api/internal/middleware"
	"schoolhub/api/internal/models"
	"schoolhub/api/internal/repository"
	"schoolhub/api/internal/service"
)

func (h HandlerSet) ListUsers(c *gin.Context) {
	filter := repository.UserFilter{
		Role:   models.UserRole(c.Query("role")),
		Status: models.UserStatus(c.Query("status")),
	}
	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 {
			filter.Limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			limit := filter.Limit
			if limit <= 0 {
				limit = 50
			}
			filter.Offset = (v - 1) * limit
		}
	}

	users, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": publicUsers(users)})
}

func (h HandlerSet) ListPendingUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), repository.UserFilter{
		Status: models.UserStatusPending,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": publicUsers(users)})
}

// AdminCreateUser provisions an account that starts active, skipping the
// approval queue. Registration payload rules still apply.
func (h HandlerSet) AdminCreateUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		Role:        models.UserRole(req.Role),
		Phone:       req.PhoneNumber,
		ParentEmail: req.ParentEmail,
		LocationID:  req.LocationID,
	}, true)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h HandlerSet) ApproveUser(c *gin.Context) {
	h.setUserStatus(c, models.UserStatusActive, "user approved")
}

func (h HandlerSet) DeactivateUser(c *gin.Context) {
	h.setUserStatus(c, models.UserStatusInactive, "user deactivated")
}

func (h HandlerSet) setUserStatus(c *gin.Context, status models.UserStatus, message string) {
	id := c.Param("id")
	if err := h.users.UpdateStatus(c.Request.Context(), id, status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// RejectUser deletes a sign-up that is still pending. Active accounts are
// deactivated instead of deleted, so this refuses them.
func (h HandlerSet) RejectUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.users.DeletePending(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no pending user with that id"})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "registration rejected"})
}

// MyChildren lists the student accounts linked to the calling parent
// through the parent email recorded at registration.
func (h HandlerSet) MyChildren(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
		return
	}
	if user.Role != string(models.UserRoleParent) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}

	students, err := h.users.FindStudentsByParentEmail(c.Request.Context(), user.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": publicUsers(students)})
}

func publicUsers(users []models.User) []models.PublicUser {
	out := make([]models.PublicUser, 0, len(users))
	for _, user := range users {
		out = append(out, user.Public())
	}
	return out
}
