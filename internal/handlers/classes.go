package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolhub/api/internal/ids"
	"schoolhub/api/internal/middleware"
	"schoolhub/api/internal/models"
	"schoolhub/api/internal/repository"
)

type classRequest struct {
	Name            string `json:"name" binding:"required"`
	Subject         string `json:"subject" binding:"required"`
	LocationID      string `json:"locationId" binding:"required"`
	TeacherID       string `json:"teacherId" binding:"required"`
	Capacity        int    `json:"capacity" binding:"required,min=1"`
	MonthlyFeeCents int64  `json:"monthlyFeeCents" binding:"min=0"`
}

// ListClasses returns every class for admins; teachers see only their own.
func (h HandlerSet) ListClasses(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
		return
	}

	var (
		classes []models.Class
		err     error
	)
	if user.Role == string(models.UserRoleTeacher) {
		classes, err = h.classes.ListByTeacher(c.Request.Context(), user.ID)
	} else {
		classes, err = h.classes.List(c.Request.Context())
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (h HandlerSet) GetClass(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
		return
	}

	class, err := h.classes.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
			return
		}
		h.respondError(c, err)
		return
	}

	if user.Role == string(models.UserRoleTeacher) && class.TeacherID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"class": class})
}

func (h HandlerSet) CreateClass(c *gin.Context) {
	var req classRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	if err := h.validateClassRefs(c, req); err != nil {
		return
	}

	class := models.Class{
		ID:              ids.New(),
		Name:            req.Name,
		Subject:         req.Subject,
		LocationID:      req.LocationID,
		TeacherID:       req.TeacherID,
		Capacity:        req.Capacity,
		MonthlyFeeCents: req.MonthlyFeeCents,
	}

	if err := h.classes.Create(c.Request.Context(), class); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"class": class})
}

func (h HandlerSet) UpdateClass(c *gin.Context) {
	var req classRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	if err := h.validateClassRefs(c, req); err != nil {
		return
	}

	class := models.Class{
		ID:              c.Param("id"),
		Name:            req.Name,
		Subject:         req.Subject,
		LocationID:      req.LocationID,
		TeacherID:       req.TeacherID,
		Capacity:        req.Capacity,
		MonthlyFeeCents: req.MonthlyFeeCents,
	}

	if err := h.classes.Update(c.Request.Context(), class); err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"class": class})
}

func (h HandlerSet) DeleteClass(c *gin.Context) {
	if err := h.classes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrClassNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "class deleted"})
}

// validateClassRefs checks the location and teacher a class points at.
// Writes the error response itself and returns non-nil when invalid.
func (h HandlerSet) validateClassRefs(c *gin.Context, req classRequest) error {
	if _, err := h.locations.GetByID(c.Request.Context(), req.LocationID); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown location"})
			return err
		}
		h.respondError(c, err)
		return err
	}

	teacher, err := h.users.GetByID(c.Request.Context(), req.TeacherID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown teacher"})
			return err
		}
		h.respondError(c, err)
		return err
	}
	if teacher.Role != models.UserRoleTeacher {
		err := errors.New("not a teacher")
		c.JSON(http.StatusBadRequest, gin.H{"error": "teacherId must reference a teacher account"})
		return err
	}
	return nil
}
