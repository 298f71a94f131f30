package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolhub/api/internal/middleware"
)

type enrollRequest struct {
	ClassID   string `json:"classId" binding:"required"`
	StudentID string `json:"studentId" binding:"required"`
}

func (h HandlerSet) Enroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req.ClassID, req.StudentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"enrollment": enrollment})
}

func (h HandlerSet) Withdraw(c *gin.Context) {
	if err := h.enrollments.Withdraw(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "enrollment withdrawn"})
}

func (h HandlerSet) ListClassEnrollments(c *gin.Context) {
	enrollments, err := h.enrollments.ListByClass(c.Request.Context(), c.Param("classId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}

func (h HandlerSet) ListStudentEnrollments(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
		return
	}

	enrollments, err := h.enrollments.ListForStudent(c.Request.Context(), user, c.Param("studentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}
