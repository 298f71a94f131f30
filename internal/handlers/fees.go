package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolhub/api/internal/middleware"
)

type feeAmountRequest struct {
	AmountCents int64 `json:"amountCents" binding:"required,min=1"`
}

func (h HandlerSet) GetFeeBalance(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
		return
	}

	fee, err := h.enrollments.BalanceFor(c.Request.Context(), user, c.Param("enrollmentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":          fee,
		"outstandingCents": fee.OutstandingCents(),
	})
}

func (h HandlerSet) ChargeFee(c *gin.Context) {
	var req feeAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	fee, err := h.enrollments.Charge(c.Request.Context(), c.Param("enrollmentId"), req.AmountCents)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": fee})
}

func (h HandlerSet) RecordFeePayment(c *gin.Context) {
	var req feeAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	fee, err := h.enrollments.RecordPayment(c.Request.Context(), c.Param("enrollmentId"), req.AmountCents)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": fee})
}
