package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolhub/api/internal/apperrors"
)

// respondError maps a service error onto the HTTP taxonomy. Internal causes
// are logged here and never reach the client body.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	status := apperrors.Status(err)
	if status == http.StatusInternalServerError {
		h.log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	c.JSON(status, gin.H{"error": apperrors.ClientMessage(err)})
}

// bindError reports a request-body binding failure. Binding messages come
// from validator tags and carry no internal state.
func (h HandlerSet) bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
