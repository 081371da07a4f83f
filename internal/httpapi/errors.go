package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobmate/brain-service/internal/conversation"
	"jobmate/brain-service/internal/filestore"
	"jobmate/brain-service/internal/logger"
	"jobmate/brain-service/internal/records"
)

// toHTTPStatus maps domain errors to status codes. Anything unrecognised is a
// storage fault.
func toHTTPStatus(err error) int {
	var ve *records.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, records.ErrNoMatch),
		errors.Is(err, records.ErrNotFound),
		errors.Is(err, conversation.ErrSessionNotFound),
		errors.Is(err, filestore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, records.ErrDuplicateApplication):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(c *gin.Context, err error) {
	code := toHTTPStatus(err)
	if code == http.StatusInternalServerError {
		logger.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		jsonError(c, code, "internal error")
		return
	}
	jsonError(c, code, err.Error())
}

func jsonError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}
