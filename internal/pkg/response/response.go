package response

import (
	"errors"
	"net/http"

	"admarket/internal/apperror"
	"admarket/internal/logger"

	"github.com/gin-gonic/gin"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

// Paginated wraps a page of items together with paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	Success(c, http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// coded errors override the default error code for their kind.
type coded interface {
	Code() string
}

// detailed errors carry a response payload beyond field messages.
type detailed interface {
	Details() map[string]any
}

// FromError writes the envelope for a service error. Unknown errors are logged and hidden.
func FromError(c *gin.Context, log *logger.Logger, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		if log != nil {
			log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		}
		_ = c.Error(err)
		Error(c, status, code, "Internal server error")
		return
	}

	var d detailed
	if errors.As(err, &d) {
		ErrorWithDetails(c, status, code, err.Error(), d.Details())
		return
	}
	if fields := apperror.FieldsOf(err); len(fields) > 0 {
		ErrorWithDetails(c, status, code, err.Error(), fields)
		return
	}
	Error(c, status, code, err.Error())
}

func classify(err error) (int, string) {
	var status int
	var code string

	switch {
	case apperror.Is(err, apperror.KindValidation):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case apperror.Is(err, apperror.KindInvalidTransition):
		status, code = http.StatusBadRequest, "INVALID_TRANSITION"
	case apperror.Is(err, apperror.KindNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case apperror.Is(err, apperror.KindForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case apperror.Is(err, apperror.KindConflict):
		status, code = http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}

	var cd coded
	if errors.As(err, &cd) {
		code = cd.Code()
	}
	if code == "BOOKING_CONFLICT" {
		// overlapping date ranges are reported as a bad request on the dates field
		status = http.StatusBadRequest
	}
	return status, code
}
