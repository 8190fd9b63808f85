package utils

import (
	"errors"
	"net/http"

	"clinic-procedure-scheduling/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// SuccessResponse sends a standard success JSON response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// ListResponse sends a paginated list response with the total count
func ListResponse(c *gin.Context, key string, items interface{}, total int64, limit, offset int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			key:      items,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// ErrorResponse sends a plain error JSON response, used for transport-level
// failures (bad input shape, auth) that have no domain error kind
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   message,
	})
}

// AppErrorResponse maps an application error to its status code and sends the
// stable kind plus message so clients can dispatch without parsing text.
func AppErrorResponse(c *gin.Context, err error) {
	body := gin.H{
		"kind":    apperrors.KindOf(err),
		"message": err.Error(),
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body["message"] = appErr.Message
		if appErr.ConflictingProcedureID != 0 {
			body["conflicting_procedure_id"] = appErr.ConflictingProcedureID
		}
	}
	c.JSON(apperrors.HTTPStatus(err), gin.H{
		"success": false,
		"error":   body,
	})
}

// MessageResponse sends a simple message response
func MessageResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}
