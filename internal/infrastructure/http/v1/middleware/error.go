package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/infrastructure/http/v1/dto"
	"stockledger/pkg/logger"
)

// ErrorHandler renders errors registered with c.Error as the failure envelope.
// Failures are signaled in the payload with HTTP 200. Internal causes are
// logged, never sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// Response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		c.JSON(http.StatusOK, errorBody(c, c.Errors.Last().Err))
	}
}

func errorBody(c *gin.Context, err error) dto.ErrorResponse {
	ctx := c.Request.Context()

	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.Err != nil {
			logger.Error(ctx, "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		} else {
			logger.Debug(ctx, "request rejected",
				"code", appErr.Code,
				"message", appErr.Message,
			)
		}
		return dto.NewErrorResponse(appErr.Code, appErr.Message, appErr.Details)
	}

	logger.Error(ctx, "unhandled error", "error", err)

	return dto.NewErrorResponse(apperror.CodeInternal, "Internal server error", map[string]any{
		"request_id": c.GetString("request_id"),
	})
}
