// internal/api/response_helpers.go
package api

import (
	"net/http"
	"strings"

	"github.com/Corphon/StyleCritic/internal/errors"
	"github.com/Corphon/StyleCritic/internal/utils"
	"github.com/gin-gonic/gin"
)

const requestIDKey = "request_id"

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ResponseHelper 响应助手类
type ResponseHelper struct {
	logger *utils.Logger
}

// NewResponseHelper 创建响应助手
func NewResponseHelper(logger *utils.Logger) *ResponseHelper {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &ResponseHelper{logger: logger}
}

// Error writes a JSON error with an explicit status and code.
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:     sanitizeErrorMessage(message),
		Code:      errorCode,
		RequestID: requestID(c),
	})
}

// FromError converts err into a response at the request boundary.
// Client errors echo their message; server errors answer with a fixed text and log the cause.
func (rh *ResponseHelper) FromError(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)
	status := appErr.HTTPStatus()
	message := appErr.Message

	if status >= http.StatusInternalServerError {
		rh.logger.Error("request failed", map[string]interface{}{
			"request_id": requestID(c),
			"path":       c.Request.URL.Path,
			"code":       appErr.Code,
			"error":      appErr.Error(),
		})
		if public, ok := publicMessages[appErr.Code]; ok {
			message = public
		} else {
			message = msgInternalFailure
		}
	}

	rh.Error(c, status, appErr.Code, message)
}

// sanitizeErrorMessage keeps credentials out of client-visible text.
func sanitizeErrorMessage(message string) string {
	lower := strings.ToLower(message)
	for _, pattern := range []string{"api_key", "apikey", "secret", "token", "authorization"} {
		if strings.Contains(lower, pattern) {
			return msgInternalFailure
		}
	}
	return message
}

// requestID 获取请求ID
func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
