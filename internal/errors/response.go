package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// requestIDKey 로깅 미들웨어가 요청 ID를 저장하는 키
const requestIDKey = "request_id"

// ErrorResponse 표준 에러 응답 구조
type ErrorResponse struct {
	Error     string            `json:"error"`   // 에러 코드 (셸에서 매핑용)
	Message   string            `json:"message"` // 사용자 메시지 (한글)
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

func newErrorResponse(c *gin.Context, errorCode, message string) ErrorResponse {
	return ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestID: c.GetString(requestIDKey),
	}
}

// RespondWithError 에러 코드와 메시지로 응답하고 이후 핸들러를 중단
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.AbortWithStatusJSON(statusCode, newErrorResponse(c, errorCode, message))
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "로그인이 필요합니다"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

// RespondWithValidationError 필드별 오류를 포함한 400 응답
func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	resp := newErrorResponse(c, ValidationInvalidInput, "입력값이 올바르지 않습니다")
	resp.Fields = fields
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}
