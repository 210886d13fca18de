package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-storefront/internal/app/service"
	"github.com/ikkim/udonggeum-storefront/pkg/apiclient"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Status  int    // HTTP 상태 코드
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자 친화적 메시지
}

type mapping struct {
	target  error
	status  int
	code    string
	message string
}

// 서비스 계층 에러 매핑
var serviceErrors = []mapping{
	{service.ErrInvalidCartLine, http.StatusBadRequest, CartInvalidLine, "상품 정보가 올바르지 않습니다"},
	{service.ErrInvalidWishlistEntry, http.StatusBadRequest, WishlistInvalidEntry, "상품 정보가 올바르지 않습니다"},
	{service.ErrInvalidCredentials, http.StatusBadRequest, ValidationRequired, "이메일과 비밀번호를 입력해주세요"},
	{service.ErrLoginMissingToken, http.StatusBadGateway, SessionBadLoginPayload, "로그인 응답이 올바르지 않습니다"},
	{service.ErrLoginMissingUser, http.StatusBadGateway, SessionBadLoginPayload, "로그인 응답이 올바르지 않습니다"},
	{service.ErrEmptySelection, http.StatusBadRequest, CheckoutEmptySelection, "주문할 상품을 선택해주세요"},
	{service.ErrSelectionLineNotFound, http.StatusNotFound, CheckoutLineNotFound, "주문서에 없는 상품입니다"},
	{service.ErrAddressRequired, http.StatusBadRequest, CheckoutAddressRequired, "배송지를 선택해주세요"},
	{service.ErrInvalidAddress, http.StatusBadRequest, CheckoutInvalidAddress, "배송지 주소를 확인해주세요"},
	{service.ErrPaymentMethodRequired, http.StatusBadRequest, CheckoutPaymentRequired, "결제 수단을 선택해주세요"},
	{service.ErrAuthRequired, http.StatusUnauthorized, AuthUnauthorized, "로그인이 필요합니다"},
}

// ParseError 에러를 파싱하여 상태 코드, 에러 코드, 메시지로 변환
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "서버 오류가 발생했습니다",
		}
	}

	// 1. 서비스 계층 에러
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			return ErrorInfo{Status: m.status, Code: m.code, Message: m.message}
		}
	}

	// 2. 상위 API 에러
	if info, ok := parseUpstreamError(err, context); ok {
		return info
	}

	// 3. 저장소 에러
	errLower := strings.ToLower(err.Error())
	if isStorageError(errLower) {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalStorageError,
			Message: "기기 저장소 오류가 발생했습니다",
		}
	}

	// 4. 기본 내부 서버 오류
	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    failureCode(context),
		Message: getDefaultErrorMessage(context),
	}
}

// 저장소 드라이버(kv/redis/s3) 및 문서 읽기/쓰기 실패
func isStorageError(errLower string) bool {
	for _, marker := range []string{"failed to read", "failed to write", "failed to encode", "kv ", "redis ", "s3 "} {
		if strings.Contains(errLower, marker) {
			return true
		}
	}
	return false
}

func parseUpstreamError(err error, context string) (ErrorInfo, bool) {
	switch {
	case errors.Is(err, apiclient.ErrNetworkError):
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    UpstreamUnavailable,
			Message: "쇼핑몰 서버에 연결할 수 없습니다. 잠시 후 다시 시도해주세요",
		}, true
	case errors.Is(err, apiclient.ErrUnauthorized):
		if strings.Contains(context, "login") {
			return ErrorInfo{
				Status:  http.StatusUnauthorized,
				Code:    AuthInvalidCredentials,
				Message: "이메일 또는 비밀번호가 올바르지 않습니다",
			}, true
		}
		return ErrorInfo{
			Status:  http.StatusUnauthorized,
			Code:    AuthSessionExpired,
			Message: "로그인이 만료되었습니다. 다시 로그인해주세요",
		}, true
	case errors.Is(err, apiclient.ErrNotFound):
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}, true
	case errors.Is(err, apiclient.ErrConflict):
		return ErrorInfo{
			Status:  http.StatusConflict,
			Code:    ResourceConflict,
			Message: upstreamMessage(err, "이미 처리된 요청입니다"),
		}, true
	case errors.Is(err, apiclient.ErrInvalidRequest):
		return ErrorInfo{
			Status:  http.StatusBadRequest,
			Code:    UpstreamRejected,
			Message: upstreamMessage(err, "요청이 거부되었습니다"),
		}, true
	case errors.Is(err, apiclient.ErrServer):
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    UpstreamError,
			Message: "쇼핑몰 서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요",
		}, true
	}
	return ErrorInfo{}, false
}

// upstreamMessage 상위 API가 보낸 메시지가 있으면 그대로 전달
func upstreamMessage(err error, fallback string) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func failureCode(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "cart"):
		return CartUpdateFailed
	case strings.Contains(contextLower, "wishlist"):
		return WishlistUpdateFailed
	case strings.Contains(contextLower, "login"):
		return SessionLoginFailed
	}
	return InternalServerError
}

// getNotFoundMessage context에 따른 Not Found 메시지
func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "cart") {
		return "장바구니 상품을 찾을 수 없습니다"
	}
	if strings.Contains(contextLower, "wishlist") {
		return "찜한 상품을 찾을 수 없습니다"
	}
	if strings.Contains(contextLower, "order") {
		return "주문 정보를 찾을 수 없습니다"
	}

	return "요청한 데이터를 찾을 수 없습니다"
}

// getDefaultErrorMessage context에 따른 기본 에러 메시지
func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "cart") {
		return "장바구니 처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "wishlist") {
		return "찜 처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "order") || strings.Contains(contextLower, "checkout") {
		return "주문 처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}

	return "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
}

// ParseAndRespond 에러를 파싱하여 응답 반환 (헬퍼 함수)
func ParseAndRespond(c *gin.Context, err error, context string) {
	info := ParseError(err, context)
	RespondWithError(c, info.Status, info.Code, info.Message)
}
