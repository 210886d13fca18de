package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// UI 셸은 이 코드를 기준으로 토스트 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // 로그인 필요
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // 잘못된 이메일/비밀번호
	AuthSessionExpired     = "AUTH_SESSION_EXPIRED"     // 서버가 토큰을 거부함

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // 잘못된 입력
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // 잘못된 ID
	ValidationRequired     = "VALIDATION_REQUIRED"      // 필수 항목

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND" // 리소스 없음
	ResourceConflict = "RESOURCE_CONFLICT"  // 충돌

	// ==================== 장바구니 (CART_) ====================
	CartInvalidLine  = "CART_INVALID_LINE"  // 상품 ID 없음
	CartUpdateFailed = "CART_UPDATE_FAILED" // 담기/삭제 실패
	CartExportFailed = "CART_EXPORT_FAILED" // 엑셀 내보내기 실패

	// ==================== 찜 (WISHLIST_) ====================
	WishlistInvalidEntry = "WISHLIST_INVALID_ENTRY" // 상품 ID 없음
	WishlistUpdateFailed = "WISHLIST_UPDATE_FAILED" // 찜 변경 실패

	// ==================== 세션 (SESSION_) ====================
	SessionLoginFailed     = "SESSION_LOGIN_FAILED"     // 로그인 실패
	SessionBadLoginPayload = "SESSION_BAD_LOGIN_PAYLOAD" // 로그인 응답에 사용자/토큰 없음

	// ==================== 주문서 (CHECKOUT_) ====================
	CheckoutEmptySelection  = "CHECKOUT_EMPTY_SELECTION"  // 선택한 상품 없음
	CheckoutLineNotFound    = "CHECKOUT_LINE_NOT_FOUND"   // 주문서에 없는 상품
	CheckoutAddressRequired = "CHECKOUT_ADDRESS_REQUIRED" // 배송지 필요
	CheckoutInvalidAddress  = "CHECKOUT_INVALID_ADDRESS"  // 배송지 형식 오류
	CheckoutPaymentRequired = "CHECKOUT_PAYMENT_REQUIRED" // 결제 수단 필요

	// ==================== 상위 API (UPSTREAM_) ====================
	UpstreamUnavailable = "UPSTREAM_UNAVAILABLE" // 연결 실패
	UpstreamRejected    = "UPSTREAM_REJECTED"    // 4xx 응답
	UpstreamError       = "UPSTREAM_ERROR"       // 5xx 응답

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError  = "INTERNAL_SERVER_ERROR"  // 서버 오류
	InternalStorageError = "INTERNAL_STORAGE_ERROR" // 저장소 오류
)
