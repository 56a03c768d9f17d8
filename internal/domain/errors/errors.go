// Package errors defines the externally visible error taxonomy of the cart
// service. Each kind is a tagged value with an HTTP status and business code;
// callers match on the code instead of chaining type assertions.
package errors

import (
	"fmt"
	"net/http"

	"cart/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// WithDetailsf adds formatted detailed error information
func (e *BaseError) WithDetailsf(format string, args ...any) *BaseError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// Is matches errors by business code so that a detailed copy still matches
// its predefined kind under errors.Is.
func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)

	return ok && other.errorCode == e.errorCode
}

// Predefined error types
var (
	// Quantity-related errors
	ErrInvalidQuantity = NewBaseError(
		http.StatusBadRequest,
		"INVALID_QUANTITY",
		"商品數量必須至少為 1",
		"",
	)

	// Catalog-related errors
	ErrProductNotFound = NewBaseError(
		http.StatusNotFound,
		"PRODUCT_NOT_FOUND",
		"找不到該商品",
		"",
	)

	ErrInsufficientStock = NewBaseError(
		http.StatusBadRequest,
		"INSUFFICIENT_STOCK",
		"商品庫存不足",
		"",
	)

	ErrCatalogUnavailable = NewBaseError(
		http.StatusBadGateway,
		"CATALOG_UNAVAILABLE",
		"商品目錄服務暫時無法使用",
		"",
	)

	// Cart-related errors
	ErrCartNotFound = NewBaseError(
		http.StatusNotFound,
		"CART_NOT_FOUND",
		"找不到該購物車",
		"",
	)

	ErrCartItemNotFound = NewBaseError(
		http.StatusNotFound,
		"CART_ITEM_NOT_FOUND",
		"找不到該購物車項目",
		"",
	)

	ErrCartConflict = NewBaseError(
		http.StatusConflict,
		"CART_CONFLICT",
		"購物車已被其他請求修改，請重試",
		"",
	)

	ErrCartStoreFailed = NewBaseError(
		http.StatusInternalServerError,
		"CART_STORE_FAILED",
		"購物車儲存失敗",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"輸入資料驗證失敗",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"系統內部錯誤",
		"",
	)
)
