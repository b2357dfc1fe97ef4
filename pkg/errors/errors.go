// Package errors provides standardized error types for the catalog.
// It defines the sentinel errors returned by stores and services, error
// wrapping for product ids and field validation, and helpers to map an
// error onto an HTTP status code.
//
// Package errors 提供目录服务的标准化错误类型。
// 它定义了存储层和服务层返回的哨兵错误、产品ID和字段校验的错误包装，
// 以及将错误映射为HTTP状态码的辅助函数。
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Standard errors that can be returned by the catalog.
//
// 目录服务可能返回的标准错误。
var (
	// ErrNotFound is returned when no product has the addressed id.
	// 当找不到指定ID的产品时返回ErrNotFound。
	ErrNotFound = errors.New("catalog: product not found")

	// ErrInvalidInput is returned when a payload or query parameter is invalid.
	// 当请求体或查询参数无效时返回ErrInvalidInput。
	ErrInvalidInput = errors.New("catalog: invalid input")

	// ErrIDMismatch is returned when the id in an update payload differs from the addressed id.
	// 当更新请求体中的ID与路径ID不一致时返回ErrIDMismatch。
	ErrIDMismatch = fmt.Errorf("%w: id in body does not match id in path", ErrInvalidInput)

	// ErrUnauthorized is returned when a request carries no valid bearer credential.
	// 当请求没有携带有效的Bearer凭证时返回ErrUnauthorized。
	ErrUnauthorized = errors.New("catalog: unauthorized")

	// ErrForbidden is returned when the credential lacks the required role.
	// 当凭证缺少所需角色时返回ErrForbidden。
	ErrForbidden = errors.New("catalog: forbidden")

	// ErrKeyEmpty is returned when an empty cache key is provided.
	// 当提供空的缓存键时返回ErrKeyEmpty。
	ErrKeyEmpty = errors.New("cache: key is empty")

	// ErrCacheClosed is returned when an operation is performed on a closed cache.
	// 当对已关闭的缓存执行操作时返回ErrCacheClosed。
	ErrCacheClosed = errors.New("cache: cache is closed")
)

// ProductError represents an error related to a specific product id.
// It wraps an underlying error with the id that caused the error.
//
// ProductError 表示与特定产品ID相关的错误。
// 它用导致错误的ID包装底层错误。
type ProductError struct {
	ID  int   // The product id / 产品ID
	Err error // The underlying error / 底层错误
}

// Error returns the error message.
//
// Error 返回错误消息。
func (e *ProductError) Error() string {
	return fmt.Sprintf("%s: id %d", e.Err, e.ID)
}

// Unwrap returns the underlying error so errors.Is and errors.As see through it.
//
// Unwrap 返回底层错误，以便errors.Is和errors.As可以识别。
func (e *ProductError) Unwrap() error {
	return e.Err
}

// NewProductError creates a new ProductError.
//
// Parameters:
//   - id: The product id that caused the error
//   - err: The underlying error
//
// Returns:
//   - *ProductError: A new product error instance
func NewProductError(id int, err error) *ProductError {
	return &ProductError{ID: id, Err: err}
}

// FieldError describes one invalid field of a payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field level problems of a payload.
// It unwraps to ErrInvalidInput.
//
// ValidationError 收集请求体的字段级问题，解包后为ErrInvalidInput。
type ValidationError struct {
	Fields []FieldError
}

// Error returns the joined field messages.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

// Unwrap returns ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Add appends a field problem.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field problem was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Invalid creates an invalid-input error with a free form reason.
//
// Invalid 创建一个带有原因描述的无效输入错误。
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsNotFound returns true if the error is or wraps ErrNotFound.
//
// IsNotFound 如果错误是或包装了ErrNotFound，则返回true。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput returns true if the error is or wraps ErrInvalidInput.
//
// IsInvalidInput 如果错误是或包装了ErrInvalidInput，则返回true。
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnauthorized returns true if the error is or wraps ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden returns true if the error is or wraps ErrForbidden.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// Fields extracts the field problems of a ValidationError anywhere in the chain.
func Fields(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// HTTPStatus maps an error onto the status code returned to the caller.
// Errors outside the catalog taxonomy map to 500.
//
// HTTPStatus 将错误映射为返回给调用方的状态码。
// 不属于目录错误分类的错误映射为500。
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsUnauthorized(err):
		return http.StatusUnauthorized
	case IsForbidden(err):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
