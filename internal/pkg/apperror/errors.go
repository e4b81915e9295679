package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError   ErrorCode = "DATABASE_ERROR"
	ErrCodeInvalidState    ErrorCode = "INVALID_STATE"
	ErrCodeInvalidAmount   ErrorCode = "INVALID_AMOUNT"
	ErrCodeAlreadyApplied  ErrorCode = "ALREADY_APPLIED"
	ErrCodeZeroAddress     ErrorCode = "ZERO_ADDRESS"
	ErrCodeInvalidDeadline ErrorCode = "INVALID_DEADLINE"
	ErrCodeSelfDelegation  ErrorCode = "SELF_DELEGATION"
	ErrCodeTransferFailed  ErrorCode = "TRANSFER_FAILED"
	ErrCodeReentrantCall   ErrorCode = "REENTRANT_CALL"
	ErrCodeNonTransferable ErrorCode = "NON_TRANSFERABLE"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidAmount,
		ErrCodeZeroAddress, ErrCodeInvalidDeadline, ErrCodeSelfDelegation,
		ErrCodeTransferFailed:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidState, ErrCodeAlreadyApplied,
		ErrCodeReentrantCall, ErrCodeNonTransferable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// InvalidAmountError несёт фактически одобренную и требуемую суммы
// при недостаточном allowance. Извлекается через errors.As.
type InvalidAmountError struct {
	Authorized uint64
	Required   uint64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("authorized %d, required %d", e.Authorized, e.Required)
}

// NewInvalidAmount строит AppError с вложенным InvalidAmountError.
func NewInvalidAmount(authorized, required uint64) *AppError {
	return Wrap(
		&InvalidAmountError{Authorized: authorized, Required: required},
		ErrCodeInvalidAmount,
		"недостаточный allowance для финансирования вехи",
	)
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsInvalidState(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeInvalidState
}

var (
	ErrProjectNotFound    = New(ErrCodeNotFound, "проект не найден")
	ErrMilestoneNotFound  = New(ErrCodeNotFound, "веха не найдена")
	ErrCredentialNotFound = New(ErrCodeNotFound, "репутационный токен не найден")
	ErrUserNotFound       = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверные учетные данные")
)
