package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized           ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden              ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest             ErrorCode = "BAD_REQUEST"
	ErrCodeConflict               ErrorCode = "CONFLICT"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation             ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError          ErrorCode = "DATABASE_ERROR"
	ErrCodeInvalidTransition      ErrorCode = "INVALID_TRANSITION"
	ErrCodeMissingReason          ErrorCode = "MISSING_REASON"
	ErrCodeOverpayment            ErrorCode = "OVERPAYMENT"
	ErrCodeInvoiceCancelled       ErrorCode = "INVOICE_CANCELLED"
	ErrCodeAlreadyCancelled       ErrorCode = "ALREADY_CANCELLED"
	ErrCodeAlreadyPaid            ErrorCode = "ALREADY_PAID"
	ErrCodePaymentReversed        ErrorCode = "PAYMENT_ALREADY_REVERSED"
	ErrCodePaymentMismatch        ErrorCode = "PAYMENT_MISMATCH"
	ErrCodeNumberGenerationFailed ErrorCode = "NUMBER_GENERATION_FAILED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	// Details содержит актуальные числа (оплачено, итог, остаток),
	// чтобы клиент мог скорректировать запрос без повторного чтения.
	Details map[string]interface{}
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

// WithDetails возвращает копию ошибки с дополнительным контекстом.
// Исходная ошибка не мутируется, чтобы package-level ошибки оставались неизменяемыми.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeMissingReason:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidTransition, ErrCodeOverpayment,
		ErrCodeInvoiceCancelled, ErrCodeAlreadyCancelled, ErrCodeAlreadyPaid,
		ErrCodePaymentReversed, ErrCodePaymentMismatch:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

var (
	ErrEstimateNotFound = New(ErrCodeNotFound, "смета не найдена")
	ErrInvoiceNotFound  = New(ErrCodeNotFound, "счёт не найден")
	ErrPaymentNotFound  = New(ErrCodeNotFound, "платёж не найден")
	ErrProjectNotFound  = New(ErrCodeNotFound, "проект не найден")
	ErrUnauthorized     = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden        = New(ErrCodeForbidden, "недостаточно прав")

	ErrMissingReason    = New(ErrCodeMissingReason, "требуется указать причину")
	ErrInvoiceCancelled = New(ErrCodeInvoiceCancelled, "счёт отменён, платёжные операции недоступны")
	ErrAlreadyCancelled = New(ErrCodeAlreadyCancelled, "счёт уже отменён")
	ErrAlreadyPaid      = New(ErrCodeAlreadyPaid, "оплаченный счёт нельзя отменить")
	ErrPaymentReversed  = New(ErrCodePaymentReversed, "платёж уже сторнирован")
	ErrPaymentMismatch  = New(ErrCodePaymentMismatch, "платёж не относится к этому счёту")
)
