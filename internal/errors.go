package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInterval  ErrorCode = "INVALID_INTERVAL"
	ErrCodeInvalidSlotSize  ErrorCode = "INVALID_SLOT_SIZE"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidCard      ErrorCode = "INVALID_CARD"

	ErrCodeDoctorNotFound      ErrorCode = "DOCTOR_NOT_FOUND"
	ErrCodePatientNotFound     ErrorCode = "PATIENT_NOT_FOUND"
	ErrCodeAppointmentNotFound ErrorCode = "APPOINTMENT_NOT_FOUND"
	ErrCodePaymentNotFound     ErrorCode = "PAYMENT_NOT_FOUND"
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"

	ErrCodeSlotTaken         ErrorCode = "SLOT_ALREADY_BOOKED"
	ErrCodeInvalidTransition ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeNotPending        ErrorCode = "APPOINTMENT_NOT_PENDING"
	ErrCodeAccessDenied      ErrorCode = "ACCESS_DENIED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeOtpMismatch    ErrorCode = "OTP_REF_MISMATCH"
	ErrCodeOtpNotFound    ErrorCode = "OTP_NOT_FOUND"
	ErrCodeOtpAlreadyUsed ErrorCode = "OTP_ALREADY_USED"
	ErrCodeOtpExpired     ErrorCode = "OTP_EXPIRED"
	ErrCodeOtpInvalid     ErrorCode = "OTP_INVALID"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Messages() string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// OtpReason distinguishes why an OTP verification failed so clients can
// choose between "resend code", "re-enter code" and "code expired" flows.
type OtpReason string

const (
	OtpNotFound    OtpReason = "NOT_FOUND"
	OtpAlreadyUsed OtpReason = "ALREADY_USED"
	OtpExpired     OtpReason = "EXPIRED"
	OtpInvalid     OtpReason = "INVALID"
)

func NewOtpError(reason OtpReason) *AppError {
	code := ErrCodeOtpInvalid
	switch reason {
	case OtpNotFound:
		code = ErrCodeOtpNotFound
	case OtpAlreadyUsed:
		code = ErrCodeOtpAlreadyUsed
	case OtpExpired:
		code = ErrCodeOtpExpired
	}
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    fmt.Sprintf("OTP %s", reason),
		StatusCode: http.StatusBadRequest,
	}
}

var (
	ErrDoctorNotFound      = NewNotFoundError("Doctor not found", ErrCodeDoctorNotFound)
	ErrPatientNotFound     = NewNotFoundError("Patient not found", ErrCodePatientNotFound)
	ErrAppointmentNotFound = NewNotFoundError("Appointment not found", ErrCodeAppointmentNotFound)
	ErrPaymentNotFound     = NewNotFoundError("Payment not found", ErrCodePaymentNotFound)
	ErrUserNotFound        = NewNotFoundError("User not found", ErrCodeUserNotFound)

	ErrSlotTaken    = NewConflictError("Selected time slot is already booked", ErrCodeSlotTaken)
	ErrNotPending   = NewConflictError("Cannot modify a non-pending appointment", ErrCodeNotPending)
	ErrAccessDenied = NewForbiddenError("Forbidden", ErrCodeAccessDenied)

	ErrOtpMismatch = NewValidationError("Mismatched OTP reference", ErrCodeOtpMismatch)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

// NewInvalidTransitionError reports a disallowed appointment status change.
func NewInvalidTransitionError(from, to string) *AppError {
	return NewConflictError(
		fmt.Sprintf("Invalid status transition %s -> %s", from, to),
		ErrCodeInvalidTransition,
	)
}

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
