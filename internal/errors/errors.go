package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorCode string

const (
	// Ledger connectivity and write errors (retriable)
	ErrCodeLedgerCallFailed ErrorCode = "LEDGER_CALL_FAILED"
	ErrCodeLedgerTimeout    ErrorCode = "LEDGER_TIMEOUT"
	ErrCodeContention       ErrorCode = "CONTENTION"

	// Resource errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Validation errors (not retriable)
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// Saga outcomes
	ErrCodeIdentifierExtractionFailed ErrorCode = "IDENTIFIER_EXTRACTION_FAILED"
	ErrCodePartialSagaCompletion      ErrorCode = "PARTIAL_SAGA_COMPLETION"
	ErrCodeCancelled                  ErrorCode = "CANCELLED"

	// Authorization
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"

	// System errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeConfigError   ErrorCode = "CONFIG_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	Details    string
	Err        error
	HTTPStatus int
	Retriable  bool
	Context    map[string]interface{}
	// Payload is the raw ledger body behind the error. It is logged, never
	// returned to API clients.
	Payload string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	appErr := &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Context: make(map[string]interface{}),
	}
	appErr.setDefaults()
	return appErr
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithPayload(payload string) *AppError {
	e.Payload = payload
	return e
}

func (e *AppError) setDefaults() {
	switch e.Code {
	case ErrCodeLedgerCallFailed:
		e.HTTPStatus = http.StatusBadGateway
		e.Retriable = true

	case ErrCodeLedgerTimeout:
		e.HTTPStatus = http.StatusGatewayTimeout
		e.Retriable = true

	case ErrCodeContention:
		e.HTTPStatus = http.StatusConflict
		e.Retriable = true

	case ErrCodeNotFound:
		e.HTTPStatus = http.StatusNotFound
		e.Retriable = false

	case ErrCodeValidationFailed, ErrCodeInvalidInput:
		e.HTTPStatus = http.StatusBadRequest
		e.Retriable = false

	case ErrCodeIdentifierExtractionFailed:
		e.HTTPStatus = http.StatusBadGateway
		e.Retriable = false

	case ErrCodePartialSagaCompletion:
		e.HTTPStatus = http.StatusMultiStatus
		e.Retriable = false

	case ErrCodeCancelled:
		e.HTTPStatus = http.StatusRequestTimeout
		e.Retriable = true

	case ErrCodePermissionDenied:
		e.HTTPStatus = http.StatusForbidden
		e.Retriable = false

	case ErrCodeRateLimited:
		e.HTTPStatus = http.StatusTooManyRequests
		e.Retriable = true

	default:
		e.HTTPStatus = http.StatusInternalServerError
		e.Retriable = false
	}
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// contextClass marks every error raised by a ledger call, whatever its
// refined code.
const contextClass = "class"

// IsLedgerCallFailure reports whether err is a ledger write that failed,
// either in transport or because the ledger rejected it. Rejections keep a
// refined Code (NOT_FOUND, CONTENTION, ...) and carry
// Context["class"] = LEDGER_CALL_FAILED.
func IsLedgerCallFailure(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == ErrCodeLedgerCallFailed || appErr.Context[contextClass] == string(ErrCodeLedgerCallFailed)
}

// NewLedgerCallError wraps a transport failure on a ledger write.
func NewLedgerCallError(operation string, err error) *AppError {
	return NewAppError(
		ErrCodeLedgerCallFailed,
		fmt.Sprintf("Ledger call failed during %s", operation),
		err,
	).WithContext("operation", operation).
		WithContext(contextClass, string(ErrCodeLedgerCallFailed)).
		WithDetails("The ledger could not be reached. Please try again later.")
}

// ParseLedgerError classifies a non-2xx response from the ledger. The raw
// body is kept in Payload.
func ParseLedgerError(status int, body []byte, operation string) *AppError {
	payload := string(body)
	errLower := strings.ToLower(payload)
	cause := fmt.Errorf("ledger returned %d", status)

	var appErr *AppError
	switch {
	case strings.Contains(errLower, "contract_not_found") ||
		strings.Contains(errLower, "contract not found") ||
		strings.Contains(errLower, "consumed"):
		appErr = NewAppError(
			ErrCodeNotFound,
			fmt.Sprintf("Contract not active during %s", operation),
			cause,
		).WithDetails("The referenced contract was archived or never existed.")

	case strings.Contains(errLower, "locked") ||
		strings.Contains(errLower, "contention"):
		appErr = NewAppError(
			ErrCodeContention,
			fmt.Sprintf("Contract contention during %s", operation),
			cause,
		).WithDetails("Another command was using the same contract. Please retry.")

	case strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "deadline exceeded"):
		appErr = NewAppError(
			ErrCodeLedgerTimeout,
			fmt.Sprintf("Ledger timed out during %s", operation),
			cause,
		)

	case status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.Contains(errLower, "permission_denied") ||
		strings.Contains(errLower, "authorization"):
		appErr = NewAppError(
			ErrCodePermissionDenied,
			fmt.Sprintf("Ledger rejected the acting party during %s", operation),
			cause,
		).WithDetails("The acting party is not authorized for this choice.")

	default:
		appErr = NewAppError(
			ErrCodeLedgerCallFailed,
			fmt.Sprintf("Ledger rejected %s", operation),
			cause,
		)
	}

	return appErr.
		WithContext("operation", operation).
		WithContext("status", status).
		WithContext(contextClass, string(ErrCodeLedgerCallFailed)).
		WithPayload(payload)
}

func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	msg = sanitizeFilePaths(msg)

	msg = sanitizeInternalAddresses(msg)

	return msg
}

func sanitizeFilePaths(msg string) string {
	patterns := []string{
		"/home/", "/var/", "/usr/", "/opt/", "/tmp/",
		"C:\\", "D:\\", "/Users/",
	}

	for _, pattern := range patterns {
		if idx := strings.Index(msg, pattern); idx != -1 {
			end := idx
			for end < len(msg) && msg[end] != ' ' && msg[end] != ':' && msg[end] != '\n' {
				end++
			}
			msg = msg[:idx] + "[path]" + msg[end:]
		}
	}

	return msg
}

func sanitizeInternalAddresses(msg string) string {
	msg = strings.ReplaceAll(msg, "127.0.0.1", "[ledger-host]")
	msg = strings.ReplaceAll(msg, "localhost", "[ledger-host]")
	return msg
}

func NewNotFoundError(resource string, id string) *AppError {
	return NewAppError(
		ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource),
		errors.New("resource not found"),
	).WithContext("resource", resource).WithContext("id", id)
}

func NewValidationError(message string) *AppError {
	return NewAppError(
		ErrCodeValidationFailed,
		message,
		errors.New("validation failed"),
	)
}

func NewExtractionError(operation string, payload []byte) *AppError {
	return NewAppError(
		ErrCodeIdentifierExtractionFailed,
		fmt.Sprintf("No contract identifier in %s response", operation),
		errors.New("identifier extraction failed"),
	).WithContext("operation", operation).WithPayload(string(payload))
}

// NewConfigError reports an invalid or unreadable configuration.
func NewConfigError(message string, err error) *AppError {
	return NewAppError(ErrCodeConfigError, message, err)
}

func NewCancelledError(step string, err error) *AppError {
	return NewAppError(
		ErrCodeCancelled,
		fmt.Sprintf("Request abandoned before %s", step),
		err,
	).WithContext("step", step)
}
