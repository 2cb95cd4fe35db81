package errors

import (
	"errors"
	"net/http"
)

// Sentinel errors for the reservation state machine. Handlers map these to
// HTTP status codes; services compare with errors.Is.
var (
	ErrInvalidWindow = errors.New("end_time must be after start_time")
	ErrLotNotFound   = errors.New("lot not found")
	ErrLotFull       = errors.New("lot has no available spaces")
	ErrNotFound      = errors.New("reservation not found")
	ErrAlreadyFinal  = errors.New("reservation already in terminal state")
	ErrNotExtendable = errors.New("only active hourly reservations can be extended")
	ErrPayment       = errors.New("payment provider request failed")
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// StatusFor maps a service error to the status code handlers should return.
func StatusFor(err error) int {
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, ErrInvalidWindow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrLotNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrLotFull), errors.Is(err, ErrAlreadyFinal):
		return http.StatusConflict
	case errors.Is(err, ErrNotExtendable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrPayment):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
