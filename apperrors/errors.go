package apperrors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error with an HTTP status code attached.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two application errors by code and message so that sentinel
// values survive wrapping via With.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// With returns a copy of a sentinel error carrying a cause. The sentinel
// itself is never mutated.
func (e *Error) With(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Engine error taxonomy
var (
	// ErrVersionConflict is returned when a cart mutation loses the
	// compare-and-swap against the stored version. Callers retry with the
	// latest version.
	ErrVersionConflict = New(http.StatusConflict, "cart version conflict", nil)

	// ErrEmptyCart is returned when checkout is attempted with no line items.
	ErrEmptyCart = New(http.StatusBadRequest, "cart is empty", nil)

	// ErrCheckoutInProgress is returned when an order is already awaiting
	// payment for the same cart fingerprint.
	ErrCheckoutInProgress = New(http.StatusConflict, "an order is already awaiting payment for this cart", nil)

	// ErrGateway is returned when the outbound payment session request fails.
	ErrGateway = New(http.StatusBadGateway, "payment gateway error", nil)

	// ErrInvalidSignature marks a webhook whose signing hash did not verify.
	// Never surfaced to the gateway; logged for reconciliation.
	ErrInvalidSignature = New(http.StatusBadRequest, "invalid gateway signature", nil)

	// ErrIllegalTransition marks a status change attempted from a
	// non-matching current state. Always a race or programming anomaly.
	ErrIllegalTransition = New(http.StatusConflict, "illegal status transition", nil)
)

// Common error types
var (
	ErrBadRequest     = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized   = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrNotFound       = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error", nil)
)

// Respond writes an error to the gin context using its attached status code,
// falling back to a 500 for unknown error values.
func Respond(c *gin.Context, err error) {
	if appErr, ok := err.(*Error); ok {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
