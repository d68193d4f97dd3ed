package transform

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/docvault/docvault/internal/documents"
)

var (
	// ErrUnsupportedMediaType indicates an operation was applied to
	// content it cannot process.
	ErrUnsupportedMediaType = errors.New("unsupported media type for operation")

	// ErrInvalidRange indicates a malformed or out-of-bounds page or
	// crop range.
	ErrInvalidRange = errors.New("invalid range")

	// ErrProcessingTimeout indicates a transformation exceeded its
	// time bound.
	ErrProcessingTimeout = errors.New("processing timed out")

	// ErrInputTooLarge indicates the source content exceeds the
	// configured transformation input limit.
	ErrInputTooLarge = errors.New("input exceeds transformation size limit")

	// ErrValidation indicates malformed operation parameters.
	ErrValidation = errors.New("invalid parameters")

	// ErrStorage indicates an object store read failed.
	ErrStorage = errors.New("storage error")
)

// validationErr wraps a parameter problem so it maps to ErrValidation.
func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// rangeErr wraps a range problem so it maps to ErrInvalidRange.
func rangeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRange, fmt.Sprintf(format, args...))
}

// MapHTTPStatus maps transformation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrProcessingTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrStorage):
		return http.StatusBadGateway
	default:
		return documents.MapHTTPStatus(err)
	}
}
