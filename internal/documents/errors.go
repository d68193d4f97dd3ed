package documents

import (
	"errors"
	"net/http"

	"github.com/docvault/docvault/internal/identity"
)

// Domain errors for document operations.
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicate    = errors.New("document storage key already exists")
	ErrForbidden    = errors.New("document not owned by requester")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrInvalidFile  = errors.New("invalid file")
	ErrInvalidID    = errors.New("invalid document id")
)

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, identity.ErrUnauthenticated) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrInvalidFile) || errors.Is(err, ErrInvalidID) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
