package documents_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/identity"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", documents.ErrNotFound, http.StatusNotFound},
		{"forbidden", documents.ErrForbidden, http.StatusForbidden},
		{"duplicate", documents.ErrDuplicate, http.StatusConflict},
		{"too large", documents.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"invalid file", documents.ErrInvalidFile, http.StatusBadRequest},
		{"invalid id", documents.ErrInvalidID, http.StatusBadRequest},
		{"unauthenticated", identity.ErrUnauthenticated, http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("lookup: %w", documents.ErrNotFound), http.StatusNotFound},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := documents.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
