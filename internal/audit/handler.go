package audit

import (
	"log/slog"
	"net/http"

	"github.com/docvault/docvault/internal/identity"
	"github.com/docvault/docvault/pkg/handlers"
	"github.com/docvault/docvault/pkg/pagination"
	"github.com/docvault/docvault/pkg/routes"
)

// Handler provides HTTP endpoints for reading the audit log.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates an audit handler with the specified configuration.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "audit"),
		pagination: pagination,
	}
}

// Routes returns the audit endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/audit",
		Description: "Audit trail of sensitive actions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthenticated)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), actorID, page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
