package trash

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/identity"
	"github.com/docvault/docvault/pkg/handlers"
	"github.com/docvault/docvault/pkg/pagination"
	"github.com/docvault/docvault/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP endpoints for trash operations.
type Handler struct {
	mgr        Manager
	auditor    audit.System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a trash handler with the specified configuration.
func NewHandler(mgr Manager, auditor audit.System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		mgr:        mgr,
		auditor:    auditor,
		logger:     logger.With("handler", "trash"),
		pagination: pagination,
	}
}

// Routes returns the trash endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/trash",
		Description: "Trash lifecycle",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "/{id}", Handler: h.Move},
			{Method: "POST", Pattern: "/bulk", Handler: h.BulkMove},
			{Method: "POST", Pattern: "/{id}/restore", Handler: h.Restore},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Purge},
			{Method: "DELETE", Pattern: "", Handler: h.Empty},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthenticated)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.mgr.List(r.Context(), ownerID, page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolve(r)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	if err := h.mgr.MoveToTrash(r.Context(), id, ownerID); err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	h.record(r, audit.ActionTrash, &id, "moved to trash")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BulkMove(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthenticated)
		return
	}

	var cmd struct {
		DocumentIDs []uuid.UUID `json:"document_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if len(cmd.DocumentIDs) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("document_ids required"))
		return
	}

	result, err := h.mgr.BulkTrash(r.Context(), cmd.DocumentIDs, ownerID)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	h.record(r, audit.ActionTrash, nil, fmt.Sprintf("bulk trashed %d documents", result.Trashed))
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolve(r)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	if err := h.mgr.Restore(r.Context(), id, ownerID); err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	h.record(r, audit.ActionTrashRestore, &id, "restored from trash")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolve(r)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	if err := h.mgr.Purge(r.Context(), id, ownerID); err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	h.record(r, audit.ActionPurge, &id, "purged document")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Empty(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthenticated)
		return
	}

	purged, err := h.mgr.EmptyTrash(r.Context(), ownerID)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	h.record(r, audit.ActionPurge, nil, fmt.Sprintf("emptied trash (%d documents)", purged))
	handlers.RespondJSON(w, http.StatusOK, map[string]int{"purged": purged})
}

func (h *Handler) resolve(r *http.Request) (string, uuid.UUID, error) {
	ownerID, ok := identity.FromContext(r.Context())
	if !ok {
		return "", uuid.Nil, identity.ErrUnauthenticated
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return "", uuid.Nil, documents.ErrInvalidID
	}

	return ownerID, id, nil
}

func (h *Handler) record(r *http.Request, action audit.Action, id *uuid.UUID, details string) {
	actorID, _ := identity.FromContext(r.Context())
	ip, ua := audit.RequestMeta(r)

	if err := h.auditor.Record(r.Context(), audit.RecordCommand{
		ActorID:    actorID,
		DocumentID: id,
		Action:     action,
		Details:    details,
		IP:         ip,
		UserAgent:  ua,
	}); err != nil {
		h.logger.Warn("audit record failed", "action", action, "error", err)
	}
}

func mapStatus(err error) int {
	if errors.Is(err, ErrNotTrashed) {
		return http.StatusConflict
	}
	return documents.MapHTTPStatus(err)
}
