package shares

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/identity"
	"github.com/docvault/docvault/internal/mailer"
	"github.com/docvault/docvault/pkg/handlers"
	"github.com/docvault/docvault/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP endpoints for owner-side share management.
type Handler struct {
	mgr     Manager
	auditor audit.System
	logger  *slog.Logger
}

// NewHandler creates a share handler with the specified configuration.
func NewHandler(mgr Manager, auditor audit.System, logger *slog.Logger) *Handler {
	return &Handler{
		mgr:     mgr,
		auditor: auditor,
		logger:  logger.With("handler", "shares"),
	}
}

// Routes returns the authenticated share management route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents/{id}/share",
		Description: "Share link management",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Generate},
			{Method: "DELETE", Pattern: "", Handler: h.Revoke},
			{Method: "POST", Pattern: "/email", Handler: h.SendByEmail},
		},
	}
}

// PublicRoutes returns the unauthenticated share access route group. It is
// registered outside the identity middleware.
func (h *Handler) PublicRoutes() routes.Group {
	return routes.Group{
		Prefix:      "/shared/{token}",
		Description: "Public share access",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Access},
			{Method: "GET", Pattern: "/download", Handler: h.Download},
		},
	}
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolve(r)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	var cmd struct {
		TTL string `json:"ttl"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}

	var ttl time.Duration
	if cmd.TTL != "" {
		ttl, err = time.ParseDuration(cmd.TTL)
		if err != nil || ttl < 0 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid ttl"))
			return
		}
	}

	link, err := h.mgr.Generate(r.Context(), id, ownerID, ttl)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	h.record(r, audit.ActionShareCreate, &id, "created share link")
	handlers.RespondJSON(w, http.StatusCreated, link)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolve(r)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	if err := h.mgr.Revoke(r.Context(), id, ownerID); err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	h.record(r, audit.ActionShareRevoke, &id, "revoked share link")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SendByEmail(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolve(r)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	var cmd struct {
		Recipient string `json:"recipient"`
	}
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if _, err := mail.ParseAddress(cmd.Recipient); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid recipient: %w", err))
		return
	}

	link, err := h.mgr.SendByEmail(r.Context(), id, ownerID, cmd.Recipient)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	h.record(r, audit.ActionShareEmail, &id, fmt.Sprintf("emailed share link to %s", cmd.Recipient))
	handlers.RespondJSON(w, http.StatusOK, link)
}

func (h *Handler) Access(w http.ResponseWriter, r *http.Request) {
	doc, err := h.mgr.Access(r.Context(), r.PathValue("token"))
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	h.record(r, audit.ActionShareAccess, nil, fmt.Sprintf("accessed shared %q", doc.Filename))
	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	doc, data, err := h.mgr.Download(r.Context(), r.PathValue("token"))
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	h.record(r, audit.ActionShareAccess, nil, fmt.Sprintf("downloaded shared %q", doc.Filename))
	handlers.RespondAttachment(w, doc.Filename, doc.MimeType, data)
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
	switch {
	case errors.Is(err, ErrNotShared), errors.Is(err, ErrTrashed):
		return http.StatusNotFound
	case errors.Is(err, ErrExpired):
		return http.StatusGone
	case errors.Is(err, ErrTTLTooLong):
		return http.StatusBadRequest
	case errors.Is(err, mailer.ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		return documents.MapHTTPStatus(err)
	}
}
