package versions

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/identity"
	"github.com/docvault/docvault/pkg/handlers"
	"github.com/docvault/docvault/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP endpoints for version history operations.
type Handler struct {
	mgr           Manager
	auditor       audit.System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a version handler with the specified configuration.
func NewHandler(mgr Manager, auditor audit.System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		mgr:           mgr,
		auditor:       auditor,
		logger:        logger.With("handler", "versions"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the version endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents/{id}/versions",
		Description: "Document version history",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Add},
			{Method: "GET", Pattern: "/{version}/download", Handler: h.Download},
			{Method: "POST", Pattern: "/{version}/restore", Handler: h.Restore},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolve(r)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	history, err := h.mgr.ListVersions(r.Context(), id, ownerID)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, history)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolve(r)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, documents.ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, documents.ErrInvalidFile)
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, documents.ErrFileTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, documents.ErrInvalidFile)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	version, err := h.mgr.AddVersion(r.Context(), id, ownerID, AddCommand{
		Filename: header.Filename,
		MimeType: mimeType,
		Data:     data,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	h.record(r, audit.ActionVersionAdd, id,
		fmt.Sprintf("added version %d (%d bytes)", version.VersionNumber, version.SizeBytes))
	handlers.RespondJSON(w, http.StatusCreated, version)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolve(r)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	number, err := strconv.Atoi(r.PathValue("version"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid version number"))
		return
	}

	version, data, err := h.mgr.DownloadVersion(r.Context(), id, ownerID, number)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	h.record(r, audit.ActionDownload, id, fmt.Sprintf("downloaded version %d", number))
	handlers.RespondAttachment(w, fmt.Sprintf("v%d", version.VersionNumber), version.MimeType, data)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolve(r)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	number, err := strconv.Atoi(r.PathValue("version"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid version number"))
		return
	}

	version, err := h.mgr.RestoreVersion(r.Context(), id, ownerID, number)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	h.record(r, audit.ActionVersionRestore, id,
		fmt.Sprintf("restored version %d as %d", number, version.VersionNumber))
	handlers.RespondJSON(w, http.StatusCreated, version)
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

func (h *Handler) record(r *http.Request, action audit.Action, id uuid.UUID, details string) {
	actorID, _ := identity.FromContext(r.Context())
	ip, ua := audit.RequestMeta(r)

	if err := h.auditor.Record(r.Context(), audit.RecordCommand{
		ActorID:    actorID,
		DocumentID: &id,
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
	case errors.Is(err, ErrVersionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCurrentVersion):
		return http.StatusConflict
	default:
		return documents.MapHTTPStatus(err)
	}
}
