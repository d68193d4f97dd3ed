package documents

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/identity"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/pkg/handlers"
	"github.com/docvault/docvault/pkg/pagination"
	"github.com/docvault/docvault/pkg/routes"
	"github.com/google/uuid"
)

// Extracted text beyond this length is truncated; it exists for search,
// not as a second copy of the content.
const maxTextContent = 64 * 1024

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	store         storage.System
	auditor       audit.System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a document handler with the specified configuration.
func NewHandler(sys System, store storage.System, auditor audit.System, logger *slog.Logger, pagination pagination.Config, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		store:         store,
		auditor:       auditor,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the document endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Description: "Document upload and management",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/download", Handler: h.Download},
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "PUT", Pattern: "/{id}/rename", Handler: h.Rename},
			{Method: "PUT", Pattern: "/{id}/flags", Handler: h.SetFlags},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthenticated)
		return
	}

	filter, err := FilterFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), ownerID, filter, page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthenticated)
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("query parameter q required"))
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.Search(r.Context(), ownerID, q, page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolveOwned(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	doc, err := h.sys.FindOwned(r.Context(), id, ownerID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolveOwned(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	doc, err := h.sys.FindOwned(r.Context(), id, ownerID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	data, err := h.store.Retrieve(r.Context(), doc.StorageKey)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadGateway, err)
		return
	}

	h.record(r, audit.ActionDownload, &doc.ID, fmt.Sprintf("downloaded %q", doc.Filename))
	handlers.RespondAttachment(w, doc.Filename, doc.MimeType, data)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthenticated)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	var expiresAt *time.Time
	if v := r.FormValue("expires_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid expires_at: %w", err))
			return
		}
		expiresAt = &t
	}

	mimeType := detectContentType(header.Header.Get("Content-Type"), data)

	cmd := CreateCommand{
		OwnerID:     ownerID,
		Filename:    header.Filename,
		MimeType:    mimeType,
		SizeBytes:   header.Size,
		TextContent: extractText(mimeType, data),
		ExpiresAt:   expiresAt,
		Data:        data,
	}

	doc, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.record(r, audit.ActionUpload, &doc.ID, fmt.Sprintf("uploaded %q (%d bytes)", doc.Filename, doc.SizeBytes))
	handlers.RespondJSON(w, http.StatusCreated, doc)
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolveOwned(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	var cmd struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if cmd.Filename == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("filename required"))
		return
	}

	doc, err := h.sys.Rename(r.Context(), id, ownerID, cmd.Filename)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.record(r, audit.ActionRename, &doc.ID, fmt.Sprintf("renamed to %q", doc.Filename))
	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) SetFlags(w http.ResponseWriter, r *http.Request) {
	ownerID, id, err := h.resolveOwned(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	var cmd FlagsCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.SetFlags(r.Context(), id, ownerID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.record(r, audit.ActionSetFlags, &doc.ID, "updated flags")
	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) resolveOwned(r *http.Request) (string, uuid.UUID, error) {
	ownerID, ok := identity.FromContext(r.Context())
	if !ok {
		return "", uuid.Nil, identity.ErrUnauthenticated
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return "", uuid.Nil, ErrInvalidID
	}

	return ownerID, id, nil
}

func (h *Handler) record(r *http.Request, action audit.Action, documentID *uuid.UUID, details string) {
	actorID, _ := identity.FromContext(r.Context())
	ip, ua := audit.RequestMeta(r)

	if err := h.auditor.Record(r.Context(), audit.RecordCommand{
		ActorID:    actorID,
		DocumentID: documentID,
		Action:     action,
		Details:    details,
		IP:         ip,
		UserAgent:  ua,
	}); err != nil {
		h.logger.Warn("audit record failed", "action", action, "error", err)
	}
}

func detectContentType(header string, data []byte) string {
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

// extractText captures searchable text for text-like uploads.
func extractText(mimeType string, data []byte) *string {
	base := mimeType
	if idx := strings.Index(base, ";"); idx != -1 {
		base = base[:idx]
	}

	switch {
	case strings.HasPrefix(base, "text/"),
		base == "application/json",
		base == "application/xml":
	default:
		return nil
	}

	if !utf8.Valid(data) {
		return nil
	}

	text := string(data)
	if len(text) > maxTextContent {
		text = text[:maxTextContent]
	}

	return &text
}
