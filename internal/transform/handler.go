package transform

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/identity"
	"github.com/docvault/docvault/internal/versions"
	"github.com/docvault/docvault/pkg/handlers"
	"github.com/docvault/docvault/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides one HTTP endpoint per transformation operation. Results
// stream back as attachments unless the request asks to save the output as
// a new document version.
type Handler struct {
	pipeline Pipeline
	versions versions.Manager
	auditor  audit.System
	logger   *slog.Logger
}

// NewHandler creates a transformation handler with the specified
// configuration.
func NewHandler(pipeline Pipeline, versions versions.Manager, auditor audit.System, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		versions: versions,
		auditor:  auditor,
		logger:   logger.With("handler", "transform"),
	}
}

// Routes returns the transformation route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents/{id}/transform",
		Description: "Content transformations",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/resize", Handler: h.Resize},
			{Method: "POST", Pattern: "/compress", Handler: h.Compress},
			{Method: "POST", Pattern: "/convert", Handler: h.Convert},
			{Method: "POST", Pattern: "/crop", Handler: h.Crop},
			{Method: "POST", Pattern: "/watermark", Handler: h.Watermark},
			{Method: "POST", Pattern: "/split", Handler: h.Split},
			{Method: "POST", Pattern: "/sign", Handler: h.Sign},
		},
	}
}

// MergeRoutes returns the cross-document merge route group.
func (h *Handler) MergeRoutes() routes.Group {
	return routes.Group{
		Prefix:      "/transform",
		Description: "Cross-document transformations",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/merge", Handler: h.Merge},
		},
	}
}

// saveRequest is the common wrapper every operation body embeds.
type saveRequest struct {
	SaveAsVersion bool `json:"save_as_version,omitempty"`
}

func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		saveRequest
		ResizeParams
	}
	h.run(w, r, "resize", &body, func(id uuid.UUID, ownerID string) (*Result, error) {
		return h.pipeline.Resize(r.Context(), id, ownerID, body.ResizeParams)
	}, func() bool { return body.SaveAsVersion })
}

func (h *Handler) Compress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		saveRequest
		CompressParams
	}
	h.run(w, r, "compress", &body, func(id uuid.UUID, ownerID string) (*Result, error) {
		return h.pipeline.Compress(r.Context(), id, ownerID, body.CompressParams)
	}, func() bool { return body.SaveAsVersion })
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		saveRequest
		ConvertParams
	}
	h.run(w, r, "convert", &body, func(id uuid.UUID, ownerID string) (*Result, error) {
		return h.pipeline.Convert(r.Context(), id, ownerID, body.ConvertParams)
	}, func() bool { return body.SaveAsVersion })
}

func (h *Handler) Crop(w http.ResponseWriter, r *http.Request) {
	var body struct {
		saveRequest
		CropParams
	}
	h.run(w, r, "crop", &body, func(id uuid.UUID, ownerID string) (*Result, error) {
		return h.pipeline.Crop(r.Context(), id, ownerID, body.CropParams)
	}, func() bool { return body.SaveAsVersion })
}

func (h *Handler) Watermark(w http.ResponseWriter, r *http.Request) {
	var body struct {
		saveRequest
		WatermarkParams
	}
	h.run(w, r, "watermark", &body, func(id uuid.UUID, ownerID string) (*Result, error) {
		return h.pipeline.Watermark(r.Context(), id, ownerID, body.WatermarkParams)
	}, func() bool { return body.SaveAsVersion })
}

func (h *Handler) Split(w http.ResponseWriter, r *http.Request) {
	var body struct {
		saveRequest
		SplitParams
	}
	h.run(w, r, "split", &body, func(id uuid.UUID, ownerID string) (*Result, error) {
		return h.pipeline.Split(r.Context(), id, ownerID, body.SplitParams)
	}, func() bool { return body.SaveAsVersion })
}

func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		saveRequest
		SignParams
	}
	h.run(w, r, "sign", &body, func(id uuid.UUID, ownerID string) (*Result, error) {
		return h.pipeline.Sign(r.Context(), id, ownerID, body.SignParams)
	}, func() bool { return body.SaveAsVersion })
}

func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthenticated)
		return
	}

	var body struct {
		saveRequest
		DocumentIDs []uuid.UUID `json:"document_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.pipeline.Merge(r.Context(), body.DocumentIDs, ownerID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.record(r, nil, fmt.Sprintf("merged %d documents", len(body.DocumentIDs)))

	// Saving a merge appends the output to the first input document.
	if body.SaveAsVersion {
		h.respondSaved(w, r, body.DocumentIDs[0], ownerID, result)
		return
	}

	handlers.RespondAttachment(w, result.Filename, result.MimeType, result.Data)
}

// run is the shared skeleton for single-document operations.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, op string, body any, exec func(uuid.UUID, string) (*Result, error), save func() bool) {
	ownerID, ok := identity.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, identity.ErrUnauthenticated)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := exec(id, ownerID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	h.record(r, &id, fmt.Sprintf("applied %s", op))

	if save() {
		h.respondSaved(w, r, id, ownerID, result)
		return
	}

	handlers.RespondAttachment(w, result.Filename, result.MimeType, result.Data)
}

func (h *Handler) respondSaved(w http.ResponseWriter, r *http.Request, id uuid.UUID, ownerID string, result *Result) {
	version, err := h.versions.AddVersion(r.Context(), id, ownerID, versions.AddCommand{
		Filename: result.Filename,
		MimeType: result.MimeType,
		Data:     result.Data,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, version)
}

func (h *Handler) record(r *http.Request, id *uuid.UUID, details string) {
	actorID, _ := identity.FromContext(r.Context())
	ip, ua := audit.RequestMeta(r)

	if err := h.auditor.Record(r.Context(), audit.RecordCommand{
		ActorID:    actorID,
		DocumentID: id,
		Action:     audit.ActionTransform,
		Details:    details,
		IP:         ip,
		UserAgent:  ua,
	}); err != nil {
		h.logger.Warn("audit record failed", "error", err)
	}
}
