// Package transform implements the stateless transformation pipeline:
// pure functions from content bytes and parameters to derived bytes.
// Nothing here writes document state; saving a result as a new version
// is the caller's explicit choice.
package transform

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/internal/storage"
	"github.com/google/uuid"
)

// Result is a derived artifact. It exists only in memory until the caller
// chooses to stream or persist it.
type Result struct {
	Filename string
	MimeType string
	Data     []byte
}

// Pipeline defines the transformation operations. Every operation resolves
// the source document, verifies ownership, and produces new bytes without
// touching stored state.
type Pipeline interface {
	Resize(ctx context.Context, id uuid.UUID, ownerID string, params ResizeParams) (*Result, error)
	Compress(ctx context.Context, id uuid.UUID, ownerID string, params CompressParams) (*Result, error)
	Convert(ctx context.Context, id uuid.UUID, ownerID string, params ConvertParams) (*Result, error)
	Crop(ctx context.Context, id uuid.UUID, ownerID string, params CropParams) (*Result, error)
	Watermark(ctx context.Context, id uuid.UUID, ownerID string, params WatermarkParams) (*Result, error)
	Split(ctx context.Context, id uuid.UUID, ownerID string, params SplitParams) (*Result, error)
	Merge(ctx context.Context, ids []uuid.UUID, ownerID string) (*Result, error)
	Sign(ctx context.Context, id uuid.UUID, ownerID string, params SignParams) (*Result, error)
}

type pipeline struct {
	docs    documents.System
	store   storage.System
	timeout time.Duration
	maxSize int64
	logger  *slog.Logger
}

// NewPipeline creates the transformation pipeline with the specified
// configuration.
func NewPipeline(docs documents.System, store storage.System, cfg *config.TransformConfig, logger *slog.Logger) Pipeline {
	return &pipeline{
		docs:    docs,
		store:   store,
		timeout: cfg.TimeoutDuration(),
		maxSize: cfg.MaxInputSizeBytes(),
		logger:  logger.With("system", "transform"),
	}
}

func (p *pipeline) Resize(ctx context.Context, id uuid.UUID, ownerID string, params ResizeParams) (*Result, error) {
	return p.single(ctx, id, ownerID, "resize", KindImage, func(doc *documents.Document, data []byte) (*Result, error) {
		out, err := resizeImage(data, doc.MimeType, params)
		if err != nil {
			return nil, err
		}
		return derived(doc.Filename, "resized", doc.MimeType, out), nil
	})
}

func (p *pipeline) Compress(ctx context.Context, id uuid.UUID, ownerID string, params CompressParams) (*Result, error) {
	return p.single(ctx, id, ownerID, "compress", KindPDF, func(doc *documents.Document, data []byte) (*Result, error) {
		out, err := compressPDF(data, doc.MimeType, params)
		if err != nil {
			return nil, err
		}
		return derived(doc.Filename, "compressed", doc.MimeType, out), nil
	})
}

func (p *pipeline) Convert(ctx context.Context, id uuid.UUID, ownerID string, params ConvertParams) (*Result, error) {
	return p.single(ctx, id, ownerID, "convert", KindImage, func(doc *documents.Document, data []byte) (*Result, error) {
		out, targetMime, err := convertImage(data, doc.MimeType, params)
		if err != nil {
			return nil, err
		}
		name := replaceExt(doc.Filename, "."+params.TargetFormat)
		return &Result{Filename: name, MimeType: targetMime, Data: out}, nil
	})
}

func (p *pipeline) Crop(ctx context.Context, id uuid.UUID, ownerID string, params CropParams) (*Result, error) {
	return p.single(ctx, id, ownerID, "crop", KindImage, func(doc *documents.Document, data []byte) (*Result, error) {
		out, err := cropImage(data, doc.MimeType, params)
		if err != nil {
			return nil, err
		}
		return derived(doc.Filename, "cropped", doc.MimeType, out), nil
	})
}

func (p *pipeline) Watermark(ctx context.Context, id uuid.UUID, ownerID string, params WatermarkParams) (*Result, error) {
	return p.single(ctx, id, ownerID, "watermark", KindOther, func(doc *documents.Document, data []byte) (*Result, error) {
		out, err := watermarkContent(data, doc.MimeType, params)
		if err != nil {
			return nil, err
		}
		return derived(doc.Filename, "watermarked", doc.MimeType, out), nil
	})
}

func (p *pipeline) Split(ctx context.Context, id uuid.UUID, ownerID string, params SplitParams) (*Result, error) {
	return p.single(ctx, id, ownerID, "split", KindPDF, func(doc *documents.Document, data []byte) (*Result, error) {
		out, err := splitPDF(data, doc.MimeType, params)
		if err != nil {
			return nil, err
		}
		name := replaceExt(doc.Filename, "-split.zip")
		return &Result{Filename: name, MimeType: "application/zip", Data: out}, nil
	})
}

func (p *pipeline) Merge(ctx context.Context, ids []uuid.UUID, ownerID string) (*Result, error) {
	if len(ids) < 2 {
		return nil, validationErr("merge requires at least two document ids")
	}

	inputs := make([][]byte, 0, len(ids))
	var first *documents.Document

	for _, id := range ids {
		doc, data, err := p.fetch(ctx, id, ownerID)
		if err != nil {
			return nil, err
		}
		if err := requirePDF(doc.MimeType); err != nil {
			return nil, err
		}
		if first == nil {
			first = doc
		}
		inputs = append(inputs, data)
	}

	result, err := p.execute(ctx, "merge", func() (*Result, error) {
		out, err := mergePDFs(inputs)
		if err != nil {
			return nil, err
		}
		return derived(first.Filename, "merged", "application/pdf", out), nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("transformation completed", "op", "merge",
		"inputs", len(inputs), "output_bytes", len(result.Data))
	return result, nil
}

func (p *pipeline) Sign(ctx context.Context, id uuid.UUID, ownerID string, params SignParams) (*Result, error) {
	return p.single(ctx, id, ownerID, "sign", KindOther, func(doc *documents.Document, data []byte) (*Result, error) {
		out, err := signContent(data, doc.MimeType, params)
		if err != nil {
			return nil, err
		}
		return derived(doc.Filename, "signed", doc.MimeType, out), nil
	})
}

// single runs a one-document operation: fetch, kind gate, bounded compute.
// A requiredKind of KindOther skips the gate for operations that dispatch
// on kind themselves.
func (p *pipeline) single(ctx context.Context, id uuid.UUID, ownerID, op string, requiredKind ContentKind, fn func(*documents.Document, []byte) (*Result, error)) (*Result, error) {
	doc, data, err := p.fetch(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if requiredKind != KindOther && KindOf(doc.MimeType) != requiredKind {
		return nil, fmt.Errorf("%w: %s requires %s content, got %s",
			ErrUnsupportedMediaType, op, requiredKind, doc.MimeType)
	}

	result, err := p.execute(ctx, op, func() (*Result, error) {
		return fn(doc, data)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("transformation completed", "op", op, "document_id", id,
		"input_bytes", len(data), "output_bytes", len(result.Data))
	return result, nil
}

// fetch resolves the document and streams its current bytes. Transient
// storage reads get one retry before failing with ErrStorage.
func (p *pipeline) fetch(ctx context.Context, id uuid.UUID, ownerID string) (*documents.Document, []byte, error) {
	doc, err := p.docs.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, nil, err
	}

	if p.maxSize > 0 && doc.SizeBytes > p.maxSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrInputTooLarge, doc.SizeBytes)
	}

	data, err := p.store.Retrieve(ctx, doc.StorageKey)
	if err != nil && err != storage.ErrNotFound && ctx.Err() == nil {
		p.logger.Warn("storage read retry", "document_id", id, "error", err)
		data, err = p.store.Retrieve(ctx, doc.StorageKey)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return doc, data, nil
}

// execute bounds CPU-bound work. The worker goroutine cannot be cancelled
// mid-encode; on timeout its result is discarded when it finishes.
func (p *pipeline) execute(ctx context.Context, op string, fn func() (*Result, error)) (*Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	type outcome struct {
		result *Result
		err    error
	}

	done := make(chan outcome, 1)
	go func() {
		result, err := fn()
		done <- outcome{result, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		p.logger.Warn("transformation timed out", "op", op)
		return nil, ErrProcessingTimeout
	}
}

func derived(filename, suffix, mimeType string, data []byte) *Result {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return &Result{
		Filename: fmt.Sprintf("%s-%s%s", base, suffix, ext),
		MimeType: mimeType,
		Data:     data,
	}
}

func replaceExt(filename, newExt string) string {
	return strings.TrimSuffix(filename, path.Ext(filename)) + newExt
}
