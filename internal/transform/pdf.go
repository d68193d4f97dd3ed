package transform

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// CompressLevel selects how aggressively a PDF is reduced.
type CompressLevel string

// Compression tiers. Low is the most aggressive reduction.
const (
	CompressLow    CompressLevel = "low"
	CompressMedium CompressLevel = "medium"
	CompressHigh   CompressLevel = "high"
)

// CompressParams controls PDF size reduction.
type CompressParams struct {
	Level CompressLevel `json:"level"`
}

// SplitParams selects page ranges for extraction.
type SplitParams struct {
	Ranges string `json:"ranges"`
}

func pdfConfig() *model.Configuration {
	return model.NewDefaultConfiguration()
}

func displayUnit() types.DisplayUnit {
	return types.POINTS
}

func requirePDF(mimeType string) error {
	if KindOf(mimeType) != KindPDF {
		return fmt.Errorf("%w: %s is not a pdf", ErrUnsupportedMediaType, mimeType)
	}
	return nil
}

// compressPDF rewrites the PDF through the optimizer and stamps the
// document metadata to record the pass.
func compressPDF(data []byte, mimeType string, params CompressParams) ([]byte, error) {
	if err := requirePDF(mimeType); err != nil {
		return nil, err
	}

	conf := pdfConfig()
	switch params.Level {
	case CompressLow:
		conf.Optimize = true
		conf.OptimizeResourceDicts = true
		conf.OptimizeDuplicateContentStreams = true
	case CompressMedium, "":
		conf.Optimize = true
		conf.OptimizeResourceDicts = true
	case CompressHigh:
		conf.Optimize = true
	default:
		return nil, validationErr("unknown compression level %q", params.Level)
	}

	var optimized bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &optimized, conf); err != nil {
		return nil, fmt.Errorf("%w: optimize: %v", ErrUnsupportedMediaType, err)
	}

	properties := map[string]string{
		"Producer":   "docvault",
		"Compressed": fmt.Sprintf("%s %s", params.Level, time.Now().UTC().Format(time.RFC3339)),
	}

	var out bytes.Buffer
	if err := api.AddProperties(bytes.NewReader(optimized.Bytes()), &out, properties, pdfConfig()); err != nil {
		return nil, fmt.Errorf("add properties: %w", err)
	}

	return out.Bytes(), nil
}

// splitPDF extracts each sub-range as a standalone PDF and packages the
// outputs into one zip archive.
func splitPDF(data []byte, mimeType string, params SplitParams) ([]byte, error) {
	if err := requirePDF(mimeType); err != nil {
		return nil, err
	}

	count, err := api.PageCount(bytes.NewReader(data), pdfConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: page count: %v", ErrUnsupportedMediaType, err)
	}

	ranges, err := ParsePageRanges(params.Ranges, count)
	if err != nil {
		return nil, err
	}

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)

	for i, r := range ranges {
		var part bytes.Buffer
		if err := api.Trim(bytes.NewReader(data), &part, r.Pages(), pdfConfig()); err != nil {
			return nil, fmt.Errorf("extract pages %d-%d: %w", r.From, r.To, err)
		}

		name := fmt.Sprintf("part-%02d-pages-%d-%d.pdf", i+1, r.From, r.To)
		if r.From == r.To {
			name = fmt.Sprintf("part-%02d-page-%d.pdf", i+1, r.From)
		}

		entry, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := entry.Write(part.Bytes()); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	return archive.Bytes(), nil
}

// mergePDFs concatenates the inputs in order into one PDF.
func mergePDFs(inputs [][]byte) ([]byte, error) {
	if len(inputs) < 2 {
		return nil, validationErr("merge requires at least two documents")
	}

	readers := make([]io.ReadSeeker, len(inputs))
	for i, in := range inputs {
		readers[i] = bytes.NewReader(in)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, pdfConfig()); err != nil {
		return nil, fmt.Errorf("%w: merge: %v", ErrUnsupportedMediaType, err)
	}

	return out.Bytes(), nil
}

// pdfPageCount exposes the page count for validation and tests.
func pdfPageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), pdfConfig())
}
