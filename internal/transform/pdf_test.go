package transform

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// testPDF builds a PDF with the given page count by importing one
// generated image per page.
func testPDF(t *testing.T, pages int) []byte {
	t.Helper()

	imgs := make([]io.Reader, pages)
	for i := range imgs {
		imgs[i] = bytes.NewReader(testImage(t, 64, 64, "image/jpeg"))
	}

	imp, err := api.Import("form:A4", displayUnit())
	if err != nil {
		t.Fatalf("import description: %v", err)
	}

	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, imgs, imp, pdfConfig()); err != nil {
		t.Fatalf("generate test pdf: %v", err)
	}

	count, err := pdfPageCount(buf.Bytes())
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	if count != pages {
		t.Fatalf("test pdf has %d pages, want %d", count, pages)
	}

	return buf.Bytes()
}

func TestSplitPDF(t *testing.T) {
	src := testPDF(t, 10)

	out, err := splitPDF(src, "application/pdf", SplitParams{Ranges: "1-3,5,8-10"})
	if err != nil {
		t.Fatalf("splitPDF: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}

	if len(zr.File) != 3 {
		t.Fatalf("got %d archive entries, want 3", len(zr.File))
	}

	wantPages := []int{3, 1, 3}
	for i, entry := range zr.File {
		rc, err := entry.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", entry.Name, err)
		}
		part, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", entry.Name, err)
		}

		count, err := pdfPageCount(part)
		if err != nil {
			t.Fatalf("page count of %s: %v", entry.Name, err)
		}
		if count != wantPages[i] {
			t.Errorf("entry %s: got %d pages, want %d", entry.Name, count, wantPages[i])
		}
	}
}

func TestSplitPDFInvalidRange(t *testing.T) {
	src := testPDF(t, 10)

	_, err := splitPDF(src, "application/pdf", SplitParams{Ranges: "1-20"})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("got %v, want ErrInvalidRange", err)
	}
}

func TestSplitPDFRejectsNonPDF(t *testing.T) {
	_, err := splitPDF([]byte("not a pdf"), "text/plain", SplitParams{Ranges: "1"})
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Errorf("got %v, want ErrUnsupportedMediaType", err)
	}
}

func TestMergePDFs(t *testing.T) {
	a := testPDF(t, 3)
	b := testPDF(t, 2)

	out, err := mergePDFs([][]byte{a, b})
	if err != nil {
		t.Fatalf("mergePDFs: %v", err)
	}

	count, err := pdfPageCount(out)
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	if count != 5 {
		t.Errorf("got %d pages, want 5", count)
	}
}

func TestMergePDFsRequiresTwo(t *testing.T) {
	a := testPDF(t, 1)

	_, err := mergePDFs([][]byte{a})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestCompressPDF(t *testing.T) {
	src := testPDF(t, 4)

	for _, level := range []CompressLevel{CompressLow, CompressMedium, CompressHigh} {
		t.Run(string(level), func(t *testing.T) {
			out, err := compressPDF(src, "application/pdf", CompressParams{Level: level})
			if err != nil {
				t.Fatalf("compressPDF: %v", err)
			}

			count, err := pdfPageCount(out)
			if err != nil {
				t.Fatalf("result is not a valid pdf: %v", err)
			}
			if count != 4 {
				t.Errorf("got %d pages, want 4", count)
			}
		})
	}
}

func TestCompressPDFUnknownLevel(t *testing.T) {
	src := testPDF(t, 1)

	_, err := compressPDF(src, "application/pdf", CompressParams{Level: "extreme"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestWatermarkPDF(t *testing.T) {
	src := testPDF(t, 3)

	out, err := watermarkContent(src, "application/pdf", WatermarkParams{Text: "DRAFT"})
	if err != nil {
		t.Fatalf("watermarkContent: %v", err)
	}

	count, err := pdfPageCount(out)
	if err != nil {
		t.Fatalf("result is not a valid pdf: %v", err)
	}
	if count != 3 {
		t.Errorf("got %d pages, want 3", count)
	}
}

func TestSignPDF(t *testing.T) {
	src := testPDF(t, 2)
	sig := base64.StdEncoding.EncodeToString(testImage(t, 120, 40, "image/png"))

	out, err := signContent(src, "application/pdf", SignParams{SignatureImage: sig})
	if err != nil {
		t.Fatalf("signContent: %v", err)
	}

	count, err := pdfPageCount(out)
	if err != nil {
		t.Fatalf("result is not a valid pdf: %v", err)
	}
	if count != 2 {
		t.Errorf("got %d pages, want 2", count)
	}
}

func TestSignRejectsMissingSignature(t *testing.T) {
	src := testPDF(t, 1)

	_, err := signContent(src, "application/pdf", SignParams{})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}
