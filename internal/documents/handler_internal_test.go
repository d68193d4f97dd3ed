package documents

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestDetectContentType(t *testing.T) {
	pdf := []byte("%PDF-1.7 ...")

	tests := []struct {
		name   string
		header string
		data   []byte
		want   string
	}{
		{"header honored", "application/pdf", []byte("x"), "application/pdf"},
		{"octet-stream sniffed", "application/octet-stream", pdf, "application/pdf"},
		{"missing header sniffed", "", pdf, "application/pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectContentType(tt.header, tt.data); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractText(t *testing.T) {
	if got := extractText("text/plain; charset=utf-8", []byte("hello")); got == nil || *got != "hello" {
		t.Errorf("plain text not extracted: %v", got)
	}
	if got := extractText("application/json", []byte(`{"a":1}`)); got == nil {
		t.Error("json not extracted")
	}
	if got := extractText("application/pdf", []byte("%PDF-")); got != nil {
		t.Errorf("binary content extracted: %q", *got)
	}
	if got := extractText("text/plain", []byte{0xff, 0xfe, 0x00}); got != nil {
		t.Error("invalid utf-8 extracted")
	}

	long := strings.Repeat("a", maxTextContent+100)
	got := extractText("text/plain", []byte(long))
	if got == nil || len(*got) != maxTextContent {
		t.Error("long text not truncated")
	}
}

func TestVersionStorageKey(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	blobID := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")

	key := VersionStorageKey(id, blobID, "Q4 Report: final?.pdf")
	want := "documents/6ba7b810-9dad-11d1-80b4-00c04fd430c8/7d444840-9dc0-11d1-b245-5ffdce74fad2/Q4_Report__final_.pdf"
	if key != want {
		t.Errorf("got %q, want %q", key, want)
	}

	// Uploaded paths collapse to their base name.
	key = VersionStorageKey(id, blobID, "../../evil.sh")
	if strings.Contains(key, "..") {
		t.Errorf("path segments survived sanitization: %q", key)
	}

	// Distinct blob ids keep concurrent appends from colliding on a key.
	if VersionStorageKey(id, uuid.New(), "report.txt") == VersionStorageKey(id, uuid.New(), "report.txt") {
		t.Error("keys for distinct blob ids collided")
	}
}
