package transform

import "strings"

// ContentKind classifies source content for operation dispatch.
type ContentKind int

// Content classifications.
const (
	KindOther ContentKind = iota
	KindImage
	KindPDF
	KindText
)

// decodable image formats; webp and bmp decode via golang.org/x/image.
var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
}

// KindOf classifies a mime type, ignoring parameters.
func KindOf(mimeType string) ContentKind {
	base := mimeType
	if idx := strings.Index(base, ";"); idx != -1 {
		base = strings.TrimSpace(base[:idx])
	}

	switch {
	case base == "application/pdf":
		return KindPDF
	case imageTypes[base]:
		return KindImage
	case strings.HasPrefix(base, "text/"):
		return KindText
	default:
		return KindOther
	}
}

func (k ContentKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	case KindText:
		return "text"
	default:
		return "other"
	}
}
