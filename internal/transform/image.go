package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const defaultQuality = 80

// ResizeParams scales an image down to fit within the given bounds. At
// least one dimension is required; aspect ratio is always preserved.
type ResizeParams struct {
	Width   int `json:"width,omitempty"`
	Height  int `json:"height,omitempty"`
	Quality int `json:"quality,omitempty"`
}

// CropParams extracts a rectangle in source-pixel coordinates.
type CropParams struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Left   int `json:"left"`
	Top    int `json:"top"`
}

// ConvertParams re-encodes pixel data into a different format.
type ConvertParams struct {
	TargetFormat string `json:"target_format"`
	Quality      int    `json:"quality,omitempty"`
}

// targetFormats maps convert targets to their output mime types.
var targetFormats = map[string]string{
	"webp": "image/webp",
	"png":  "image/png",
	"jpeg": "image/jpeg",
}

// resizeImage scales the source down so it fits within the requested
// bounds. Requests larger than the source clamp to the original size.
func resizeImage(data []byte, mimeType string, params ResizeParams) ([]byte, error) {
	if params.Width <= 0 && params.Height <= 0 {
		return nil, validationErr("resize requires width or height")
	}

	src, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	width := clampDim(params.Width, bounds.Dx())
	height := clampDim(params.Height, bounds.Dy())

	var out image.Image
	switch {
	case width > 0 && height > 0:
		out = imaging.Fit(src, width, height, imaging.Lanczos)
	case width > 0:
		out = imaging.Resize(src, width, 0, imaging.Lanczos)
	default:
		out = imaging.Resize(src, 0, height, imaging.Lanczos)
	}

	return encodeImage(out, mimeType, params.Quality)
}

// cropImage extracts the requested rectangle from the source.
func cropImage(data []byte, mimeType string, params CropParams) ([]byte, error) {
	if params.Width <= 0 || params.Height <= 0 {
		return nil, validationErr("crop requires positive width and height")
	}
	if params.Left < 0 || params.Top < 0 {
		return nil, rangeErr("crop origin (%d,%d) outside source", params.Left, params.Top)
	}

	src, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	if params.Left+params.Width > bounds.Dx() || params.Top+params.Height > bounds.Dy() {
		return nil, rangeErr("crop rectangle %dx%d+%d+%d exceeds source %dx%d",
			params.Width, params.Height, params.Left, params.Top, bounds.Dx(), bounds.Dy())
	}

	rect := image.Rect(params.Left, params.Top, params.Left+params.Width, params.Top+params.Height)
	out := imaging.Crop(src, rect)

	return encodeImage(out, mimeType, 0)
}

// convertImage re-encodes the source into the target format. Result mime
// type is returned alongside the bytes.
func convertImage(data []byte, mimeType string, params ConvertParams) ([]byte, string, error) {
	targetMime, ok := targetFormats[params.TargetFormat]
	if !ok {
		return nil, "", validationErr("unknown target format %q", params.TargetFormat)
	}

	src, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, "", err
	}

	out, err := encodeImage(src, targetMime, params.Quality)
	if err != nil {
		return nil, "", err
	}

	return out, targetMime, nil
}

func decodeImage(data []byte, mimeType string) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode %s: %v", ErrUnsupportedMediaType, mimeType, err)
	}
	return img, nil
}

func encodeImage(img image.Image, mimeType string, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}

	var buf bytes.Buffer
	if err := writeImage(&buf, img, mimeType, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeImage(w io.Writer, img image.Image, mimeType string, quality int) error {
	switch mimeType {
	case "image/jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "image/png":
		return png.Encode(w, img)
	case "image/gif":
		return gif.Encode(w, img, nil)
	case "image/webp":
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	default:
		// Sources decodable but not encodable (tiff, bmp) re-encode as png.
		return png.Encode(w, img)
	}
}

func clampDim(requested, source int) int {
	if requested > source {
		return source
	}
	return requested
}
