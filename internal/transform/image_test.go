package transform

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testImage(t *testing.T, width, height int, mimeType string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	switch mimeType {
	case "image/png":
		err = png.Encode(&buf, img)
	case "image/jpeg":
		err = jpeg.Encode(&buf, img, nil)
	default:
		t.Fatalf("unsupported test image type %s", mimeType)
	}
	if err != nil {
		t.Fatalf("encode test image: %v", err)
	}

	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestResizeImage(t *testing.T) {
	src := testImage(t, 200, 100, "image/png")

	tests := []struct {
		name       string
		params     ResizeParams
		wantWidth  int
		wantHeight int
	}{
		{
			name:       "both dimensions fit inside",
			params:     ResizeParams{Width: 100, Height: 100},
			wantWidth:  100,
			wantHeight: 50,
		},
		{
			name:       "width only preserves aspect",
			params:     ResizeParams{Width: 50},
			wantWidth:  50,
			wantHeight: 25,
		},
		{
			name:       "height only preserves aspect",
			params:     ResizeParams{Height: 50},
			wantWidth:  100,
			wantHeight: 50,
		},
		{
			name:       "never upscales",
			params:     ResizeParams{Width: 1000, Height: 1000},
			wantWidth:  200,
			wantHeight: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := resizeImage(src, "image/png", tt.params)
			if err != nil {
				t.Fatalf("resizeImage: %v", err)
			}

			w, h := decodedSize(t, out)
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestResizeImageRequiresDimension(t *testing.T) {
	src := testImage(t, 10, 10, "image/png")

	_, err := resizeImage(src, "image/png", ResizeParams{Quality: 90})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestResizeImageRejectsNonImage(t *testing.T) {
	_, err := resizeImage([]byte("plain text"), "text/plain", ResizeParams{Width: 10})
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Errorf("got %v, want ErrUnsupportedMediaType", err)
	}
}

func TestCropImage(t *testing.T) {
	src := testImage(t, 100, 80, "image/png")

	out, err := cropImage(src, "image/png", CropParams{Width: 40, Height: 30, Left: 10, Top: 20})
	if err != nil {
		t.Fatalf("cropImage: %v", err)
	}

	w, h := decodedSize(t, out)
	if w != 40 || h != 30 {
		t.Errorf("got %dx%d, want 40x30", w, h)
	}
}

func TestCropImageOutOfBounds(t *testing.T) {
	src := testImage(t, 100, 80, "image/png")

	tests := []struct {
		name   string
		params CropParams
	}{
		{"exceeds width", CropParams{Width: 100, Height: 10, Left: 10, Top: 0}},
		{"exceeds height", CropParams{Width: 10, Height: 80, Left: 0, Top: 10}},
		{"negative origin", CropParams{Width: 10, Height: 10, Left: -1, Top: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cropImage(src, "image/png", tt.params)
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("got %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestConvertImage(t *testing.T) {
	src := testImage(t, 50, 50, "image/jpeg")

	tests := []struct {
		target   string
		wantMime string
	}{
		{"png", "image/png"},
		{"jpeg", "image/jpeg"},
		{"webp", "image/webp"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			out, mimeType, err := convertImage(src, "image/jpeg", ConvertParams{TargetFormat: tt.target})
			if err != nil {
				t.Fatalf("convertImage: %v", err)
			}
			if mimeType != tt.wantMime {
				t.Errorf("mime: got %s, want %s", mimeType, tt.wantMime)
			}

			w, h := decodedSize(t, out)
			if w != 50 || h != 50 {
				t.Errorf("dimensions changed: got %dx%d", w, h)
			}
		})
	}
}

func TestConvertImageUnknownTarget(t *testing.T) {
	src := testImage(t, 10, 10, "image/png")

	_, _, err := convertImage(src, "image/png", ConvertParams{TargetFormat: "tiff"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestWatermarkImage(t *testing.T) {
	src := testImage(t, 400, 200, "image/png")

	out, err := watermarkContent(src, "image/png", WatermarkParams{Text: "CONFIDENTIAL"})
	if err != nil {
		t.Fatalf("watermarkContent: %v", err)
	}

	w, h := decodedSize(t, out)
	if w != 400 || h != 200 {
		t.Errorf("dimensions changed: got %dx%d", w, h)
	}
	if bytes.Equal(out, src) {
		t.Error("watermark did not modify pixel data")
	}
}

func TestWatermarkRequiresText(t *testing.T) {
	src := testImage(t, 10, 10, "image/png")

	_, err := watermarkContent(src, "image/png", WatermarkParams{})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}
