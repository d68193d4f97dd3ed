package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// WatermarkParams overlays text onto every page or frame.
type WatermarkParams struct {
	Text string `json:"text"`
}

const watermarkFontSize = 36

// watermarkContent dispatches on content kind. PDFs stamp every page;
// images draw the text near the bottom-left corner.
func watermarkContent(data []byte, mimeType string, params WatermarkParams) ([]byte, error) {
	if params.Text == "" {
		return nil, validationErr("watermark requires text")
	}

	switch KindOf(mimeType) {
	case KindPDF:
		return watermarkPDF(data, params.Text)
	case KindImage:
		return watermarkImage(data, mimeType, params.Text)
	default:
		return nil, fmt.Errorf("%w: cannot watermark %s", ErrUnsupportedMediaType, mimeType)
	}
}

func watermarkPDF(data []byte, text string) ([]byte, error) {
	wm, err := api.TextWatermark(text,
		"font:Helvetica, points:48, pos:c, rot:45, op:0.3, fillc:#808080",
		true, false, displayUnit())
	if err != nil {
		return nil, fmt.Errorf("watermark definition: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(data), &out, nil, wm, pdfConfig()); err != nil {
		return nil, fmt.Errorf("%w: watermark: %v", ErrUnsupportedMediaType, err)
	}

	return out.Bytes(), nil
}

func watermarkImage(data []byte, mimeType, text string) ([]byte, error) {
	src, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	face, err := watermarkFace()
	if err != nil {
		return nil, err
	}

	margin := bounds.Dx() / 40
	if margin < 8 {
		margin = 8
	}

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.RGBA{A: 160}),
		Face: face,
		Dot: fixed.P(
			bounds.Min.X+margin,
			bounds.Max.Y-margin,
		),
	}
	d.DrawString(text)

	return encodeImage(canvas, mimeType, 0)
}

func watermarkFace() (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    watermarkFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
