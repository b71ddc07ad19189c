package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// Generator renders QR codes as PNG images.
type Generator struct {
	level qrcode.RecoveryLevel
}

// ------------------------------------------------------------------------------------------------------
func NewGenerator() *Generator {
	return &Generator{level: qrcode.Medium}
}

// ------------------------------------------------------------------------------------------------------
// PNG encodes content into a width x height image. The code itself is square,
// sized to the shorter side and centred on a white background. When the code
// needs more pixels than requested the image grows to fit it.
func (g *Generator) PNG(content string, width, height int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content is empty")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid qr size %dx%d", width, height)
	}

	code, err := qrcode.New(content, g.level)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	square := code.Image(min(width, height))
	bounds := square.Bounds()
	width = max(width, bounds.Dx())
	height = max(height, bounds.Dy())

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	offset := image.Pt((width-bounds.Dx())/2, (height-bounds.Dy())/2)
	draw.Draw(canvas, image.Rectangle{Min: offset, Max: offset.Add(bounds.Size())}, square, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
