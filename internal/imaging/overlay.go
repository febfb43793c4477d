// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// paddingRatio is the inset from the right and bottom edges,
	// as a fraction of canvas width.
	paddingRatio = 0.03

	// footprintRatio caps the logo at this fraction of the canvas
	// width and height.
	footprintRatio = 0.25
)

// Merged is the result of compositing a logo onto a generated image, in both
// wire forms the pipeline needs.
type Merged struct {
	Base64  string
	DataURL string
}

// Surface is the raster capability the overlay needs: decode an asset into
// pixels, scale the logo into its box on the base image, and encode the
// result as PNG. Production uses the x/image implementation; tests can
// substitute a failing one.
type Surface interface {
	Decode(data []byte) (image.Image, error)
	Compose(base image.Image, logo image.Image, box image.Rectangle) image.Image
	EncodePNG(img image.Image) ([]byte, error)
}

// rasterSurface is the default Surface built on the standard image packages
// plus x/image's CatmullRom scaler.
type rasterSurface struct{}

func (rasterSurface) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode raster: %w", err)
	}
	return img, nil
}

func (rasterSurface) Compose(base image.Image, logo image.Image, box image.Rectangle) image.Image {
	canvas := image.NewRGBA(image.Rect(0, 0, base.Bounds().Dx(), base.Bounds().Dy()))
	draw.Draw(canvas, canvas.Bounds(), base, base.Bounds().Min, draw.Src)
	draw.CatmullRom.Scale(canvas, box, logo, logo.Bounds(), draw.Over, nil)
	return canvas
}

func (rasterSurface) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("imaging: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultSurface returns the production raster surface.
func DefaultSurface() Surface { return rasterSurface{} }

// OverlayLogo composites the brand logo into the bottom-right corner of a
// generated image and re-encodes the canvas as PNG. The overlay is cosmetic:
// any decode or compose failure is logged and the original image is returned
// unchanged, so generation never fails because of it.
func OverlayLogo(generatedBase64, logoDataURL string, surface Surface) Merged {
	passthrough := Merged{
		Base64:  generatedBase64,
		DataURL: "data:image/png;base64," + generatedBase64,
	}
	if surface == nil {
		surface = DefaultSurface()
	}

	generated, err := Base64ToBinary(generatedBase64, "image/png")
	if err != nil {
		slog.Warn("logo overlay skipped: generated image undecodable", "error", err)
		return passthrough
	}
	logoBin := DataURLToBinary(logoDataURL, "image/png")
	if logoBin == nil {
		slog.Warn("logo overlay skipped: logo data URL unparseable")
		return passthrough
	}

	baseImg, err := surface.Decode(generated.Data)
	if err != nil {
		slog.Warn("logo overlay skipped", "error", err)
		return passthrough
	}
	logoImg, err := surface.Decode(logoBin.Data)
	if err != nil {
		slog.Warn("logo overlay skipped: logo asset corrupt", "error", err)
		return passthrough
	}

	box := placement(
		baseImg.Bounds().Dx(), baseImg.Bounds().Dy(),
		logoImg.Bounds().Dx(), logoImg.Bounds().Dy(),
	)

	merged := surface.Compose(baseImg, logoImg, box)
	encoded, err := surface.EncodePNG(merged)
	if err != nil {
		slog.Warn("logo overlay skipped: encode failed", "error", err)
		return passthrough
	}

	return Merged{
		Base64:  base64.StdEncoding.EncodeToString(encoded),
		DataURL: DataURL(encoded, "image/png"),
	}
}

// placement computes the logo box: padding of 3% of canvas width from the
// right and bottom edges, footprint capped at 25% of each canvas dimension,
// and the logo is never upscaled.
func placement(canvasW, canvasH, logoW, logoH int) image.Rectangle {
	padding := int(math.Round(float64(canvasW) * paddingRatio))
	maxW := math.Round(float64(canvasW) * footprintRatio)
	maxH := math.Round(float64(canvasH) * footprintRatio)

	scale := math.Min(maxW/float64(logoW), maxH/float64(logoH))
	if scale > 1 {
		scale = 1
	}
	w := int(math.Round(float64(logoW) * scale))
	h := int(math.Round(float64(logoH) * scale))

	x := canvasW - w - padding
	y := canvasH - h - padding
	return image.Rect(x, y, x+w, y+h)
}
