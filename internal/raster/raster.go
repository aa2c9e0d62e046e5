package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/mmr-tortoise/cardpunch/internal/model"
	"github.com/mmr-tortoise/cardpunch/internal/render"
)

// DefaultDPI is the resolution used when the caller does not pick one.
const DefaultDPI = 150

// MaxPixels bounds the raster size so a tall stack of cards at a high DPI
// cannot exhaust memory.
const MaxPixels = 40_000_000

// MaxDPI is the highest accepted resolution.
const MaxDPI = 2400

// Rasterize draws doc onto a white RGBA image at the given resolution.
func Rasterize(doc *render.Document, dpi float64) (*image.RGBA, error) {
	const op = "rasterize"

	if err := CheckDPI(dpi); err != nil {
		return nil, err
	}
	w, h := doc.PixelSize(dpi)
	// h is at least 1; dividing avoids overflowing w*h.
	if w > MaxPixels/h {
		return nil, model.InvalidRequest(op, "dpi", fmt.Sprintf("%dx%d pixels exceeds the %d pixel limit", w, h, MaxPixels))
	}

	var src bytes.Buffer
	if err := doc.WriteSVGPixels(&src, dpi); err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}

	icon, err := oksvg.ReadIconStream(&src, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1)

	return img, nil
}

// CheckDPI rejects resolutions that are not positive or above MaxDPI.
func CheckDPI(dpi float64) error {
	if !(dpi > 0) || dpi > MaxDPI {
		return model.InvalidRequest("rasterize", "dpi", fmt.Sprintf("must be greater than 0 and at most %d, got %v", MaxDPI, dpi))
	}
	return nil
}

// WritePNG rasterizes doc and writes it to w as PNG.
func WritePNG(w io.Writer, doc *render.Document, dpi float64) error {
	img, err := Rasterize(doc, dpi)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
