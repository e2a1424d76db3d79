// Package film holds the persistent frame buffer that trace records are
// merged into, the exposure/gamma tone mapper, and LDR/HDR image output.
package film

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/mglow/go-tile-pathtracer/pkg/core"
	"github.com/mglow/go-tile-pathtracer/pkg/work"
)

// AccumulatedImage is the persistent per-pixel radiance accumulator. Trace
// records carry running colour sums and sample counts; merging a record
// overwrites the pixel with its current mean, so the image always reflects
// the newest estimate for every pixel that has been traced.
type AccumulatedImage struct {
	width  int
	height int
	pixels []core.Vec3
}

// NewAccumulatedImage allocates a zeroed accumulator
func NewAccumulatedImage(width, height int) *AccumulatedImage {
	return &AccumulatedImage{
		width:  width,
		height: height,
		pixels: make([]core.Vec3, width*height),
	}
}

// Width returns the image width in pixels
func (img *AccumulatedImage) Width() int { return img.width }

// Height returns the image height in pixels
func (img *AccumulatedImage) Height() int { return img.height }

// At returns the stored HDR radiance for a pixel
func (img *AccumulatedImage) At(x, y int) core.Vec3 {
	return img.pixels[y*img.width+x]
}

// Accumulate merges a completed record sequence into the image. Each record
// overwrites its pixel with the sample-count mean of its accumulated colour.
// Padding records, out-of-bounds coordinates and records with no samples are
// skipped.
func (img *AccumulatedImage) Accumulate(records []work.TraceRecord) {
	for i := range records {
		r := &records[i]
		if r.IsPadding() || r.SampleCount == 0 {
			continue
		}
		x, y := int(r.U), int(r.V)
		if x >= img.width || y >= img.height {
			continue
		}
		scale := 1.0 / float64(r.SampleCount)
		img.pixels[y*img.width+x] = core.NewVec3(
			float64(r.R)*scale,
			float64(r.G)*scale,
			float64(r.B)*scale,
		)
	}
}

// Reset zeroes the whole image. Used only on a full render restart.
func (img *AccumulatedImage) Reset() {
	for i := range img.pixels {
		img.pixels[i] = core.Vec3{}
	}
}

// UpdateLdrImage tone maps the HDR state into a display-range image: radiance
// is scaled by 2^exposure, gamma corrected, and clipped. Conversion from the
// same HDR state with the same settings always yields the same result.
func (img *AccumulatedImage) UpdateLdrImage(exposure, gamma float64) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.width, img.height))
	scale := math.Pow(2, exposure)
	invGamma := 1.0 / gamma

	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			p := img.pixels[y*img.width+x].Multiply(scale)
			out.SetRGBA(x, y, color.RGBA{
				R: toneMapChannel(p.X, invGamma),
				G: toneMapChannel(p.Y, invGamma),
				B: toneMapChannel(p.Z, invGamma),
				A: 255,
			})
		}
	}
	return out
}

func toneMapChannel(v, invGamma float64) uint8 {
	if v <= 0 {
		return 0
	}
	v = math.Pow(v, invGamma)
	if v >= 1 {
		return 255
	}
	return uint8(v * 255.0)
}

// SaveImages persists the image as <base>.png (tone mapped) and <base>.pfm
// (raw HDR floats) so a partial render can be resumed visually and inspected
// numerically.
func (img *AccumulatedImage) SaveImages(base string, exposure, gamma float64) error {
	if err := img.savePNG(base+".png", exposure, gamma); err != nil {
		return err
	}
	return img.savePFM(base + ".pfm")
}

func (img *AccumulatedImage) savePNG(path string, exposure, gamma float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img.UpdateLdrImage(exposure, gamma)); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
