package env

import (
	"fmt"
	"image"
	"math"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"github.com/mglow/go-tile-pathtracer/pkg/core"
)

// Map is an equirectangular environment image held in linear radiance
type Map struct {
	width  int
	height int
	pixels []core.Vec3
}

// NewMap wraps linear radiance pixels as an environment map
func NewMap(width, height int, pixels []core.Vec3) (*Map, error) {
	if len(pixels) != width*height {
		return nil, fmt.Errorf("environment map: %d pixels for %dx%d image", len(pixels), width, height)
	}
	return &Map{width: width, height: height, pixels: pixels}, nil
}

// LoadMap reads an equirectangular image file and linearises it. Failures
// are recoverable: the caller keeps rendering with its previous environment.
func LoadMap(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening environment map: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding environment map %s: %w", path, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]core.Vec3, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			pixels[y*w+x] = core.NewVec3(
				srgbToLinear(float64(r)/65535),
				srgbToLinear(float64(g)/65535),
				srgbToLinear(float64(b)/65535),
			)
		}
	}
	return &Map{width: w, height: h, pixels: pixels}, nil
}

func srgbToLinear(v float64) float64 {
	return math.Pow(v, 2.2)
}

// LookupBatch samples the map at each UV with nearest-pixel lookup
func (m *Map) LookupBatch(uvs []core.Vec2, out []core.Vec3) error {
	if len(uvs) != len(out) {
		return fmt.Errorf("environment lookup: batch size mismatch, %d uvs vs %d outputs", len(uvs), len(out))
	}
	for i, uv := range uvs {
		y := int(uv.X * float64(m.height-1))
		x := int(uv.Y * float64(m.width-1))
		if y < 0 {
			y = 0
		} else if y >= m.height {
			y = m.height - 1
		}
		if x < 0 {
			x = 0
		} else if x >= m.width {
			x = m.width - 1
		}
		out[i] = m.pixels[y*m.width+x]
	}
	return nil
}
