// Package env resolves escaped-ray directions to environment radiance. Ray
// directions are projected to equirectangular UV coordinates once per
// iteration and looked up as a single batch, matching the batch-oriented
// contract of the lighting backend.
package env

import (
	"fmt"
	"math"

	"github.com/mglow/go-tile-pathtracer/pkg/core"
)

// Light turns a batch of equirectangular UV coordinates into radiance. The
// output slice must be the same length as the input batch.
type Light interface {
	LookupBatch(uvs []core.Vec2, out []core.Vec3) error
}

// DirectionToUV projects a unit direction onto the equirectangular map.
// U follows the polar angle from the +Y axis; V follows the azimuth around
// it, rotated by the configured offset and wrapped to one full turn.
func DirectionToUV(dir core.Vec3, azimuthOffset float64) core.Vec2 {
	theta := math.Acos(math.Max(-1, math.Min(1, dir.Y)))
	phi := math.Atan2(dir.Z, dir.X) + azimuthOffset
	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return core.NewVec2(theta/math.Pi, phi/(2*math.Pi))
}

// Uniform is a constant-radiance environment, the fallback when no map is
// loaded.
type Uniform struct {
	Radiance core.Vec3
}

// LookupBatch fills out with the constant radiance
func (u Uniform) LookupBatch(uvs []core.Vec2, out []core.Vec3) error {
	if len(uvs) != len(out) {
		return fmt.Errorf("environment lookup: batch size mismatch, %d uvs vs %d outputs", len(uvs), len(out))
	}
	for i := range out {
		out[i] = u.Radiance
	}
	return nil
}
