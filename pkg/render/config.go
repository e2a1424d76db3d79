// Package render orchestrates the iterative path tracing pipeline: a fixed
// pool of tracing workers fills the active worklist, escaped rays are
// resolved against the environment in one batch per pass, and a single
// in-flight background task overlaps film accumulation, preview output and
// load rebalancing with the next trace.
package render

import "fmt"

// Noise distributions for anti-aliasing jitter
const (
	NoiseUniform         = "uniform"
	NoiseNormal          = "normal"
	NoiseTruncatedNormal = "truncated-normal"
)

// Settings is the full render configuration. A snapshot is taken at each
// iteration boundary; nothing here changes mid-iteration.
type Settings struct {
	Width  int
	Height int

	Samples            int // total samples per pixel before stopping
	SamplesPerStep     int // samples traced per pixel per iteration
	InteractiveSamples int // reduced per-step samples while the UI is active

	RouletteDepth   int
	StopProb        float64
	MaxPathLength   int
	RefractiveIndex float64

	FOV          float64 // horizontal field of view in degrees
	AANoiseScale float64
	AANoiseType  string
	Exposure     float64
	Gamma        float64
	EnvMapPath   string
	EnvRotation  float64 // azimuth offset in degrees
	AmbientLight float64 // uniform fallback radiance when no map is loaded

	Seed          int64
	Jobs          int
	Workers       int
	LoadBalancing bool

	OutFile      string
	SaveInterval int // iterations between periodic saves; 0 disables
}

// Validate rejects structurally impossible configurations. These are sizing
// bugs, not runtime conditions, so the caller aborts on error.
func (s Settings) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("image dimensions must be positive, got %dx%d", s.Width, s.Height)
	}
	// Record coordinates are 16-bit with the maximum value reserved as the
	// padding sentinel.
	if s.Width >= 0xFFFF || s.Height >= 0xFFFF {
		return fmt.Errorf("image dimensions must be below %d, got %dx%d", 0xFFFF, s.Width, s.Height)
	}
	if s.SamplesPerStep <= 0 {
		return fmt.Errorf("samples per step must be positive, got %d", s.SamplesPerStep)
	}
	if s.MaxPathLength < 2 {
		return fmt.Errorf("max path length must be at least 2, got %d", s.MaxPathLength)
	}
	if s.StopProb < 0 || s.StopProb >= 1 {
		return fmt.Errorf("roulette stop probability must be in [0,1), got %g", s.StopProb)
	}
	if s.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive, got %g", s.Gamma)
	}
	if s.FOV <= 0 || s.FOV >= 180 {
		return fmt.Errorf("field of view must be in (0,180), got %g", s.FOV)
	}
	if s.Jobs <= 0 || s.Workers <= 0 {
		return fmt.Errorf("jobs and workers must be positive, got %d jobs, %d workers", s.Jobs, s.Workers)
	}
	if s.Jobs%s.Workers != 0 {
		return fmt.Errorf("job count %d must divide evenly among %d workers", s.Jobs, s.Workers)
	}
	switch s.AANoiseType {
	case NoiseUniform, NoiseNormal, NoiseTruncatedNormal:
	default:
		return fmt.Errorf("unknown anti-aliasing noise type %q", s.AANoiseType)
	}
	return nil
}
