package render

import "math/rand"

// FillUniformNoise fills buf with uniform [0,1) samples. These drive the
// tracer's bounce decisions; each job consumes a disjoint slice per
// iteration.
func FillUniformNoise(buf []float64, rng *rand.Rand) {
	for i := range buf {
		buf[i] = rng.Float64()
	}
}

// AAJitter draws one sub-pixel offset in pixel units using the configured
// noise distribution and scale
func AAJitter(noiseType string, scale float64, rng *rand.Rand) (float64, float64) {
	switch noiseType {
	case NoiseNormal:
		return rng.NormFloat64() * scale, rng.NormFloat64() * scale
	case NoiseTruncatedNormal:
		return truncatedNormal(rng) * scale, truncatedNormal(rng) * scale
	default:
		return (rng.Float64() - 0.5) * scale, (rng.Float64() - 0.5) * scale
	}
}

// truncatedNormal rejects samples beyond two standard deviations so extreme
// jitter cannot smear a sample into a distant pixel
func truncatedNormal(rng *rand.Rand) float64 {
	for {
		v := rng.NormFloat64()
		if v >= -2 && v <= 2 {
			return v
		}
	}
}
