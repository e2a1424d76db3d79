// Package work manages the distribution of pixels to tracing workers: per
// pixel trace records, fixed-size per-worker jobs, the double-buffered
// worklist shared between the tracing and host domains, and the path-length
// load balancer that redistributes pixels between iterations.
package work

import "github.com/mglow/go-tile-pathtracer/pkg/core"

// SentinelCoord marks a padding record. Padding fills every job to a uniform
// record count and is skipped by tracing and accumulation alike.
const SentinelCoord = 0xFFFF

// TraceRecord accumulates the tracing state for one pixel slot. Records are
// mutated in place every iteration by the tracing workers and read by the
// host accumulation task; they persist across iterations until load
// balancing reassigns pixels and clears them.
type TraceRecord struct {
	U, V        uint16
	R, G, B     float32
	SampleCount uint32
	PathLength  uint32
}

// PaddingRecord returns a sentinel record used to fill a job to size
func PaddingRecord() TraceRecord {
	return TraceRecord{U: SentinelCoord, V: SentinelCoord}
}

// IsPadding reports whether the record is a sentinel filler
func (r *TraceRecord) IsPadding() bool {
	return r.U == SentinelCoord && r.V == SentinelCoord
}

// AddSample folds one completed path into the record. The sample count and
// path length advance unconditionally, including for paths that composed to
// zero light.
func (r *TraceRecord) AddSample(color core.Vec3, depth int) {
	r.R += float32(color.X)
	r.G += float32(color.Y)
	r.B += float32(color.Z)
	r.SampleCount++
	r.PathLength += uint32(depth)
}

// ClearAccumulators zeroes the colour, sample-count and path-length fields
// together, leaving the pixel assignment in place. The statistics are never
// reset independently of each other.
func (r *TraceRecord) ClearAccumulators() {
	r.R, r.G, r.B = 0, 0, 0
	r.SampleCount = 0
	r.PathLength = 0
}
