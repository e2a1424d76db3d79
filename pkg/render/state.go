package render

import (
	"math/rand"

	"github.com/mglow/go-tile-pathtracer/pkg/core"
	"github.com/mglow/go-tile-pathtracer/pkg/trace"
	"github.com/mglow/go-tile-pathtracer/pkg/work"
)

// noiseStride is the number of uniform samples reserved per potential bounce:
// one roulette draw plus a three-component scatter sample.
const noiseStride = 4

// traceState is the per-slot scratch for one worklist generation: one
// contribution stack per record slot, the escaped-ray batch, per-job noise
// samplers and jitter streams. A render restart that retires in-flight work
// allocates a fresh traceState so the defunct one stays solely owned by its
// draining task.
type traceState struct {
	stacks  []*trace.Stack
	escaped []bool
	uvs     []core.Vec2

	noise    []float64
	samplers []*core.BufferedSampler
	jitter   []*rand.Rand

	// Compacted escaped-ray batch, rebuilt once per pass.
	batchUVs   []core.Vec2
	batchOut   []core.Vec3
	batchSlots []int

	// Per-job throughput tallies, summed after each accumulate phase.
	jobPaths    []int64
	jobSegments []int64
}

func newTraceState(listSize, maxPathLength int, jobs []work.TraceJob, seed int64) *traceState {
	st := &traceState{
		stacks:      make([]*trace.Stack, listSize),
		escaped:     make([]bool, listSize),
		uvs:         make([]core.Vec2, listSize),
		noise:       make([]float64, listSize*maxPathLength*noiseStride),
		samplers:    make([]*core.BufferedSampler, len(jobs)),
		jitter:      make([]*rand.Rand, len(jobs)),
		jobPaths:    make([]int64, len(jobs)),
		jobSegments: make([]int64, len(jobs)),
		batchUVs:    make([]core.Vec2, 0, listSize),
		batchOut:    make([]core.Vec3, 0, listSize),
		batchSlots:  make([]int, 0, listSize),
	}
	for i := range st.stacks {
		st.stacks[i] = trace.NewStack(make([]trace.Contribution, maxPathLength))
	}
	for i, job := range jobs {
		st.samplers[i] = core.NewBufferedSampler(st.noiseFor(job, maxPathLength))
		st.jitter[i] = rand.New(rand.NewSource(seed + int64(i)*7919))
	}
	return st
}

// noiseFor returns the disjoint noise slice owned by one job
func (st *traceState) noiseFor(job work.TraceJob, maxPathLength int) []float64 {
	stride := maxPathLength * noiseStride
	return st.noise[job.Offset*stride : (job.Offset+job.Count)*stride]
}

// resetSamplers rewinds every job's sampler to the start of its freshly
// filled noise slice
func (st *traceState) resetSamplers(jobs []work.TraceJob, maxPathLength int) {
	for i, job := range jobs {
		st.samplers[i].Reset(st.noiseFor(job, maxPathLength))
	}
}

// clearTallies zeroes the per-job throughput counters
func (st *traceState) clearTallies() {
	for i := range st.jobPaths {
		st.jobPaths[i] = 0
		st.jobSegments[i] = 0
	}
}

// sumTallies returns total paths and segments since the last clear
func (st *traceState) sumTallies() (paths, segments int64) {
	for i := range st.jobPaths {
		paths += st.jobPaths[i]
		segments += st.jobSegments[i]
	}
	return paths, segments
}
