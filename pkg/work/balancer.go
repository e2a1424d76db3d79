package work

import "sort"

// LoadBalancer owns a double-buffered worklist and the job partition over it.
// It assigns pixels to jobs, redistributes them between iterations using
// observed path lengths as a cost proxy, and resets per-record statistics
// whenever the pixel-to-slot assignment changes.
type LoadBalancer struct {
	list   *WorkList
	jobs   []TraceJob
	width  int
	height int
}

// NewLoadBalancer builds a balancer over a fresh worklist sized to the jobs
func NewLoadBalancer(width, height int, jobs []TraceJob, listSize int) *LoadBalancer {
	return &LoadBalancer{
		list:   NewWorkList(listSize),
		jobs:   jobs,
		width:  width,
		height: height,
	}
}

// List returns the underlying double-buffered worklist
func (lb *LoadBalancer) List() *WorkList { return lb.list }

// Jobs returns the job partition
func (lb *LoadBalancer) Jobs() []TraceJob { return lb.jobs }

// RandomiseWorkList rebuilds the inactive list from scratch: pixel
// coordinates in canonical raster order are concatenated into per-job spans,
// with trailing slots padded by sentinel records. All accumulators start at
// zero. Used for initial setup of each buffer side.
func (lb *LoadBalancer) RandomiseWorkList() {
	inactive := lb.list.Inactive()
	pixels := lb.width * lb.height
	for i := range inactive {
		if i < pixels {
			inactive[i] = TraceRecord{U: uint16(i % lb.width), V: uint16(i / lb.width)}
		} else {
			inactive[i] = PaddingRecord()
		}
	}
}

// AllocateWorkByPathLength redistributes the inactive list's records among
// jobs using last iteration's path lengths as a cost estimate. Records are
// sorted by path length ascending, then the shortest and longest remaining
// records are paired off, one pair per job per round, until the two cursors
// meet. Every job ends up with a roughly equal mix of cheap and expensive
// pixels. The record multiset is unchanged; only slot assignment moves.
// Callers must clear the inactive accumulators afterwards so statistics from
// a previous assignment are not misattributed.
func (lb *LoadBalancer) AllocateWorkByPathLength() {
	inactive := lb.list.Inactive()
	sorted := make([]TraceRecord, len(inactive))
	copy(sorted, inactive)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PathLength < sorted[j].PathLength
	})

	next := make([]int, len(lb.jobs))
	lo, hi := 0, len(sorted)-1
	for job := 0; lo <= hi; job = (job + 1) % len(lb.jobs) {
		// A job with an odd slot count fills up mid-round; skip it so the
		// remaining records drain into jobs with room. Total slots equal
		// total records, so a job with room always exists.
		if next[job] >= lb.jobs[job].Count {
			continue
		}
		slot := lb.jobs[job].Offset
		inactive[slot+next[job]] = sorted[lo]
		next[job]++
		lo++
		if lo <= hi && next[job] < lb.jobs[job].Count {
			inactive[slot+next[job]] = sorted[hi]
			next[job]++
			hi--
		}
	}
}

// ClearInactiveAccumulators zeroes colour and statistics on the inactive side
func (lb *LoadBalancer) ClearInactiveAccumulators() {
	clearAccumulators(lb.list.Inactive())
}

// ClearActiveAccumulators zeroes colour and statistics on the active side
func (lb *LoadBalancer) ClearActiveAccumulators() {
	clearAccumulators(lb.list.Active())
}

func clearAccumulators(records []TraceRecord) {
	for i := range records {
		records[i].ClearAccumulators()
	}
}

// SumInactivePathSegments totals the path lengths recorded on the inactive
// side, excluding padding. Feeds the rays-per-second throughput estimate.
func (lb *LoadBalancer) SumInactivePathSegments() uint64 {
	var total uint64
	for i := range lb.list.Inactive() {
		r := &lb.list.Inactive()[i]
		if r.IsPadding() {
			continue
		}
		total += uint64(r.PathLength)
	}
	return total
}
