package work

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/mglow/go-tile-pathtracer/pkg/core"
)

func TestBuildJobs(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		height    int
		numJobs   int
		wantPer   int
		wantTotal int
		wantErr   bool
	}{
		{"even split", 4, 4, 2, 8, 16, false},
		{"uneven split pads", 3, 3, 2, 5, 10, false},
		{"single job", 8, 8, 1, 64, 64, false},
		{"more jobs than pixels", 2, 2, 8, 1, 8, false},
		{"zero jobs", 4, 4, 0, 0, 0, true},
		{"zero width", 0, 4, 2, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, total, err := BuildJobs(tt.width, tt.height, tt.numJobs)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total: got %d, want %d", total, tt.wantTotal)
			}
			if len(jobs) != tt.numJobs {
				t.Fatalf("job count: got %d, want %d", len(jobs), tt.numJobs)
			}
			for i, j := range jobs {
				if j.Count != tt.wantPer {
					t.Errorf("job %d count: got %d, want %d", i, j.Count, tt.wantPer)
				}
				if j.Offset != i*tt.wantPer {
					t.Errorf("job %d offset: got %d, want %d", i, j.Offset, i*tt.wantPer)
				}
			}
		})
	}
}

func TestWorkListSwap(t *testing.T) {
	list := NewWorkList(4)
	active := list.Active()
	inactive := list.Inactive()

	if err := list.Swap(); err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if &list.Active()[0] != &inactive[0] {
		t.Error("swap did not promote the inactive buffer")
	}
	if &list.Inactive()[0] != &active[0] {
		t.Error("swap did not demote the active buffer")
	}
}

func TestWorkListSwapEmptyFails(t *testing.T) {
	list := NewWorkList(0)
	err := list.Swap()
	if !errors.Is(err, ErrEmptyWorkList) {
		t.Fatalf("swap on empty list: got %v, want ErrEmptyWorkList", err)
	}
}

func TestRandomiseWorkListCoversRaster(t *testing.T) {
	// 4x4 image in 2 jobs of 8 pixels each: the union of both jobs'
	// coordinates must be every raster coordinate exactly once.
	jobs, total, err := BuildJobs(4, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	lb := NewLoadBalancer(4, 4, jobs, total)
	lb.RandomiseWorkList()

	seen := map[[2]uint16]int{}
	for _, job := range jobs {
		for _, r := range job.Records(lb.List().Inactive()) {
			if r.IsPadding() {
				t.Error("even split should produce no padding")
				continue
			}
			seen[[2]uint16{r.U, r.V}]++
		}
	}
	if len(seen) != 16 {
		t.Fatalf("distinct coordinates: got %d, want 16", len(seen))
	}
	for coord, n := range seen {
		if n != 1 {
			t.Errorf("coordinate %v assigned %d times", coord, n)
		}
	}
}

func TestRandomiseWorkListPadsTail(t *testing.T) {
	jobs, total, err := BuildJobs(3, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	lb := NewLoadBalancer(3, 3, jobs, total)
	lb.RandomiseWorkList()

	inactive := lb.List().Inactive()
	padding := 0
	for i := range inactive {
		if inactive[i].IsPadding() {
			padding++
		}
	}
	if padding != total-9 {
		t.Errorf("padding records: got %d, want %d", padding, total-9)
	}
	// Real records come before padding.
	if inactive[8].IsPadding() || !inactive[9].IsPadding() {
		t.Error("padding should fill only the trailing slots")
	}
}

func recordKey(r TraceRecord) string {
	return fmt.Sprintf("%d/%d/%g/%g/%g/%d/%d", r.U, r.V, r.R, r.G, r.B, r.SampleCount, r.PathLength)
}

func TestAllocateWorkByPathLengthIsBijection(t *testing.T) {
	jobs, total, err := BuildJobs(4, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	lb := NewLoadBalancer(4, 4, jobs, total)
	lb.RandomiseWorkList()

	inactive := lb.List().Inactive()
	var lengthsBefore uint64
	before := make([]string, len(inactive))
	for i := range inactive {
		inactive[i].PathLength = uint32((i * 7) % 13)
		inactive[i].R = float32(i)
		inactive[i].SampleCount = uint32(i + 1)
		lengthsBefore += uint64(inactive[i].PathLength)
		before[i] = recordKey(inactive[i])
	}

	lb.AllocateWorkByPathLength()

	var lengthsAfter uint64
	after := make([]string, len(inactive))
	for i := range inactive {
		lengthsAfter += uint64(inactive[i].PathLength)
		after[i] = recordKey(inactive[i])
	}

	if lengthsBefore != lengthsAfter {
		t.Errorf("path length total changed: %d -> %d", lengthsBefore, lengthsAfter)
	}

	sort.Strings(before)
	sort.Strings(after)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("record multiset changed at %d: %s vs %s", i, before[i], after[i])
		}
	}
}

func TestAllocateWorkByPathLengthOddJobSize(t *testing.T) {
	// 6 pixels in 2 jobs of 3 records each: jobs fill up mid-round, and the
	// remaining records must drain into the job with room rather than spill
	// past a full job's span.
	jobs, total, err := BuildJobs(6, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if total != 6 || jobs[0].Count != 3 {
		t.Fatalf("unexpected partition: total=%d perJob=%d", total, jobs[0].Count)
	}
	lb := NewLoadBalancer(6, 1, jobs, total)
	lb.RandomiseWorkList()

	inactive := lb.List().Inactive()
	before := make([]string, len(inactive))
	for i := range inactive {
		inactive[i].PathLength = uint32(i)
		before[i] = recordKey(inactive[i])
	}

	lb.AllocateWorkByPathLength()

	after := make([]string, len(inactive))
	for i := range inactive {
		after[i] = recordKey(inactive[i])
	}
	sort.Strings(before)
	sort.Strings(after)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("record multiset changed at %d: %s vs %s", i, before[i], after[i])
		}
	}

	// Every slot in each job's span was rewritten: no stale trailing slots.
	seen := map[[2]uint16]int{}
	for _, job := range jobs {
		for _, r := range job.Records(inactive) {
			seen[[2]uint16{r.U, r.V}]++
		}
	}
	for coord, n := range seen {
		if n != 1 {
			t.Errorf("coordinate %v assigned %d times", coord, n)
		}
	}
}

func TestAllocateWorkByPathLengthPairsExtremes(t *testing.T) {
	jobs, total, err := BuildJobs(4, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	lb := NewLoadBalancer(4, 2, jobs, total)
	lb.RandomiseWorkList()

	inactive := lb.List().Inactive()
	for i := range inactive {
		inactive[i].PathLength = uint32(i)
	}

	lb.AllocateWorkByPathLength()

	// First round: job 0 takes the shortest and longest, job 1 the next pair.
	if inactive[jobs[0].Offset].PathLength != 0 || inactive[jobs[0].Offset+1].PathLength != 7 {
		t.Errorf("job 0 first pair: got (%d,%d), want (0,7)",
			inactive[jobs[0].Offset].PathLength, inactive[jobs[0].Offset+1].PathLength)
	}
	if inactive[jobs[1].Offset].PathLength != 1 || inactive[jobs[1].Offset+1].PathLength != 6 {
		t.Errorf("job 1 first pair: got (%d,%d), want (1,6)",
			inactive[jobs[1].Offset].PathLength, inactive[jobs[1].Offset+1].PathLength)
	}
}

func TestClearAccumulators(t *testing.T) {
	jobs, total, err := BuildJobs(2, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	lb := NewLoadBalancer(2, 2, jobs, total)
	lb.RandomiseWorkList()

	inactive := lb.List().Inactive()
	for i := range inactive {
		inactive[i].AddSample(core.NewVec3(1, 2, 3), 4)
	}

	lb.ClearInactiveAccumulators()
	for i := range inactive {
		r := inactive[i]
		if r.R != 0 || r.G != 0 || r.B != 0 || r.SampleCount != 0 || r.PathLength != 0 {
			t.Fatalf("record %d not cleared: %+v", i, r)
		}
	}
	// Coordinates survive a clear.
	if inactive[3].U != 1 || inactive[3].V != 1 {
		t.Errorf("clear disturbed coordinates: got (%d,%d)", inactive[3].U, inactive[3].V)
	}
}

func TestAddSample(t *testing.T) {
	var r TraceRecord
	r.AddSample(core.NewVec3(0.5, 0.25, 0.125), 3)
	r.AddSample(core.NewVec3(0.5, 0.25, 0.125), 5)

	if r.R != 1 || r.G != 0.5 || r.B != 0.25 {
		t.Errorf("colour: got (%g,%g,%g)", r.R, r.G, r.B)
	}
	if r.SampleCount != 2 {
		t.Errorf("sample count: got %d, want 2", r.SampleCount)
	}
	if r.PathLength != 8 {
		t.Errorf("path length: got %d, want 8", r.PathLength)
	}
}

func TestSumInactivePathSegments(t *testing.T) {
	jobs, total, err := BuildJobs(3, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	lb := NewLoadBalancer(3, 3, jobs, total)
	lb.RandomiseWorkList()

	inactive := lb.List().Inactive()
	for i := range inactive {
		inactive[i].PathLength = 5
	}

	// Padding records do not count, whatever their fields say.
	if got := lb.SumInactivePathSegments(); got != 45 {
		t.Errorf("path segment total: got %d, want 45", got)
	}
}
