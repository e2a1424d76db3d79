package work

import "fmt"

// TraceJob identifies one worker-sized partition of a worklist. Each job owns
// a contiguous, uniformly-sized span of records; workers never touch records
// outside their assigned jobs.
type TraceJob struct {
	Index  int
	Offset int // first record slot in the worklist
	Count  int // record slots owned by this job
}

// Records returns the job's span of a worklist buffer
func (j TraceJob) Records(list []TraceRecord) []TraceRecord {
	return list[j.Offset : j.Offset+j.Count]
}

// BuildJobs partitions a width x height image into numJobs jobs of identical
// record count. When the pixel count does not divide evenly the trailing
// slots are reserved for sentinel padding. Returns the jobs and the total
// worklist size.
func BuildJobs(width, height, numJobs int) ([]TraceJob, int, error) {
	if width <= 0 || height <= 0 {
		return nil, 0, fmt.Errorf("image dimensions must be positive, got %dx%d", width, height)
	}
	if numJobs <= 0 {
		return nil, 0, fmt.Errorf("job count must be positive, got %d", numJobs)
	}

	pixels := width * height
	perJob := (pixels + numJobs - 1) / numJobs
	jobs := make([]TraceJob, numJobs)
	for i := range jobs {
		jobs[i] = TraceJob{Index: i, Offset: i * perJob, Count: perJob}
	}
	return jobs, numJobs * perJob, nil
}
