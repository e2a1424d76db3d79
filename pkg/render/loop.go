package render

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/mglow/go-tile-pathtracer/pkg/core"
	"github.com/mglow/go-tile-pathtracer/pkg/env"
	"github.com/mglow/go-tile-pathtracer/pkg/film"
	"github.com/mglow/go-tile-pathtracer/pkg/scene"
	"github.com/mglow/go-tile-pathtracer/pkg/trace"
	"github.com/mglow/go-tile-pathtracer/pkg/work"
)

// interactiveQuietLimit is the number of update-free iterations after which
// the reduced interactive sample rate reverts to the configured rate.
const interactiveQuietLimit = 5

// viewSnapshot is the configuration slice an iteration actually reads.
// Updates land here only between iterations.
type viewSnapshot struct {
	exposure    float64
	gamma       float64
	fovDegrees  float64
	envRotation float64 // radians
	stepSamples int
}

type hostTask struct {
	done chan struct{}
}

// Renderer drives the iterative pipeline. The orchestration methods are not
// safe for concurrent use; all cross-domain coordination happens through the
// worklist double buffer and the single in-flight host task.
type Renderer struct {
	cfg     Settings
	log     *slog.Logger
	tracer  oteltrace.Tracer
	scene   *scene.Scene
	channel InterfaceChannel

	camera Camera
	film   *film.AccumulatedImage
	light  env.Light

	jobs     []work.TraceJob
	listSize int
	balancer *work.LoadBalancer
	pool     *Pool
	state    *traceState

	rng *rand.Rand

	// filmMu guards the film and the generation counter against writes from
	// retired host tasks that outlive a restart.
	filmMu sync.Mutex
	gen    uint64

	inFlight *hostTask
	retired  []*hostTask

	view        viewSnapshot
	iteration   int
	samplesDone int
	startedAt   time.Time
	rebalanced  bool
	interactive bool
	quiet       int
}

// New builds a renderer. The interface channel may be nil for headless runs.
func New(cfg Settings, sc *scene.Scene, light env.Light, channel InterfaceChannel, log *slog.Logger) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jobs, listSize, err := work.BuildJobs(cfg.Width, cfg.Height, cfg.Jobs)
	if err != nil {
		return nil, err
	}
	pool, err := NewPool(cfg.Workers, jobs)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		cfg:      cfg,
		log:      log,
		tracer:   otel.Tracer("pathtracer/render"),
		scene:    sc,
		channel:  channel,
		camera:   NewCamera(cfg.Width, cfg.Height, cfg.FOV),
		film:     film.NewAccumulatedImage(cfg.Width, cfg.Height),
		light:    light,
		jobs:     jobs,
		listSize: listSize,
		balancer: work.NewLoadBalancer(cfg.Width, cfg.Height, jobs, listSize),
		pool:     pool,
		state:    newTraceState(listSize, cfg.MaxPathLength, jobs, cfg.Seed),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		view: viewSnapshot{
			exposure:    cfg.Exposure,
			gamma:       cfg.Gamma,
			fovDegrees:  cfg.FOV,
			envRotation: cfg.EnvRotation * math.Pi / 180,
			stepSamples: cfg.SamplesPerStep,
		},
	}
	return r, nil
}

// initWorkLists seeds both buffer sides with the canonical pixel assignment
func (r *Renderer) initWorkLists(lb *work.LoadBalancer) error {
	lb.RandomiseWorkList()
	if err := lb.List().Swap(); err != nil {
		return fmt.Errorf("initialising worklists: %w", err)
	}
	lb.RandomiseWorkList()
	return nil
}

// Run executes the render loop until the sample budget is reached, a stop is
// requested, or the context is cancelled. In-flight background work is
// always drained before returning.
func (r *Renderer) Run(ctx context.Context) error {
	if err := r.initWorkLists(r.balancer); err != nil {
		return err
	}
	r.startedAt = time.Now()
	r.log.Info("render started",
		"width", r.cfg.Width, "height", r.cfg.Height,
		"jobs", len(r.jobs), "workers", r.pool.Workers(),
		"samples", r.cfg.Samples)

	var runErr error
	for {
		if ctx.Err() != nil {
			r.log.Info("render cancelled")
			break
		}
		stop, err := r.applyPendingUpdates()
		if err != nil {
			runErr = err
			break
		}
		if stop {
			r.log.Info("stop requested")
			break
		}
		if r.cfg.Samples > 0 && r.samplesDone >= r.cfg.Samples {
			r.log.Info("sample budget reached", "samplesPerPixel", r.samplesDone)
			break
		}
		if err := r.runIteration(ctx); err != nil {
			runErr = err
			break
		}
	}

	r.drainTasks()
	if runErr != nil {
		return runErr
	}
	return r.saveFinal()
}

// runIteration traces one step's worth of samples for every active record,
// swaps the buffers, and hands the finished records to a background task.
func (r *Renderer) runIteration(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "iteration",
		oteltrace.WithAttributes(attribute.Int("iteration", r.iteration)))
	defer span.End()

	iterStart := time.Now()
	r.state.clearTallies()
	FillUniformNoise(r.state.noise, r.rng)
	r.state.resetSamplers(r.jobs, r.cfg.MaxPathLength)

	for pass := 0; pass < r.view.stepSamples; pass++ {
		r.tracePass(ctx)
		if err := r.resolveEscaped(ctx); err != nil {
			return err
		}
		r.accumulatePass(ctx)
	}

	// The previous host task owns what is about to become the active buffer;
	// a swap before it finishes would race.
	r.awaitInFlight()
	if err := r.balancer.List().Swap(); err != nil {
		return fmt.Errorf("iteration %d: %w", r.iteration, err)
	}

	paths, segments := r.state.sumTallies()
	elapsed := time.Since(iterStart).Seconds()
	stats := Stats{
		Iteration:       r.iteration,
		SamplesPerPixel: r.samplesDone + r.view.stepSamples,
		ElapsedSecs:     time.Since(r.startedAt).Seconds(),
	}
	if elapsed > 0 {
		stats.PathsPerSec = float64(paths) / elapsed
		stats.RaysPerSec = float64(segments) / elapsed
	}

	iterationsTotal.Inc()
	pathsTotal.Add(float64(paths))
	pathSegmentsTotal.Add(float64(segments))
	pathsPerSecond.Set(stats.PathsPerSec)
	raysPerSecond.Set(stats.RaysPerSec)

	r.iteration++
	r.samplesDone += r.view.stepSamples
	r.spawnHostTask(stats)

	r.log.Debug("iteration complete",
		"iteration", stats.Iteration,
		"pathsPerSec", int64(stats.PathsPerSec),
		"raysPerSec", int64(stats.RaysPerSec))
	return nil
}

// tracePass fills one contribution stack per active record
func (r *Renderer) tracePass(ctx context.Context) {
	_, span := r.tracer.Start(ctx, "trace")
	defer span.End()

	st := r.state
	active := r.balancer.List().Active()
	cam := r.camera
	rotation := r.view.envRotation
	params := trace.Params{
		RouletteDepth:   r.cfg.RouletteDepth,
		StopProb:        r.cfg.StopProb,
		RefractiveIndex: r.cfg.RefractiveIndex,
	}

	r.pool.RunPhase(func(_ int, job work.TraceJob) {
		sampler := st.samplers[job.Index]
		jitterRng := st.jitter[job.Index]
		records := job.Records(active)
		for i := range records {
			slot := job.Offset + i
			rec := &records[i]
			st.escaped[slot] = false
			if rec.IsPadding() {
				st.stacks[slot].Clear()
				continue
			}

			jx, jy := AAJitter(r.cfg.AANoiseType, r.cfg.AANoiseScale, jitterRng)
			ray := cam.GenerateRay(int(rec.U), int(rec.V), core.NewVec2(jx, jy))
			trace.TracePath(ray, r.scene, sampler, st.stacks[slot], params)

			if top := st.stacks[slot].Top(); top.Type == trace.Escaped {
				st.escaped[slot] = true
				st.uvs[slot] = env.DirectionToUV(top.Color, rotation)
			}
		}
	})
}

// resolveEscaped gathers every escaped ray's UV into one batch, performs a
// single environment lookup, and substitutes the radiance back into the
// stacks. One lookup per pass is a hard requirement of the lighting backend.
func (r *Renderer) resolveEscaped(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "environment_lookup")
	defer span.End()

	st := r.state
	st.batchUVs = st.batchUVs[:0]
	st.batchSlots = st.batchSlots[:0]
	for slot, esc := range st.escaped {
		if esc {
			st.batchUVs = append(st.batchUVs, st.uvs[slot])
			st.batchSlots = append(st.batchSlots, slot)
		}
	}
	if len(st.batchUVs) == 0 {
		return nil
	}

	st.batchOut = st.batchOut[:len(st.batchUVs)]
	if err := r.light.LookupBatch(st.batchUVs, st.batchOut); err != nil {
		return fmt.Errorf("environment lookup: %w", err)
	}
	for i, slot := range st.batchSlots {
		trace.ResolveEscaped(st.stacks[slot], st.batchOut[i])
	}

	span.SetAttributes(attribute.Int("escaped", len(st.batchUVs)))
	escapedRaysTotal.Add(float64(len(st.batchUVs)))
	return nil
}

// accumulatePass composes every stack and folds the results into the active
// records
func (r *Renderer) accumulatePass(ctx context.Context) {
	_, span := r.tracer.Start(ctx, "accumulate")
	defer span.End()

	st := r.state
	active := r.balancer.List().Active()
	r.pool.RunPhase(func(_ int, job work.TraceJob) {
		records := job.Records(active)
		var paths, segments int64
		for i := range records {
			rec := &records[i]
			if rec.IsPadding() {
				continue
			}
			color, depth := trace.Accumulate(st.stacks[job.Offset+i])
			rec.AddSample(color, depth)
			paths++
			segments += int64(depth)
		}
		st.jobPaths[job.Index] += paths
		st.jobSegments[job.Index] += segments
	})
}

// spawnHostTask starts the single background task for the just-swapped
// inactive records: film accumulation, preview, the one-shot rebalance, and
// periodic saves. At most one task is in flight at a time.
func (r *Renderer) spawnHostTask(stats Stats) {
	gen := r.gen
	lb := r.balancer
	channel := r.channel
	view := r.view
	iteration := r.iteration
	rebalance := r.cfg.LoadBalancing && !r.rebalanced
	if rebalance {
		r.rebalanced = true
	}

	task := &hostTask{done: make(chan struct{})}
	r.inFlight = task

	go func() {
		defer close(task.done)
		_, span := r.tracer.Start(context.Background(), "host_task",
			oteltrace.WithAttributes(attribute.Int("iteration", iteration)))
		defer span.End()

		var preview *image.RGBA
		r.filmMu.Lock()
		if r.gen == gen {
			r.film.Accumulate(lb.List().Inactive())
			if channel != nil {
				preview = r.film.UpdateLdrImage(view.exposure, view.gamma)
			}
			if r.cfg.SaveInterval > 0 && iteration%r.cfg.SaveInterval == 0 {
				if err := r.film.SaveImages(r.cfg.OutFile, view.exposure, view.gamma); err != nil {
					r.log.Warn("periodic save failed", "error", err)
				}
			}
		}
		r.filmMu.Unlock()

		if rebalance {
			// Path statistics now cover a full iteration; redistribute and
			// reset so the reassigned slots start clean. Takes effect when
			// this buffer swaps back in.
			lb.AllocateWorkByPathLength()
			lb.ClearInactiveAccumulators()
		}

		if preview != nil {
			if !channel.PublishPreview(preview) {
				previewDropsTotal.Inc()
			}
			channel.PublishStats(stats)
		}
	}()
}

func (r *Renderer) awaitInFlight() {
	if r.inFlight != nil {
		<-r.inFlight.done
		r.inFlight = nil
	}
}

// drainTasks waits for the in-flight task and every retired task. Background
// work is never cancelled, only awaited.
func (r *Renderer) drainTasks() {
	r.awaitInFlight()
	for _, t := range r.retired {
		<-t.done
	}
	r.retired = nil
}

// applyPendingUpdates snapshots queued interface changes and applies them at
// this iteration boundary. Exposure and gamma are host-side and take effect
// without restarting; changes that alter traced content restart the render.
func (r *Renderer) applyPendingUpdates() (stop bool, err error) {
	if r.channel == nil {
		return false, nil
	}

	u := r.channel.PendingUpdates()
	if u.Empty() {
		r.quiet++
		if r.interactive && r.quiet >= interactiveQuietLimit {
			r.interactive = false
			r.view.stepSamples = r.cfg.SamplesPerStep
			r.log.Debug("interactive window expired, restoring step samples",
				"stepSamples", r.view.stepSamples)
		}
		return false, nil
	}

	r.quiet = 0
	if u.Stop {
		return true, nil
	}
	if u.Detach {
		r.log.Info("interface detached, continuing non-interactive")
		r.channel = nil
		r.interactive = false
		r.view.stepSamples = r.cfg.SamplesPerStep
	} else if r.cfg.InteractiveSamples > 0 {
		r.interactive = true
		r.view.stepSamples = r.cfg.InteractiveSamples
	}

	if u.InteractiveSamples != nil && *u.InteractiveSamples > 0 {
		r.cfg.InteractiveSamples = *u.InteractiveSamples
	}
	if u.Exposure != nil {
		r.view.exposure = *u.Exposure
	}
	if u.Gamma != nil && *u.Gamma > 0 {
		r.view.gamma = *u.Gamma
	}

	restart := false
	if u.FOV != nil && *u.FOV > 0 && *u.FOV < 180 {
		r.view.fovDegrees = *u.FOV
		r.camera = NewCamera(r.cfg.Width, r.cfg.Height, *u.FOV)
		restart = true
	}
	if u.EnvRotation != nil {
		r.view.envRotation = *u.EnvRotation * math.Pi / 180
		restart = true
	}
	if u.EnvMapPath != nil {
		m, loadErr := env.LoadMap(*u.EnvMapPath)
		if loadErr != nil {
			// Recoverable: keep lighting with the previous environment.
			r.log.Warn("environment reload failed, keeping previous",
				"path", *u.EnvMapPath, "error", loadErr)
		} else {
			r.light = m
			restart = true
			r.log.Info("environment map loaded", "path", *u.EnvMapPath)
		}
	}

	if restart {
		if err := r.restart(); err != nil {
			return false, err
		}
	}
	return false, nil
}

// restart throws away accumulated radiance after a change that invalidates
// it. If a host task is still draining the old worklist, the old state is
// retired wholesale and fresh buffers are built so the task keeps sole
// ownership until it finishes.
func (r *Renderer) restart() error {
	restartsTotal.Inc()

	r.filmMu.Lock()
	r.gen++
	r.film.Reset()
	r.filmMu.Unlock()

	if r.inFlight != nil {
		r.retired = append(r.retired, r.inFlight)
		r.inFlight = nil
		r.balancer = work.NewLoadBalancer(r.cfg.Width, r.cfg.Height, r.jobs, r.listSize)
		r.state = newTraceState(r.listSize, r.cfg.MaxPathLength, r.jobs, r.cfg.Seed)
		if err := r.initWorkLists(r.balancer); err != nil {
			return err
		}
	} else {
		r.balancer.ClearActiveAccumulators()
		r.balancer.ClearInactiveAccumulators()
	}

	r.iteration = 0
	r.samplesDone = 0
	r.rebalanced = false
	r.startedAt = time.Now()
	r.log.Info("render restarted")
	return nil
}

func (r *Renderer) saveFinal() error {
	r.filmMu.Lock()
	defer r.filmMu.Unlock()
	if err := r.film.SaveImages(r.cfg.OutFile, r.view.exposure, r.view.gamma); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	r.log.Info("render saved", "base", r.cfg.OutFile,
		"samplesPerPixel", r.samplesDone,
		"elapsedSecs", time.Since(r.startedAt).Seconds())
	return nil
}
