package render

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	iterationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathtracer_iterations_total",
		Help: "Completed render iterations.",
	})

	pathsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathtracer_paths_total",
		Help: "Camera paths traced.",
	})

	pathSegmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathtracer_path_segments_total",
		Help: "Ray segments traced across all paths.",
	})

	pathsPerSecond = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pathtracer_paths_per_second",
		Help: "Path throughput of the most recent iteration.",
	})

	raysPerSecond = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pathtracer_rays_per_second",
		Help: "Ray segment throughput of the most recent iteration.",
	})

	escapedRaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathtracer_escaped_rays_total",
		Help: "Paths that left the scene and were lit by the environment.",
	})

	restartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathtracer_restarts_total",
		Help: "Full render restarts triggered by configuration changes.",
	})

	previewDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathtracer_preview_drops_total",
		Help: "Preview frames dropped because the interface channel was busy.",
	})
)
