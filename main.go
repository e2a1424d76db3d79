package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mglow/go-tile-pathtracer/pkg/core"
	"github.com/mglow/go-tile-pathtracer/pkg/env"
	"github.com/mglow/go-tile-pathtracer/pkg/render"
	"github.com/mglow/go-tile-pathtracer/pkg/scene"
	"github.com/mglow/go-tile-pathtracer/pkg/ui"
)

func main() {
	var cfg render.Settings
	flag.IntVar(&cfg.Width, "width", 512, "Image width in pixels")
	flag.IntVar(&cfg.Height, "height", 512, "Image height in pixels")
	flag.IntVar(&cfg.Samples, "samples", 256, "Total samples per pixel (0 renders until stopped)")
	flag.IntVar(&cfg.SamplesPerStep, "samples-per-step", 1, "Samples per pixel per iteration")
	flag.IntVar(&cfg.InteractiveSamples, "interactive-samples", 0, "Samples per step while interface updates arrive (0 disables)")
	flag.IntVar(&cfg.RouletteDepth, "roulette-depth", 3, "Bounce depth at which Russian roulette begins")
	flag.Float64Var(&cfg.StopProb, "stop-prob", 0.35, "Russian roulette stop probability")
	flag.IntVar(&cfg.MaxPathLength, "max-path-length", 12, "Maximum bounces per path")
	flag.Float64Var(&cfg.RefractiveIndex, "refractive-index", 1.5, "Index of refraction for glass surfaces")
	flag.Float64Var(&cfg.FOV, "fov", 40, "Horizontal field of view in degrees")
	flag.Float64Var(&cfg.AANoiseScale, "aa-noise-scale", 0.6, "Anti-aliasing jitter scale in pixels")
	flag.StringVar(&cfg.AANoiseType, "aa-noise-type", render.NoiseTruncatedNormal, "Anti-aliasing noise: uniform, normal, truncated-normal")
	flag.Float64Var(&cfg.Exposure, "exposure", 0, "Exposure in stops")
	flag.Float64Var(&cfg.Gamma, "gamma", 2.2, "Display gamma")
	flag.StringVar(&cfg.EnvMapPath, "env-map", "", "Equirectangular environment image (PNG or JPEG)")
	flag.Float64Var(&cfg.EnvRotation, "env-map-rotation", 0, "Environment azimuth rotation in degrees")
	flag.Float64Var(&cfg.AmbientLight, "ambient", 0.1, "Uniform environment radiance when no map is given")
	flag.Int64Var(&cfg.Seed, "seed", 1, "Random seed")
	flag.IntVar(&cfg.Jobs, "jobs", 64, "Worklist partitions")
	flag.IntVar(&cfg.Workers, "workers", 8, "Tracing workers (must divide jobs)")
	flag.BoolVar(&cfg.LoadBalancing, "enable-load-balancing", true, "Rebalance work by observed path length")
	flag.StringVar(&cfg.OutFile, "outfile", "render", "Output base name (writes <name>.png and <name>.pfm)")
	flag.IntVar(&cfg.SaveInterval, "save-interval", 32, "Iterations between periodic saves (0 disables)")
	uiAddr := flag.String("ui-addr", "", "Listen address for the remote interface (empty disables)")
	metricsAddr := flag.String("metrics-addr", "", "Listen address for Prometheus metrics (empty disables)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	log := newLogger(*logLevel)

	light, err := buildLight(cfg, log)
	if err != nil {
		log.Error("environment setup failed", "error", err)
		os.Exit(1)
	}

	var channel render.InterfaceChannel
	if *uiAddr != "" {
		server := ui.NewServer(log)
		channel = server
		go func() {
			if err := server.ListenAndServe(*uiAddr); err != nil {
				log.Error("interface server stopped", "error", err)
			}
		}()
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Info("metrics listening", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	renderer, err := render.New(cfg, scene.NewBoxScene(cfg.RefractiveIndex), light, channel, log)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := renderer.Run(ctx); err != nil {
		log.Error("render failed", "error", err)
		os.Exit(1)
	}
}

// buildLight loads the configured environment map, falling back to uniform
// ambient light when none is given. A map that fails to load at startup is
// fatal; reloads during rendering are recoverable instead.
func buildLight(cfg render.Settings, log *slog.Logger) (env.Light, error) {
	if cfg.EnvMapPath == "" {
		return env.Uniform{Radiance: core.NewVec3(cfg.AmbientLight, cfg.AmbientLight, cfg.AmbientLight)}, nil
	}
	m, err := env.LoadMap(cfg.EnvMapPath)
	if err != nil {
		return nil, err
	}
	log.Info("environment map loaded", "path", cfg.EnvMapPath)
	return m, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
