package render

import "image"

// ConfigUpdate is a batch of pending interface changes. The render loop
// snapshots and clears it once per iteration boundary; nil fields mean "no
// change".
type ConfigUpdate struct {
	EnvRotation        *float64 // degrees
	Exposure           *float64 // stops
	Gamma              *float64
	FOV                *float64 // degrees
	EnvMapPath         *string
	InteractiveSamples *int
	Stop               bool
	Detach             bool
}

// Empty reports whether the update changes nothing
func (u ConfigUpdate) Empty() bool {
	return u.EnvRotation == nil && u.Exposure == nil && u.Gamma == nil &&
		u.FOV == nil && u.EnvMapPath == nil && u.InteractiveSamples == nil &&
		!u.Stop && !u.Detach
}

// Stats summarises one iteration for telemetry consumers
type Stats struct {
	Iteration       int     `json:"iteration"`
	SamplesPerPixel int     `json:"samplesPerPixel"`
	PathsPerSec     float64 `json:"pathsPerSec"`
	RaysPerSec      float64 `json:"raysPerSec"`
	ElapsedSecs     float64 `json:"elapsedSecs"`
}

// InterfaceChannel is the optional bidirectional link to a remote viewer.
// Publishing must never block the render loop: a slow consumer costs preview
// cadence, not trace throughput.
type InterfaceChannel interface {
	// PendingUpdates atomically snapshots and clears queued changes.
	PendingUpdates() ConfigUpdate
	// PublishPreview offers a tone-mapped frame; returns false if dropped.
	PublishPreview(img *image.RGBA) bool
	// PublishStats offers throughput telemetry; best effort.
	PublishStats(s Stats)
}
