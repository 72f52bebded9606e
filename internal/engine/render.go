package engine

import (
	"context"
	"image"

	"github.com/ivlev/kenburns/internal/effects"
)

// Artifact is a handle to a file owned by the render engine.
type Artifact struct {
	ID       string
	Path     string
	Width    int
	Height   int
	Duration float64 // seconds, 0 for staged inputs
}

// ProgressFunc receives the completed fraction (0..1) of the operation in flight.
type ProgressFunc func(fraction float64)

// ClipJob asks the engine to render one clip from a staged input.
type ClipJob struct {
	Index      int
	Input      Artifact
	Descriptor *effects.ClipDescriptor
}

// TransitionJob asks the engine to crossfade From into To. Offset is the time
// into From at which the transition starts.
type TransitionJob struct {
	Index    int
	From     Artifact
	To       Artifact
	Kind     string
	Duration float64
	Offset   float64
}

// RenderEngine is the external encoder. It runs one operation at a time and
// the pipeline never calls it concurrently.
type RenderEngine interface {
	Stage(ctx context.Context, index int, img image.Image) (Artifact, error)
	RenderClip(ctx context.Context, job ClipJob, progress ProgressFunc) (Artifact, error)
	Transition(ctx context.Context, job TransitionJob, progress ProgressFunc) (Artifact, error)
	Read(ctx context.Context, a Artifact) ([]byte, error)
	Remove(ctx context.Context, a Artifact) error
}
