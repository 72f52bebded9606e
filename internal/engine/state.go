package engine

import (
	"fmt"

	"github.com/ivlev/kenburns/internal/effects"
)

// State is the coarse position of a run in its state machine.
type State int

const (
	Idle State = iota
	RenderingClip
	Transitioning
	Finalizing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RenderingClip:
		return "rendering"
	case Transitioning:
		return "transitioning"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// Phase is a State plus the clip or fold step it applies to.
type Phase struct {
	State State
	Index int // clip index while rendering, fold step (1..n-1) while transitioning
	Clips int
}

func (p Phase) String() string {
	switch p.State {
	case RenderingClip:
		return fmt.Sprintf("rendering clip %d/%d", p.Index+1, p.Clips)
	case Transitioning:
		return fmt.Sprintf("transitioning %d→%d", p.Index, p.Index+1)
	default:
		return p.State.String()
	}
}

// PipelineState is owned by one run and discarded when it ends.
type PipelineState struct {
	Phase       Phase
	Descriptors []*effects.ClipDescriptor

	Inputs []Artifact // staged source images
	Clips  []Artifact // rendered clips, in order

	// Accumulator is the merged result so far; HasAccumulator is false until
	// the first clip is rendered.
	Accumulator    Artifact
	HasAccumulator bool

	RenderedDuration   float64 // sum of rendered clip durations
	CumulativeDuration float64 // duration of the accumulator

	Completed       int
	TotalOperations int
	Cause           error
}

// TotalOperations is one render per clip plus one transition per fold.
func TotalOperations(clips int) int {
	return clips + max(0, clips-1)
}
