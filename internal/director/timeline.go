package director

import (
	"fmt"
	"math"

	"github.com/ivlev/kenburns/internal/errs"
)

// PhaseKind is one of the five fixed-order segments of a clip.
type PhaseKind int

const (
	HoldStart PhaseKind = iota
	ZoomOut
	Pan
	ZoomIn
	HoldEnd
)

// PhaseCount is the number of phases in every clip.
const PhaseCount = 5

var phaseNames = [PhaseCount]string{"hold-start", "zoom-out", "pan", "zoom-in", "hold-end"}

func (k PhaseKind) String() string {
	if k < 0 || int(k) >= PhaseCount {
		return fmt.Sprintf("phase(%d)", int(k))
	}
	return phaseNames[k]
}

// PhaseDurations are the configured phase lengths in seconds.
type PhaseDurations struct {
	HoldStart float64 `yaml:"hold_start"`
	ZoomOut   float64 `yaml:"zoom_out"`
	Pan       float64 `yaml:"pan"`
	ZoomIn    float64 `yaml:"zoom_in"`
	HoldEnd   float64 `yaml:"hold_end"`
}

// DefaultPhases settle, zoom out, pan, zoom back in and settle over 8 seconds.
var DefaultPhases = PhaseDurations{
	HoldStart: 1.0,
	ZoomOut:   1.5,
	Pan:       3.0,
	ZoomIn:    1.5,
	HoldEnd:   1.0,
}

func (d PhaseDurations) seconds() [PhaseCount]float64 {
	return [PhaseCount]float64{d.HoldStart, d.ZoomOut, d.Pan, d.ZoomIn, d.HoldEnd}
}

// Total returns the clip length in seconds.
func (d PhaseDurations) Total() float64 {
	total := 0.0
	for _, s := range d.seconds() {
		total += s
	}
	return total
}

// Scaled stretches all phases proportionally so they sum to total.
func (d PhaseDurations) Scaled(total float64) PhaseDurations {
	cur := d.Total()
	if cur <= 0 || total <= 0 {
		return d
	}
	k := total / cur
	return PhaseDurations{
		HoldStart: d.HoldStart * k,
		ZoomOut:   d.ZoomOut * k,
		Pan:       d.Pan * k,
		ZoomIn:    d.ZoomIn * k,
		HoldEnd:   d.HoldEnd * k,
	}
}

// Phase is a half-open frame range [StartFrame, EndFrame).
type Phase struct {
	Kind       PhaseKind
	Seconds    float64
	StartFrame int
	EndFrame   int
}

// Frames is never less than 1 for a planned phase.
func (p Phase) Frames() int {
	return p.EndFrame - p.StartFrame
}

// PhaseTimeline is the frame plan of one clip.
type PhaseTimeline struct {
	FPS    int
	Phases [PhaseCount]Phase
}

func (t PhaseTimeline) Phase(k PhaseKind) Phase {
	return t.Phases[k]
}

func (t PhaseTimeline) TotalFrames() int {
	return t.Phases[PhaseCount-1].EndFrame
}

// Duration is the configured clip length in seconds.
func (t PhaseTimeline) Duration() float64 {
	total := 0.0
	for _, p := range t.Phases {
		total += p.Seconds
	}
	return total
}

// Plan divides the clip into its five phases at fps frames per second.
// Each phase gets round(seconds*fps) frames but at least one; the last phase
// absorbs rounding drift so the clip is exactly round(total*fps) frames.
func Plan(d PhaseDurations, fps int) (PhaseTimeline, error) {
	if fps <= 0 {
		return PhaseTimeline{}, fmt.Errorf("%w: fps must be positive, got %d", errs.ErrInvalidTimeline, fps)
	}
	secs := d.seconds()
	for i, s := range secs {
		if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return PhaseTimeline{}, fmt.Errorf("%w: %s duration %v", errs.ErrInvalidTimeline, PhaseKind(i), s)
		}
	}

	total := int(math.Round(d.Total() * float64(fps)))
	if total < PhaseCount {
		return PhaseTimeline{}, fmt.Errorf("%w: %.3fs at %d fps is %d frames, need at least %d",
			errs.ErrInvalidTimeline, d.Total(), fps, total, PhaseCount)
	}

	var frames [PhaseCount]int
	sum := 0
	for i, s := range secs {
		frames[i] = max(1, int(math.Round(s*float64(fps))))
		sum += frames[i]
	}

	last := PhaseCount - 1
	frames[last] += total - sum
	if deficit := 1 - frames[last]; deficit > 0 {
		// Clamped short phases overshot the total; take the excess back from
		// the latest phases that can spare it.
		frames[last] = 1
		for i := last - 1; i >= 0 && deficit > 0; i-- {
			take := min(frames[i]-1, deficit)
			frames[i] -= take
			deficit -= take
		}
	}

	tl := PhaseTimeline{FPS: fps}
	start := 0
	for i := range tl.Phases {
		tl.Phases[i] = Phase{
			Kind:       PhaseKind(i),
			Seconds:    secs[i],
			StartFrame: start,
			EndFrame:   start + frames[i],
		}
		start += frames[i]
	}
	return tl, nil
}
