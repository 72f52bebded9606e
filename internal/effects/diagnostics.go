package effects

import (
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/kenburns/internal/geometry"
)

// Diagnostics records every intermediate value of a clip computation,
// rounded for reading.
type Diagnostics struct {
	Clip          string      `yaml:"clip"`
	SourceWidth   int         `yaml:"source_width"`
	SourceHeight  int         `yaml:"source_height"`
	Scale         float64     `yaml:"scale"`
	PadX          float64     `yaml:"pad_x"`
	PadY          float64     `yaml:"pad_y"`
	WorkingWidth  int         `yaml:"working_width"`
	WorkingHeight int         `yaml:"working_height"`
	BorderX       int         `yaml:"border_x"`
	BorderY       int         `yaml:"border_y"`
	RenderWidth   int         `yaml:"render_width"`
	RenderHeight  int         `yaml:"render_height"`
	ZoomIn        float64     `yaml:"zoom_in"`
	ZoomOut       float64     `yaml:"zoom_out"`
	ZoomScale     float64     `yaml:"zoom_scale"`
	Original      [2]XY       `yaml:"anchors_original"`
	Working       [2]XY       `yaml:"anchors_working"`
	Render        [2]XY       `yaml:"anchors_render"`
	FPS           int         `yaml:"fps"`
	Frames        int         `yaml:"frames"`
	Duration      float64     `yaml:"duration"`
	Phases        []PhaseInfo `yaml:"phases"`
}

type XY struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type PhaseInfo struct {
	Name    string  `yaml:"name"`
	Seconds float64 `yaml:"seconds"`
	Start   int     `yaml:"start_frame"`
	End     int     `yaml:"end_frame"`
}

func newDiagnostics(in ClipInput, d *ClipDescriptor, original, working geometry.AnchorPair, precision int) Diagnostics {
	r := func(v float64) float64 { return round(v, precision) }
	xy := func(pair geometry.AnchorPair) [2]XY {
		return [2]XY{
			{X: r(pair.Start.X), Y: r(pair.Start.Y)},
			{X: r(pair.End.X), Y: r(pair.End.Y)},
		}
	}

	diag := Diagnostics{
		Clip:          in.Name,
		SourceWidth:   in.Image.Width,
		SourceHeight:  in.Image.Height,
		Scale:         r(d.Transform.Scale),
		PadX:          r(d.Transform.PadX),
		PadY:          r(d.Transform.PadY),
		WorkingWidth:  d.WorkingWidth,
		WorkingHeight: d.WorkingHeight,
		BorderX:       d.Transform.BorderX,
		BorderY:       d.Transform.BorderY,
		RenderWidth:   d.RenderWidth,
		RenderHeight:  d.RenderHeight,
		ZoomIn:        r(d.Zoom.In),
		ZoomOut:       r(d.Zoom.Out),
		ZoomScale:     r(d.ZoomScale()),
		Original:      xy(original),
		Working:       xy(working),
		Render:        xy(d.Anchors),
		FPS:           d.FPS,
		Frames:        d.FrameCount,
		Duration:      r(d.Duration()),
	}
	for _, p := range d.Timeline.Phases {
		diag.Phases = append(diag.Phases, PhaseInfo{
			Name:    p.Kind.String(),
			Seconds: r(p.Seconds),
			Start:   p.StartFrame,
			End:     p.EndFrame,
		})
	}
	return diag
}

func round(v float64, precision int) float64 {
	p := math.Pow10(precision)
	return math.Round(v*p) / p
}

// MarshalZerologObject lets a Diagnostics record be embedded in a log event.
func (d Diagnostics) MarshalZerologObject(e *zerolog.Event) {
	e.Str("clip", d.Clip).
		Str("source", fmt.Sprintf("%dx%d", d.SourceWidth, d.SourceHeight)).
		Float64("scale", d.Scale).
		Float64("pad_x", d.PadX).
		Float64("pad_y", d.PadY).
		Str("working", fmt.Sprintf("%dx%d", d.WorkingWidth, d.WorkingHeight)).
		Int("border_x", d.BorderX).
		Int("border_y", d.BorderY).
		Str("render", fmt.Sprintf("%dx%d", d.RenderWidth, d.RenderHeight)).
		Float64("zoom_in", d.ZoomIn).
		Float64("zoom_out", d.ZoomOut).
		Floats64("anchor1", []float64{d.Original[0].X, d.Original[0].Y, d.Working[0].X, d.Working[0].Y, d.Render[0].X, d.Render[0].Y}).
		Floats64("anchor2", []float64{d.Original[1].X, d.Original[1].Y, d.Working[1].X, d.Working[1].Y, d.Render[1].X, d.Render[1].Y}).
		Int("frames", d.Frames).
		Float64("duration", d.Duration)
}

// WriteDiagnostics writes the records of a run to a YAML file.
func WriteDiagnostics(path string, diags []Diagnostics) error {
	data, err := yaml.Marshal(struct {
		Clips []Diagnostics `yaml:"clips"`
	}{diags})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
