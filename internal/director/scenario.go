package director

import (
	"github.com/ivlev/kenburns/internal/geometry"
)

// Scenario is a run file: the ordered clips of one output video
type Scenario struct {
	Version string `yaml:"version"`
	Clips   []Clip `yaml:"clips"`
}

// Clip describes one zoom-pan-zoom clip over a still image
type Clip struct {
	ID       int             `yaml:"id"`
	Input    string          `yaml:"input"`          // Image file or PDF
	Page     int             `yaml:"page,omitempty"` // PDF page, 0-based
	Anchors  []Anchor        `yaml:"anchors"`        // Start and end of the pan, source pixels
	ZoomIn   float64         `yaml:"zoom_in"`
	ZoomOut  float64         `yaml:"zoom_out"`
	Duration float64         `yaml:"duration,omitempty"` // Rescales the phases when set
	Phases   *PhaseDurations `yaml:"phases,omitempty"`
}

// Anchor is a point picked on the source image
type Anchor struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Points returns the anchors in original-image space
func (c Clip) Points() []geometry.Point {
	pts := make([]geometry.Point, len(c.Anchors))
	for i, a := range c.Anchors {
		pts[i] = geometry.Pt(a.X, a.Y)
	}
	return pts
}

// PhaseDurations resolves the clip's phase lengths against the run defaults
func (c Clip) PhaseDurations(defaults PhaseDurations) PhaseDurations {
	d := defaults
	if c.Phases != nil {
		d = *c.Phases
	}
	if c.Duration > 0 {
		d = d.Scaled(c.Duration)
	}
	return d
}
