package renderer

import (
	"fmt"

	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/errs"
	"github.com/ivlev/kenburns/internal/geometry"
)

// MinZoomIn is the smallest accepted close-up magnification.
const MinZoomIn = 2.0

// MaxZoomPanZoom is the largest zoom ffmpeg's zoompan filter applies; larger
// values are clipped silently.
const MaxZoomPanZoom = 10.0

// ZoomSettings are the close-up and wide magnifications of a clip.
type ZoomSettings struct {
	In  float64
	Out float64
}

// Validate enforces In >= 2 and 1 <= Out <= In. In == Out is a pan-only clip.
func (z ZoomSettings) Validate() error {
	if !(z.In >= MinZoomIn) {
		return fmt.Errorf("%w: zoom-in %v is below %v", errs.ErrInvalidZoom, z.In, MinZoomIn)
	}
	if !(z.Out >= 1) || z.Out > z.In {
		return fmt.Errorf("%w: zoom-out %v must be within [1, %v]", errs.ErrInvalidZoom, z.Out, z.In)
	}
	return nil
}

// Motion holds zoom and pan centre as functions of the frame index.
// Pan coordinates are in render-input space.
type Motion struct {
	Zoom Piecewise
	PanX Piecewise
	PanY Piecewise
}

// BuildMotion lays the zoom and pan paths over the timeline. Zoom changes only
// during zoom-out and zoom-in, position changes only during pan.
func BuildMotion(tl director.PhaseTimeline, anchors geometry.AnchorPair, z ZoomSettings) Motion {
	a, b := anchors.Start, anchors.End

	var m Motion
	for _, ph := range tl.Phases {
		seg := func(from, to float64) Segment {
			return Segment{Start: ph.StartFrame, End: ph.EndFrame, From: from, To: to}
		}

		switch ph.Kind {
		case director.HoldStart:
			m.Zoom = append(m.Zoom, seg(z.In, z.In))
			m.PanX = append(m.PanX, seg(a.X, a.X))
			m.PanY = append(m.PanY, seg(a.Y, a.Y))
		case director.ZoomOut:
			m.Zoom = append(m.Zoom, seg(z.In, z.Out))
			m.PanX = append(m.PanX, seg(a.X, a.X))
			m.PanY = append(m.PanY, seg(a.Y, a.Y))
		case director.Pan:
			m.Zoom = append(m.Zoom, seg(z.Out, z.Out))
			m.PanX = append(m.PanX, seg(a.X, b.X))
			m.PanY = append(m.PanY, seg(a.Y, b.Y))
		case director.ZoomIn:
			m.Zoom = append(m.Zoom, seg(z.Out, z.In))
			m.PanX = append(m.PanX, seg(b.X, b.X))
			m.PanY = append(m.PanY, seg(b.Y, b.Y))
		case director.HoldEnd:
			m.Zoom = append(m.Zoom, seg(z.In, z.In))
			m.PanX = append(m.PanX, seg(b.X, b.X))
			m.PanY = append(m.PanY, seg(b.Y, b.Y))
		}
	}
	return m
}
