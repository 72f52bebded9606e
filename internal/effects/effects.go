package effects

import (
	"fmt"

	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/errs"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/renderer"
)

// Effect turns one clip request into a render-ready descriptor.
type Effect interface {
	Assemble(in ClipInput) (*ClipDescriptor, Diagnostics, error)
}

// ClipInput is what the caller collected for one clip.
type ClipInput struct {
	Name   string
	Image  geometry.ImageDescriptor
	Points []geometry.Point // original-image space
	Zoom   renderer.ZoomSettings
	Phases director.PhaseDurations
}

// Settings are shared by every clip of a run.
type Settings struct {
	TargetWidth  int
	TargetHeight int
	WorkingScale int // working canvas = target * WorkingScale
	FPS          int
	Precision    int // decimals kept in Diagnostics, 3 when zero
}

// KenBurns builds zoom-out, pan, zoom-in clips.
type KenBurns struct {
	Settings Settings
}

func NewKenBurns(s Settings) *KenBurns {
	if s.WorkingScale <= 0 {
		s.WorkingScale = 1
	}
	if s.Precision <= 0 {
		s.Precision = 3
	}
	return &KenBurns{Settings: s}
}

// Assemble validates the input, then transforms the anchors, plans the
// timeline and builds the motion. Nothing is computed for invalid input.
func (k *KenBurns) Assemble(in ClipInput) (*ClipDescriptor, Diagnostics, error) {
	s := k.Settings

	if len(in.Points) != 2 {
		return nil, Diagnostics{}, fmt.Errorf("%w: need exactly 2 points, got %d", errs.ErrInvalidAnchors, len(in.Points))
	}
	if err := in.Zoom.Validate(); err != nil {
		return nil, Diagnostics{}, err
	}
	if err := in.Image.Validate(); err != nil {
		return nil, Diagnostics{}, err
	}
	pair, err := geometry.NewAnchorPair(in.Image, in.Points)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	tl, err := director.Plan(in.Phases, s.FPS)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	workingW, workingH := s.TargetWidth*s.WorkingScale, s.TargetHeight*s.WorkingScale
	tr, err := geometry.NewTransform(in.Image, workingW, workingH, in.Zoom.Out)
	if err != nil {
		return nil, Diagnostics{}, err
	}

	// zoompan works on the bordered canvas, so the close-up is scaled up by it.
	zoomScale := float64(tr.RenderWidth()) / float64(workingW)
	if peak := in.Zoom.In * zoomScale; peak > renderer.MaxZoomPanZoom {
		return nil, Diagnostics{}, fmt.Errorf("%w: zoom-in %v needs zoompan zoom %.3f, limit is %v (zoom-in at most %.3f with zoom-out %v)",
			errs.ErrInvalidZoom, in.Zoom.In, peak, renderer.MaxZoomPanZoom, renderer.MaxZoomPanZoom/zoomScale, in.Zoom.Out)
	}

	working := tr.Anchors(pair, geometry.Working)
	render := tr.Anchors(pair, geometry.RenderInput)

	desc := &ClipDescriptor{
		Name:          in.Name,
		Transform:     tr,
		Anchors:       render,
		Zoom:          in.Zoom,
		Timeline:      tl,
		Motion:        renderer.BuildMotion(tl, render, in.Zoom),
		FrameCount:    tl.TotalFrames(),
		FPS:           s.FPS,
		TargetWidth:   s.TargetWidth,
		TargetHeight:  s.TargetHeight,
		WorkingWidth:  workingW,
		WorkingHeight: workingH,
		RenderWidth:   tr.RenderWidth(),
		RenderHeight:  tr.RenderHeight(),
	}

	return desc, newDiagnostics(in, desc, pair, working, s.Precision), nil
}
