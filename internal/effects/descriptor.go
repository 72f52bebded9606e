package effects

import (
	"fmt"

	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/renderer"
)

// ClipDescriptor is the declarative per-frame transform of one clip, as
// consumed by the render engine. Treat it as immutable.
type ClipDescriptor struct {
	Name string

	Transform geometry.Transform
	Anchors   geometry.AnchorPair // render-input space
	Zoom      renderer.ZoomSettings
	Timeline  director.PhaseTimeline
	Motion    renderer.Motion

	FrameCount   int
	FPS          int
	TargetWidth  int
	TargetHeight int

	WorkingWidth  int
	WorkingHeight int
	RenderWidth   int
	RenderHeight  int
}

// Duration is the configured clip length in seconds.
func (d *ClipDescriptor) Duration() float64 {
	return d.Timeline.Duration()
}

// ZoomScale converts working-canvas zoom into render-input zoom. The render
// canvas keeps the working aspect ratio, so the factor holds for both axes.
func (d *ClipDescriptor) ZoomScale() float64 {
	return float64(d.RenderWidth) / float64(d.WorkingWidth)
}

// Filter returns the FFmpeg filter chain for the clip: fit the source into
// the working canvas, add the overscan border, then zoompan down to the
// target resolution.
func (d *ClipDescriptor) Filter() string {
	aspectFilter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		d.WorkingWidth, d.WorkingHeight, d.WorkingWidth, d.WorkingHeight,
	)
	borderFilter := fmt.Sprintf("pad=%d:%d:%d:%d",
		d.RenderWidth, d.RenderHeight, d.Transform.BorderX, d.Transform.BorderY)
	zoomFilter := renderer.GenerateZoomPanFilter(d.Motion, d.ZoomScale(), d.FrameCount, d.TargetWidth, d.TargetHeight, d.FPS)

	return fmt.Sprintf("%s,%s,%s,setsar=1", aspectFilter, borderFilter, zoomFilter)
}
