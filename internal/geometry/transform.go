package geometry

import (
	"fmt"
	"math"

	"github.com/ivlev/kenburns/internal/errs"
)

// Fit places a source image inside the working canvas without distortion.
type Fit struct {
	Scale float64
	PadX  float64
	PadY  float64
}

// FitInto computes the uniform scale and centring padding for img on a
// workingW x workingH canvas.
func FitInto(img ImageDescriptor, workingW, workingH int) (Fit, error) {
	if err := img.Validate(); err != nil {
		return Fit{}, err
	}
	if workingW <= 0 || workingH <= 0 {
		return Fit{}, fmt.Errorf("%w: working canvas is %dx%d", errs.ErrInvalidGeometry, workingW, workingH)
	}

	scale := math.Min(float64(workingW)/float64(img.Width), float64(workingH)/float64(img.Height))
	return Fit{
		Scale: scale,
		PadX:  (float64(workingW) - float64(img.Width)*scale) / 2,
		PadY:  (float64(workingH) - float64(img.Height)*scale) / 2,
	}, nil
}

// Transform converts points between Original, Working and RenderInput space
// for one clip. It is a value and safe to share.
type Transform struct {
	Fit

	WorkingWidth  int
	WorkingHeight int

	// BorderX/BorderY is the overscan margin on each side of the working canvas.
	BorderX int
	BorderY int
}

// NewTransform fits img into the working canvas and sizes the overscan border
// so that a window of working/zoomOut pixels centred anywhere on the working
// canvas stays on the render-input canvas.
func NewTransform(img ImageDescriptor, workingW, workingH int, zoomOut float64) (Transform, error) {
	fit, err := FitInto(img, workingW, workingH)
	if err != nil {
		return Transform{}, err
	}
	return Transform{
		Fit:           fit,
		WorkingWidth:  workingW,
		WorkingHeight: workingH,
		BorderX:       borderFor(workingW, zoomOut),
		BorderY:       borderFor(workingH, zoomOut),
	}, nil
}

// borderFor rounds up so the padded canvas is never smaller than the window.
func borderFor(size int, zoomOut float64) int {
	return int(math.Ceil(float64(size) / (2 * math.Max(1, zoomOut))))
}

// RenderWidth and RenderHeight size the render-input canvas: the working
// canvas plus its border, grown at the right and bottom edges until the
// canvas has exactly the working aspect ratio. A single zoompan factor then
// gives the same window on both axes.
func (t Transform) RenderWidth() int {
	k, unitW, _ := t.renderUnits()
	return k * unitW
}

func (t Transform) RenderHeight() int {
	k, _, unitH := t.renderUnits()
	return k * unitH
}

func (t Transform) renderUnits() (k, unitW, unitH int) {
	g := gcd(t.WorkingWidth, t.WorkingHeight)
	unitW, unitH = t.WorkingWidth/g, t.WorkingHeight/g
	w, h := t.WorkingWidth+2*t.BorderX, t.WorkingHeight+2*t.BorderY
	k = max((w+unitW-1)/unitW, (h+unitH-1)/unitH)
	return k, unitW, unitH
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Convert re-expresses p in the target space. Conversions in both directions
// are supported so that paths can be checked by round trip.
func (t Transform) Convert(p Point, to Space) Point {
	for p.Space != to {
		if p.Space < to {
			p = t.up(p)
		} else {
			p = t.down(p)
		}
	}
	return p
}

func (t Transform) up(p Point) Point {
	switch p.Space {
	case Original:
		return Point{X: p.X*t.Scale + t.PadX, Y: p.Y*t.Scale + t.PadY, Space: Working}
	case Working:
		return Point{X: p.X + float64(t.BorderX), Y: p.Y + float64(t.BorderY), Space: RenderInput}
	}
	panic(fmt.Sprintf("geometry: no space above %s", p.Space))
}

func (t Transform) down(p Point) Point {
	switch p.Space {
	case RenderInput:
		return Point{X: p.X - float64(t.BorderX), Y: p.Y - float64(t.BorderY), Space: Working}
	case Working:
		return Point{X: (p.X - t.PadX) / t.Scale, Y: (p.Y - t.PadY) / t.Scale, Space: Original}
	}
	panic(fmt.Sprintf("geometry: no space below %s", p.Space))
}

// Anchors converts both anchors of a pair to the target space.
func (t Transform) Anchors(pair AnchorPair, to Space) AnchorPair {
	return AnchorPair{Start: t.Convert(pair.Start, to), End: t.Convert(pair.End, to)}
}
