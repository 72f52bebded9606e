// Package geometry maps anchor points between the three coordinate spaces a
// clip passes through: the source image, the fixed-size working canvas and
// the render-input canvas with its overscan border.
package geometry

import (
	"fmt"
	"math"

	"github.com/ivlev/kenburns/internal/errs"
)

// Space names the coordinate frame a Point belongs to.
type Space int

const (
	Original Space = iota
	Working
	RenderInput
)

func (s Space) String() string {
	switch s {
	case Original:
		return "original"
	case Working:
		return "working"
	case RenderInput:
		return "render-input"
	default:
		return fmt.Sprintf("space(%d)", int(s))
	}
}

// Point is a pixel coordinate tagged with its space.
type Point struct {
	X     float64
	Y     float64
	Space Space
}

// Pt returns a point in original-image space.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y, Space: Original}
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f)@%s", p.X, p.Y, p.Space)
}

// ImageDescriptor holds the natural size of a source image.
type ImageDescriptor struct {
	Width  int
	Height int
}

func (d ImageDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: source image is %dx%d", errs.ErrInvalidGeometry, d.Width, d.Height)
	}
	return nil
}

// Contains reports whether p lies inside [0,w)x[0,h).
func (d ImageDescriptor) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < float64(d.Width) && p.Y < float64(d.Height)
}

// AnchorPair is the start and end focus of the pan, in original space.
type AnchorPair struct {
	Start Point
	End   Point
}

// NewAnchorPair checks that exactly two in-bounds original-space points were
// selected on img.
func NewAnchorPair(img ImageDescriptor, points []Point) (AnchorPair, error) {
	if len(points) != 2 {
		return AnchorPair{}, fmt.Errorf("%w: need exactly 2 points, got %d", errs.ErrInvalidAnchors, len(points))
	}
	for i, p := range points {
		if p.Space != Original {
			return AnchorPair{}, fmt.Errorf("%w: point %d is in %s space", errs.ErrInvalidAnchors, i+1, p.Space)
		}
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || !img.Contains(p) {
			return AnchorPair{}, fmt.Errorf("%w: point %d %s outside %dx%d", errs.ErrInvalidAnchors, i+1, p, img.Width, img.Height)
		}
	}
	return AnchorPair{Start: points[0], End: points[1]}, nil
}
