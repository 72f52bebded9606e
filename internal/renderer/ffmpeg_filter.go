package renderer

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is a linear piece over the frame range [Start, End).
// A constant piece has From == To.
type Segment struct {
	Start int
	End   int
	From  float64
	To    float64
}

// At evaluates the segment at frame f. The denominator is the segment length,
// so At(End) would equal To and the next segment continues from there.
func (s Segment) At(f int) float64 {
	if s.From == s.To || s.End <= s.Start {
		return s.From
	}
	return s.From + (s.To-s.From)*float64(f-s.Start)/float64(s.End-s.Start)
}

// Piecewise is a function of the integer frame index made of contiguous
// segments in frame order.
type Piecewise []Segment

// At evaluates the function at frame f. Frames before the first segment take
// its start value, frames after the last take its end value.
func (p Piecewise) At(f int) float64 {
	if len(p) == 0 {
		return 0
	}
	if f < p[0].Start {
		return p[0].From
	}
	for _, s := range p {
		if f < s.End {
			return s.At(f)
		}
	}
	return p[len(p)-1].To
}

// Scale multiplies every value of the function by k.
func (p Piecewise) Scale(k float64) Piecewise {
	out := make(Piecewise, len(p))
	for i, s := range p {
		s.From *= k
		s.To *= k
		out[i] = s
	}
	return out
}

// Expr renders the function as an FFmpeg expression over variable v:
// if(lt(v,end0),seg0,if(lt(v,end1),seg1,...,segN))
func (p Piecewise) Expr(v string) string {
	if len(p) == 0 {
		return "0"
	}

	var b strings.Builder
	for _, s := range p[:len(p)-1] {
		fmt.Fprintf(&b, "if(lt(%s,%d),%s,", v, s.End, segmentExpr(s, v))
	}
	b.WriteString(segmentExpr(p[len(p)-1], v))
	b.WriteString(strings.Repeat(")", len(p)-1))
	return b.String()
}

func segmentExpr(s Segment, v string) string {
	if s.From == s.To || s.End <= s.Start {
		return num(s.From)
	}
	// from+(to-from)*(v-start)/frames
	return fmt.Sprintf("%s+(%s)*(%s-%d)/%d", num(s.From), num(s.To-s.From), v, s.Start, s.End-s.Start)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// GenerateZoomPanFilter creates the FFmpeg zoompan filter for a planned motion.
// zoomScale converts zoom relative to the working canvas into zoom relative to
// the zoompan input (the render-input canvas), so that iw/zoom is the window
// width on the working canvas.
func GenerateZoomPanFilter(m Motion, zoomScale float64, frames, width, height, fps int) string {
	zoomExpr := m.Zoom.Scale(zoomScale).Expr("on")
	xExpr := fmt.Sprintf("round(%s-iw/zoom/2)", m.PanX.Expr("on"))
	yExpr := fmt.Sprintf("round(%s-ih/zoom/2)", m.PanY.Expr("on"))

	return fmt.Sprintf("zoompan=z='%s':x='%s':y='%s':d=%d:s=%dx%d:fps=%d",
		zoomExpr, xExpr, yExpr, frames, width, height, fps)
}
