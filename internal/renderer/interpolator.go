package renderer

import (
	"image"
	"math"
)

// CameraState represents the camera position and zoom at a specific frame
type CameraState struct {
	X    float64 // Pan centre X on the render-input canvas
	Y    float64 // Pan centre Y on the render-input canvas
	Zoom float64 // Magnification relative to the working canvas
}

// At evaluates the motion at frame f
func (m Motion) At(f int) CameraState {
	return CameraState{
		X:    m.PanX.At(f),
		Y:    m.PanY.At(f),
		Zoom: m.Zoom.At(f),
	}
}

// Window returns the visible region of the render-input canvas at frame f:
// a workingW/zoom x workingH/zoom box centred on the pan position, snapped to
// whole pixels.
func (m Motion) Window(f, workingW, workingH int) image.Rectangle {
	cam := m.At(f)
	if cam.Zoom <= 0 {
		cam.Zoom = 1
	}

	w := float64(workingW) / cam.Zoom
	h := float64(workingH) / cam.Zoom
	x := int(math.Round(cam.X - w/2))
	y := int(math.Round(cam.Y - h/2))

	return image.Rect(x, y, x+int(math.Round(w)), y+int(math.Round(h)))
}
