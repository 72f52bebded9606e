package system

import (
	"image"
	"image/draw"
	"sync"
)

// FramePool reuses raw RGBA frame buffers, keyed by frame size, to keep
// staging of large source images off the garbage collector.
type FramePool struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex
}

func NewFramePool() *FramePool {
	return &FramePool{pools: make(map[image.Point]*sync.Pool)}
}

func (p *FramePool) pool(size image.Point) *sync.Pool {
	p.mu.RLock()
	pool, ok := p.pools[size]
	p.mu.RUnlock()
	if ok {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok = p.pools[size]; !ok {
		rect := image.Rectangle{Max: size}
		pool = &sync.Pool{New: func() any { return image.NewRGBA(rect) }}
		p.pools[size] = pool
	}
	return pool
}

// Get returns a frame with bounds (0,0)-size. Its content is undefined.
func (p *FramePool) Get(size image.Point) *image.RGBA {
	return p.pool(size).Get().(*image.RGBA)
}

// Put hands a frame obtained from Get back to the pool.
func (p *FramePool) Put(frame *image.RGBA) {
	if frame == nil {
		return
	}
	p.mu.RLock()
	pool, ok := p.pools[frame.Rect.Size()]
	p.mu.RUnlock()
	if ok {
		pool.Put(frame)
	}
}

// Packed returns img as tightly packed RGBA rows starting at (0,0). Images
// already in that layout are returned as is with release a no-op; otherwise
// the pixels are copied into a pooled frame that release gives back.
func (p *FramePool) Packed(img image.Image) (frame *image.RGBA, release func()) {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == b.Dx()*4 {
		return rgba, func() {}
	}

	frame = p.Get(b.Size())
	draw.Draw(frame, frame.Rect, img, b.Min, draw.Src)
	return frame, func() { p.Put(frame) }
}
