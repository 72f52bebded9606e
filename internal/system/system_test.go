package system

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		name     string
		encoders string
		want     string
	}{
		{"videotoolbox first", " V....D h264_nvenc\n V....D h264_videotoolbox\n", "h264_videotoolbox"},
		{"nvenc", " V....D libx264\n V....D h264_nvenc\n", "h264_nvenc"},
		{"software", " V....D libx264\n", "libx264"},
		{"no ffmpeg", "", "libx264"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickEncoder(tt.encoders))
		})
	}
}

func TestQualityArgs(t *testing.T) {
	assert.Equal(t, []string{"-b:v", "7500k"}, QualityArgs("h264_videotoolbox", DefaultQuality("h264_videotoolbox")))
	assert.Equal(t, []string{"-cq", "28"}, QualityArgs("h264_nvenc", DefaultQuality("h264_nvenc")))
	assert.Equal(t, []string{"-crf", "23", "-preset", "medium"}, QualityArgs("libx264", DefaultQuality("libx264")))
}

func TestDefaultWorkers(t *testing.T) {
	assert.Equal(t, 4, Snapshot{PhysicalCPUs: 4, MemoryFree: 8 << 30}.DefaultWorkers())
	assert.Equal(t, 2, Snapshot{PhysicalCPUs: 8, MemoryFree: 512 << 20}.DefaultWorkers())
	assert.Equal(t, 1, Snapshot{PhysicalCPUs: 8, MemoryFree: 1 << 20}.DefaultWorkers())
	assert.GreaterOrEqual(t, Snapshot{}.DefaultWorkers(), 1)
}

func TestTakeSnapshot(t *testing.T) {
	s, err := TakeSnapshot()
	if err != nil {
		t.Skipf("host figures unavailable: %v", err)
	}
	assert.Positive(t, s.LogicalCPUs)
	assert.Positive(t, s.MemoryTotal)
	assert.GreaterOrEqual(t, s.LogicalCPUs, s.PhysicalCPUs)
}

func TestFramePoolReuse(t *testing.T) {
	pool := NewFramePool()
	size := image.Pt(64, 32)

	frame := pool.Get(size)
	require.Equal(t, image.Rect(0, 0, 64, 32), frame.Rect)
	pool.Put(frame)

	// foreign sizes are dropped silently
	pool.Put(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	pool.Put(nil)

	again := pool.Get(size)
	assert.Equal(t, size, again.Rect.Size())
}

func TestPackedCopiesOnlyWhenNeeded(t *testing.T) {
	pool := NewFramePool()

	packed := image.NewRGBA(image.Rect(0, 0, 4, 2))
	frame, release := pool.Packed(packed)
	assert.Same(t, packed, frame)
	release()

	gray := image.NewGray(image.Rect(10, 10, 14, 12))
	gray.SetGray(10, 10, color.Gray{Y: 200})
	frame, release = pool.Packed(gray)
	defer release()

	assert.Equal(t, image.Rect(0, 0, 4, 2), frame.Rect)
	assert.Equal(t, 16, frame.Stride)
	assert.Equal(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, frame.RGBAAt(0, 0))
	assert.Len(t, frame.Pix, 4*2*4)
}
