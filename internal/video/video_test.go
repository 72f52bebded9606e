package video

import (
	"context"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/effects"
	"github.com/ivlev/kenburns/internal/engine"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/renderer"
)

// skipIfNoFFmpeg skips the test unless ffmpeg with libx264 is available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil || !strings.Contains(string(out), "libx264") {
		t.Skip("ffmpeg has no libx264 encoder")
	}
}

func newTestEngine(t *testing.T) *FFmpegEngine {
	t.Helper()
	e, err := NewFFmpegEngine(Options{Encoder: "libx264", TempDir: t.TempDir(), Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func testDescriptor(t *testing.T) *effects.ClipDescriptor {
	t.Helper()
	kb := effects.NewKenBurns(effects.Settings{TargetWidth: 64, TargetHeight: 36, WorkingScale: 2, FPS: 10})
	desc, _, err := kb.Assemble(effects.ClipInput{
		Image:  geometry.ImageDescriptor{Width: 128, Height: 72},
		Points: []geometry.Point{geometry.Pt(10, 10), geometry.Pt(100, 60)},
		Zoom:   renderer.ZoomSettings{In: 3, Out: 1},
		Phases: director.DefaultPhases.Scaled(1),
	})
	require.NoError(t, err)
	return desc
}

func TestClipArgs(t *testing.T) {
	e := newTestEngine(t)
	desc := testDescriptor(t)
	input := engine.Artifact{Path: "/w/in.rgba", Width: 128, Height: 72}

	args := e.clipArgs(engine.ClipJob{Index: 0, Input: input, Descriptor: desc}, "/w/clip.mp4")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-progress pipe:2")
	assert.Contains(t, joined, "-f rawvideo -pixel_format rgba -video_size 128x72 -i /w/in.rgba")
	assert.Contains(t, joined, "-frames:v 10 -r 10")
	assert.Contains(t, joined, "-c:v libx264 -crf 23 -preset medium")
	assert.Equal(t, "/w/clip.mp4", args[len(args)-1])

	vf := args[indexOf(args, "-vf")+1]
	assert.Equal(t, desc.Filter(), vf)
	assert.True(t, strings.HasPrefix(vf, "scale=128:72:force_original_aspect_ratio=decrease"))
}

func TestTransitionArgs(t *testing.T) {
	e := newTestEngine(t)
	e.opts.Threads = 2

	args := e.transitionArgs(engine.TransitionJob{
		Index:    1,
		From:     engine.Artifact{Path: "a.mp4"},
		To:       engine.Artifact{Path: "b.mp4"},
		Kind:     "wipeleft",
		Duration: 0.5,
		Offset:   7.5,
	}, "ab.mp4")

	assert.Equal(t, "[0:v][1:v]xfade=transition=wipeleft:duration=0.500000:offset=7.500000[v]",
		args[indexOf(args, "-filter_complex")+1])
	assert.Equal(t, "[v]", args[indexOf(args, "-map")+1])
	assert.Equal(t, "2", args[indexOf(args, "-threads")+1])
	assert.Less(t, indexOf(args, "a.mp4"), indexOf(args, "b.mp4"))
}

func indexOf(args []string, s string) int {
	for i, a := range args {
		if a == s {
			return i
		}
	}
	return -1
}

func TestStreamProgress(t *testing.T) {
	stderr := strings.Join([]string{
		"frame=0",
		"out_time_us=N/A",
		"progress=continue",
		"frame=20",
		"out_time_us=2000000",
		"out_time_ms=2000000",
		"progress=continue",
		"[libx264 @ 0x1] using cpu capabilities: none!",
		"frame=80",
		"out_time_us=8000000",
		"progress=continue",
		"out_time_us=8100000",
		"progress=end",
	}, "\n")

	var got []float64
	output := streamProgress(strings.NewReader(stderr), 8, func(f float64) { got = append(got, f) })

	assert.Equal(t, []float64{0.25, 1, 1}, got)
	assert.Equal(t, []string{"[libx264 @ 0x1] using cpu capabilities: none!"}, output)
}

func TestStreamProgressKeepsTail(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("Error while filtering\n")
	}
	b.WriteString("Conversion failed!\n")

	output := streamProgress(strings.NewReader(b.String()), 0, nil)
	require.Len(t, output, maxOutputLines)
	assert.Equal(t, "Conversion failed!", output[len(output)-1])
}

func TestStageWritesRawRGBA(t *testing.T) {
	e := newTestEngine(t)
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	a, err := e.Stage(context.Background(), 4, img)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Width)
	assert.Equal(t, 2, a.Height)
	assert.Equal(t, e.Dir(), filepath.Dir(a.Path))
	assert.NotEmpty(t, a.ID)

	data, err := e.Read(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, data, 3*2*4)
	assert.Equal(t, []byte{1, 2, 3, 255}, data[len(data)-4:])

	require.NoError(t, e.Remove(context.Background(), a))
	assert.Error(t, e.Remove(context.Background(), a))
}

func TestCloseRemovesWorkDir(t *testing.T) {
	e, err := NewFFmpegEngine(Options{TempDir: t.TempDir()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(e.Dir()), "kenburns_"))

	require.NoError(t, e.Close())
	_, err = os.Stat(e.Dir())
	assert.True(t, os.IsNotExist(err))
}

func TestRenderAndMerge(t *testing.T) {
	skipIfNoFFmpeg(t)
	e := newTestEngine(t)
	ctx := context.Background()
	desc := testDescriptor(t)

	img := image.NewRGBA(image.Rect(0, 0, 128, 72))
	for x := 0; x < 128; x++ {
		img.Set(x, x%72, color.RGBA{R: 255, A: 255})
	}

	var clips []engine.Artifact
	for i := 0; i < 2; i++ {
		in, err := e.Stage(ctx, i, img)
		require.NoError(t, err)

		var last float64
		clip, err := e.RenderClip(ctx, engine.ClipJob{Index: i, Input: in, Descriptor: desc}, func(f float64) { last = f })
		require.NoError(t, err)
		assert.InDelta(t, 1.0, clip.Duration, 1e-9)
		assert.Equal(t, 1.0, last)
		clips = append(clips, clip)
	}

	merged, err := e.Transition(ctx, engine.TransitionJob{
		Index: 1, From: clips[0], To: clips[1], Kind: "fade", Duration: 0.2, Offset: 0.8,
	}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.8, merged.Duration, 1e-9)

	data, err := e.Read(ctx, merged)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
