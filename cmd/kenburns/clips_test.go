package main

import (
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/geometry"
	"github.com/ivlev/kenburns/internal/renderer"
	"github.com/ivlev/kenburns/internal/source"
)

func TestBuildClips(t *testing.T) {
	sc := &director.Scenario{Clips: []director.Clip{
		{ID: 1, Input: "/in/slides.pdf", Page: 2, Anchors: []director.Anchor{{X: 1, Y: 2}, {X: 3, Y: 4}}, ZoomIn: 4, ZoomOut: 1.5},
		{ID: 2, Input: "/in/photo.jpg", Anchors: []director.Anchor{{X: 5, Y: 6}, {X: 7, Y: 8}}, ZoomIn: 3, ZoomOut: 3, Duration: 4},
	}}
	refs := sourceRefs(sc)
	assert.Equal(t, []source.Ref{{Path: "/in/slides.pdf", Page: 2}, {Path: "/in/photo.jpg"}}, refs)

	loaded := []source.Loaded{
		{Image: image.NewRGBA(image.Rect(0, 0, 10, 10)), Descriptor: geometry.ImageDescriptor{Width: 10, Height: 10}},
		{Image: image.NewRGBA(image.Rect(0, 0, 20, 10)), Descriptor: geometry.ImageDescriptor{Width: 20, Height: 10}},
	}
	clips := buildClips(sc, loaded, director.DefaultPhases)
	require.Len(t, clips, 2)

	assert.Equal(t, "01_slides_p3", clips[0].Input.Name)
	assert.Equal(t, renderer.ZoomSettings{In: 4, Out: 1.5}, clips[0].Input.Zoom)
	assert.Equal(t, []geometry.Point{geometry.Pt(1, 2), geometry.Pt(3, 4)}, clips[0].Input.Points)
	assert.Equal(t, director.DefaultPhases, clips[0].Input.Phases)

	assert.Equal(t, "02_photo", clips[1].Input.Name)
	assert.Equal(t, geometry.ImageDescriptor{Width: 20, Height: 10}, clips[1].Input.Image)
	assert.InDelta(t, 4.0, clips[1].Input.Phases.Total(), 1e-9)
	assert.Same(t, loaded[1].Image, clips[1].Image)
}

func TestDefaultOutput(t *testing.T) {
	now := time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, filepath.Join("output", "city_tour_2026-03-01_14-05-09.mp4"), defaultOutput("scenarios/city tour.yaml", now))
}

func TestWriteTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := writeTemplate(dir)
	require.NoError(t, err)

	latest, err := director.FindLatestScenario(dir)
	require.NoError(t, err)
	assert.Equal(t, path, latest)

	sc, err := director.ReadScenario(path)
	require.NoError(t, err)
	require.Len(t, sc.Clips, 2)
	assert.Equal(t, filepath.Join(dir, "../input/photo.jpg"), sc.Clips[0].Input)
	assert.Len(t, sc.Clips[1].Points(), 2)
}
