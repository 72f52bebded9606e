package director

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/kenburns/internal/geometry"
)

func TestScenarioWriteRead(t *testing.T) {
	dir := t.TempDir()
	scenario := &Scenario{
		Version: "1.0",
		Clips: []Clip{
			{
				Input:   "beach.jpg",
				Anchors: []Anchor{{X: 100, Y: 100}, {X: 1800, Y: 900}},
				ZoomIn:  6,
				ZoomOut: 2,
			},
			{
				ID:       7,
				Input:    "/abs/deck.pdf",
				Page:     2,
				Anchors:  []Anchor{{X: 10, Y: 20}, {X: 30, Y: 40}},
				ZoomIn:   3,
				ZoomOut:  1,
				Duration: 4,
			},
		},
	}

	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, WriteScenario(scenario, path))

	got, err := ReadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "1.0", got.Version)
	require.Len(t, got.Clips, 2)
	assert.Equal(t, 1, got.Clips[0].ID)
	assert.Equal(t, filepath.Join(dir, "beach.jpg"), got.Clips[0].Input)
	assert.Equal(t, 7, got.Clips[1].ID)
	assert.Equal(t, "/abs/deck.pdf", got.Clips[1].Input)
	assert.Equal(t, 2, got.Clips[1].Page)
	assert.Equal(t, []geometry.Point{geometry.Pt(10, 20), geometry.Pt(30, 40)}, got.Clips[1].Points())
}

func TestReadScenarioWithoutClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, WriteScenario(&Scenario{Version: "1.0"}, path))

	_, err := ReadScenario(path)
	assert.Error(t, err)
}

func TestClipPhaseDurations(t *testing.T) {
	assert.Equal(t, DefaultPhases, Clip{}.PhaseDurations(DefaultPhases))

	custom := PhaseDurations{1, 1, 1, 1, 1}
	assert.Equal(t, custom, Clip{Phases: &custom}.PhaseDurations(DefaultPhases))

	scaled := Clip{Duration: 16}.PhaseDurations(DefaultPhases)
	assert.InDelta(t, 16.0, scaled.Total(), 1e-9)
	assert.InDelta(t, 6.0, scaled.Pan, 1e-9)
}
