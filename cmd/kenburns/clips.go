package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/kenburns/internal/director"
	"github.com/ivlev/kenburns/internal/effects"
	"github.com/ivlev/kenburns/internal/engine"
	"github.com/ivlev/kenburns/internal/renderer"
	"github.com/ivlev/kenburns/internal/source"
)

func sourceRefs(sc *director.Scenario) []source.Ref {
	refs := make([]source.Ref, len(sc.Clips))
	for i, c := range sc.Clips {
		refs[i] = source.Ref{Path: c.Input, Page: c.Page}
	}
	return refs
}

// buildClips pairs every scenario clip with its decoded image.
func buildClips(sc *director.Scenario, loaded []source.Loaded, defaults director.PhaseDurations) []engine.Clip {
	clips := make([]engine.Clip, len(sc.Clips))
	for i, c := range sc.Clips {
		clips[i] = engine.Clip{
			Image: loaded[i].Image,
			Input: effects.ClipInput{
				Name:   clipName(c),
				Image:  loaded[i].Descriptor,
				Points: c.Points(),
				Zoom:   renderer.ZoomSettings{In: c.ZoomIn, Out: c.ZoomOut},
				Phases: c.PhaseDurations(defaults),
			},
		}
	}
	return clips
}

func clipName(c director.Clip) string {
	name := fmt.Sprintf("%02d_%s", c.ID, strings.TrimSuffix(filepath.Base(c.Input), filepath.Ext(c.Input)))
	if strings.EqualFold(filepath.Ext(c.Input), ".pdf") {
		name += fmt.Sprintf("_p%d", c.Page+1)
	}
	return name
}

// defaultOutput names the video after the scenario file, as output/<name>_<time>.mp4.
func defaultOutput(scenarioPath string, now time.Time) string {
	base := filepath.Base(scenarioPath)
	name := strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "_")
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", name, now.Format("2006-01-02_15-04-05")))
}

// writeTemplate creates a starter run file in dir.
func writeTemplate(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	sc := &director.Scenario{
		Version: "1",
		Clips: []director.Clip{{
			ID:      1,
			Input:   "../input/photo.jpg",
			Anchors: []director.Anchor{{X: 400, Y: 300}, {X: 1500, Y: 800}},
			ZoomIn:  4,
			ZoomOut: 1.5,
		}, {
			ID:       2,
			Input:    "../input/slides.pdf",
			Page:     0,
			Anchors:  []director.Anchor{{X: 200, Y: 200}, {X: 1200, Y: 1400}},
			ZoomIn:   3,
			ZoomOut:  1,
			Duration: 6,
		}},
	}
	path := director.GenerateScenarioPath(dir)
	return path, director.WriteScenario(sc, path)
}
