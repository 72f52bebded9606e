package director

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGenerateScenarioPath(t *testing.T) {
	path := GenerateScenarioPath("scenarios")

	if !strings.HasPrefix(path, filepath.Join("scenarios", "scenario_")) {
		t.Errorf("Path should be scenarios/scenario_*: %s", path)
	}
	if filepath.Ext(path) != ".yaml" {
		t.Errorf("Path should end with .yaml: %s", path)
	}

	t.Logf("Generated path: %s", path)
}

func TestFindLatestScenario(t *testing.T) {
	testDir := t.TempDir()

	files := []string{
		filepath.Join(testDir, "scenario_2026-02-12_10-00-00.yaml"),
		filepath.Join(testDir, "scenario_2026-02-13_01-00-00.yml"),
		filepath.Join(testDir, "scenario_2026-02-11_15-30-00.yaml"),
	}

	for i, f := range files {
		if err := os.WriteFile(f, []byte("version: \"1.0\"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(f, modTime, modTime)
	}
	os.WriteFile(filepath.Join(testDir, "notes.txt"), []byte("x"), 0644)

	latest, err := FindLatestScenario(testDir)
	if err != nil {
		t.Fatalf("FindLatestScenario failed: %v", err)
	}

	if latest != files[len(files)-1] {
		t.Errorf("Expected latest to be %s, got %s", files[len(files)-1], latest)
	}
}

func TestFindLatestScenarioEmpty(t *testing.T) {
	if _, err := FindLatestScenario(t.TempDir()); err == nil {
		t.Error("Expected error for empty directory")
	}
}
