package director

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteScenario writes a scenario to a YAML file
func WriteScenario(scenario *Scenario, path string) error {
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScenario reads a scenario from a YAML file. Relative clip inputs are
// resolved against the directory of the scenario file.
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Clips) == 0 {
		return nil, fmt.Errorf("scenario %s has no clips", path)
	}

	base := filepath.Dir(path)
	for i := range scenario.Clips {
		c := &scenario.Clips[i]
		if c.ID == 0 {
			c.ID = i + 1
		}
		if c.Input != "" && !filepath.IsAbs(c.Input) {
			c.Input = filepath.Join(base, c.Input)
		}
	}

	return &scenario, nil
}
