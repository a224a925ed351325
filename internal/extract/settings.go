package extract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings control the extraction model and prompt. The zero value falls
// back to the built-in defaults.
type Settings struct {
	Model  string `yaml:"model"`
	Prompt string `yaml:"prompt"`
}

// LoadSettings reads an optional YAML settings file. An empty path returns
// default settings.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read extraction config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("parse extraction config: %w", err)
	}
	return s, nil
}
