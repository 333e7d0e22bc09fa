package skillscan

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the optional skill.yaml descriptor at a skill's root.
type Manifest struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

// LoadManifest reads dir/skill.yaml. Absence is not an error; the
// boolean reports whether a usable manifest was found.
func LoadManifest(dir string) (Manifest, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "skill.yaml"))
	if err != nil {
		return Manifest{}, false
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, false
	}
	return m, m.Name != ""
}

// skillName resolves the display name for a skill directory: the
// manifest name when present, the directory basename otherwise.
func skillName(dir string) string {
	if m, ok := LoadManifest(dir); ok {
		return m.Name
	}
	return filepath.Base(dir)
}
