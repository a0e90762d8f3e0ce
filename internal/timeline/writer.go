package timeline

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Artifact is the serialized form of a computed timeline, written next to
// the rendered video for debugging and reused as a test fixture.
type Artifact struct {
	Version  string    `yaml:"version"`
	Script   string    `yaml:"script"`
	Timeline *Timeline `yaml:"timeline"`
}

// WriteArtifact writes a timeline artifact to a YAML file.
func WriteArtifact(a *Artifact, path string) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadArtifact reads a timeline artifact from a YAML file.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
