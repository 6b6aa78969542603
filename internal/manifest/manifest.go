// Package manifest describes the agent's self-description, presented at
// bootstrap to the hub's /f/start/ and /f/claim/ endpoints (see
// internal/bootstrap).
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServiceRequirement names one service the agent needs a descriptor for.
// Key becomes the field name in the resolved ServiceDescriptors map.
type ServiceRequirement struct {
	Key      string `json:"key" yaml:"key"`
	Service  string `json:"service" yaml:"service"`
	Optional bool   `json:"optional" yaml:"optional"`
}

// Manifest is the agent's self-description, exchanged for service
// descriptors and a bearer token during bootstrap.
type Manifest struct {
	Identifier string               `json:"identifier" yaml:"identifier"`
	Version    string               `json:"version" yaml:"version"`
	Scopes     []string             `json:"scopes" yaml:"scopes"`
	Services   []ServiceRequirement `json:"services" yaml:"services"`
}

// Load reads a Manifest from a YAML file on disk. This is the file-based
// alternative to constructing a Manifest literal in code.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Identifier == "" {
		return nil, fmt.Errorf("manifest %s: identifier is required", path)
	}
	return &m, nil
}
