package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Roster declares the stock workers a process registers at startup.
type Roster struct {
	Workers []RosterWorker `yaml:"workers"`
}

// RosterWorker is one worker entry in a roster file.
type RosterWorker struct {
	// Name is the worker's unique bus name
	Name string `yaml:"name"`
	// Specialty is the worker's declared role
	Specialty string `yaml:"specialty"`
	// Tags are the capability tags declared for the worker; empty means the
	// default tags
	Tags []string `yaml:"tags"`
}

// LoadRoster reads and validates a YAML roster file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}
	return ParseRoster(data)
}

// ParseRoster decodes and validates roster YAML.
func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}

	seen := make(map[string]bool, len(r.Workers))
	for i, w := range r.Workers {
		if w.Name == "" {
			return nil, fmt.Errorf("roster worker %d has no name", i)
		}
		if seen[w.Name] {
			return nil, fmt.Errorf("roster worker %q declared twice", w.Name)
		}
		seen[w.Name] = true
		if w.Specialty == "" {
			return nil, fmt.Errorf("roster worker %q has no specialty", w.Name)
		}
	}
	return &r, nil
}
