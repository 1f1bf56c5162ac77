package config

import (
	"os"
	"path/filepath"
	"testing"
)

const rosterYAML = `
workers:
  - name: Alice
    specialty: architecture
  - name: Bob
    specialty: operations
    tags: [debate, ops-review]
`

func TestParseRoster(t *testing.T) {
	r, err := ParseRoster([]byte(rosterYAML))
	if err != nil {
		t.Fatalf("ParseRoster: %v", err)
	}
	if len(r.Workers) != 2 {
		t.Fatalf("workers = %d, want 2", len(r.Workers))
	}
	if r.Workers[0].Name != "Alice" || r.Workers[0].Specialty != "architecture" {
		t.Errorf("first worker = %+v", r.Workers[0])
	}
	if len(r.Workers[1].Tags) != 2 {
		t.Errorf("Bob's tags = %v, want two", r.Workers[1].Tags)
	}
}

func TestParseRosterRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "workers:\n  - specialty: x\n"},
		{"missing specialty", "workers:\n  - name: A\n"},
		{"duplicate name", "workers:\n  - name: A\n    specialty: x\n  - name: A\n    specialty: y\n"},
		{"malformed yaml", "workers: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRoster([]byte(tt.yaml)); err == nil {
				t.Error("expected an error, got none")
			}
		})
	}
}

func TestLoadRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(rosterYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(r.Workers) != 2 {
		t.Errorf("workers = %d, want 2", len(r.Workers))
	}

	if _, err := LoadRoster(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("loading a missing roster succeeded")
	}
}
