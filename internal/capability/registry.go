// Package capability maintains an explicit registry of agent capability
// tags. Components that need participants with a given skill query the
// registry by tag pattern instead of probing agents for method names.
package capability

import (
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// Well-known tags.
const (
	TagDebate = "debate"
	TagVote   = "vote"
	TagWorker = "worker"
)

// Registry maps agent names to their declared capability tags.
// It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	tags map[string][]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tags: make(map[string][]string)}
}

// Declare records tags for an agent, replacing any previous declaration.
// Tags are lowercased.
func (r *Registry) Declare(agentName string, tags ...string) {
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			normalized = append(normalized, t)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[agentName] = normalized
}

// Remove drops an agent's declaration.
func (r *Registry) Remove(agentName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tags, agentName)
}

// Tags returns the declared tags of an agent.
func (r *Registry) Tags(agentName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.tags[agentName]...)
}

// Find returns the sorted names of agents with at least one tag matching the
// glob pattern (e.g. "debate", "task-*"). An invalid pattern matches nothing.
func (r *Registry) Find(pattern string) []string {
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, tags := range r.tags {
		for _, t := range tags {
			if g.Match(t) {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// Has reports whether the agent declares the exact tag.
func (r *Registry) Has(agentName, tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tags[agentName] {
		if t == strings.ToLower(tag) {
			return true
		}
	}
	return false
}

// Agents returns every registered agent name, sorted.
func (r *Registry) Agents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tags))
	for name := range r.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
