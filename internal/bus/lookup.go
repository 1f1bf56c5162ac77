package bus

import "strings"

// findSimilar returns the name of a registered agent whose name or role
// contains text, case-insensitively. Ties break lexicographically so repeated
// lookups are deterministic. Returns "" when nothing matches.
func findSimilar(text string, agents map[string]Registrant) string {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return ""
	}

	best := ""
	for name, a := range agents {
		if !strings.Contains(strings.ToLower(name), needle) &&
			!strings.Contains(strings.ToLower(a.Role()), needle) {
			continue
		}
		if best == "" || name < best {
			best = name
		}
	}
	return best
}
