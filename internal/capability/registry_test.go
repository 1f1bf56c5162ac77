package capability

import (
	"slices"
	"testing"
)

func TestDeclareAndFind(t *testing.T) {
	r := NewRegistry()
	r.Declare("Analyst", TagDebate, TagVote)
	r.Declare("Scribe", "summarize")
	r.Declare("Critic", "DEBATE") // normalized to lowercase

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"exact tag", "debate", []string{"Analyst", "Critic"}},
		{"glob pattern", "sum*", []string{"Scribe"}},
		{"no match", "plumbing", nil},
		{"invalid pattern matches nothing", "[", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Find(tt.pattern); !slices.Equal(got, tt.want) {
				t.Errorf("Find(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestDeclareReplacesPreviousTags(t *testing.T) {
	r := NewRegistry()
	r.Declare("a", TagDebate)
	r.Declare("a", TagWorker)

	if r.Has("a", TagDebate) {
		t.Error("old tag survived redeclaration")
	}
	if !r.Has("a", TagWorker) {
		t.Error("new tag missing")
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	r.Declare("a", TagDebate)
	r.Remove("a")

	if got := r.Find(TagDebate); len(got) != 0 {
		t.Errorf("Find after Remove = %v, want empty", got)
	}
	if got := r.Agents(); len(got) != 0 {
		t.Errorf("Agents after Remove = %v, want empty", got)
	}
}
