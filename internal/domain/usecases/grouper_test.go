package usecases

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
)

func TestGrouper_MergesSamePath(t *testing.T) {
	g := NewGrouper(10)
	groups := g.Group([]entities.RawCandidate{
		{Title: "docker.md", Content: "part one", Path: "Knowledge/docker.md"},
		{Title: "docker.md", Content: "part two", Path: "Knowledge/docker.md"},
	})

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Fragments != 2 {
		t.Errorf("expected 2 fragments, got %d", groups[0].Fragments)
	}
	if groups[0].Content != "part one\n\npart two" {
		t.Errorf("unexpected merged content: %q", groups[0].Content)
	}
}

func TestGrouper_PreservesFirstSeenOrder(t *testing.T) {
	g := NewGrouper(10)
	groups := g.Group([]entities.RawCandidate{
		{Title: "b", Content: "x", Path: "b"},
		{Title: "a", Content: "y", Path: "a"},
		{Title: "b", Content: "z", Path: "b"},
	})

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Path != "b" || groups[1].Path != "a" {
		t.Errorf("unexpected order: %s, %s", groups[0].Path, groups[1].Path)
	}
}

func TestGrouper_CapOpensNewGroup(t *testing.T) {
	g := NewGrouper(2)
	var candidates []entities.RawCandidate
	for i := 0; i < 5; i++ {
		candidates = append(candidates, entities.RawCandidate{
			Title:   "doc",
			Content: fmt.Sprintf("fragment %d", i),
			Path:    "doc",
		})
	}
	groups := g.Group(candidates)

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups (2+2+1), got %d", len(groups))
	}
	wantCounts := []int{2, 2, 1}
	for i, want := range wantCounts {
		if groups[i].Fragments != want {
			t.Errorf("group %d: fragments = %d, want %d", i, groups[i].Fragments, want)
		}
	}
	// Overflow lands in the newest group, not the capped one.
	if !strings.Contains(groups[2].Content, "fragment 4") {
		t.Errorf("last group missing final fragment: %q", groups[2].Content)
	}
}

func TestGrouper_NeverExceedsCap(t *testing.T) {
	g := NewGrouper(3)
	var candidates []entities.RawCandidate
	for i := 0; i < 50; i++ {
		candidates = append(candidates, entities.RawCandidate{
			Title:   "doc",
			Content: "text",
			Path:    fmt.Sprintf("doc-%d", i%4),
		})
	}
	for _, group := range g.Group(candidates) {
		if group.Fragments > 3 {
			t.Fatalf("group for %s has %d fragments, cap is 3", group.Path, group.Fragments)
		}
	}
}

func TestGrouper_DropsEmptyCandidates(t *testing.T) {
	g := NewGrouper(10)
	groups := g.Group([]entities.RawCandidate{
		{Title: "", Content: "", Path: "empty"},
		{Title: "keep", Content: "text", Path: "keep"},
	})

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Path != "keep" {
		t.Errorf("wrong group kept: %s", groups[0].Path)
	}
}

func TestGrouper_TitleFallsBackAsContent(t *testing.T) {
	g := NewGrouper(10)
	groups := g.Group([]entities.RawCandidate{
		{Title: "only a title.md", Content: "", Path: "p"},
	})

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Content != "only a title.md" {
		t.Errorf("content should fall back to title, got %q", groups[0].Content)
	}
}

func TestGrouper_NoCandidates(t *testing.T) {
	g := NewGrouper(10)
	if groups := g.Group(nil); len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}
