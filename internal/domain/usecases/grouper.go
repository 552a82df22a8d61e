package usecases

import "github.com/gikalabs/localsearch-go/internal/domain/entities"

// DefaultFragmentCap bounds how many fragments merge into one group.
const DefaultFragmentCap = 10

// Grouper deduplicates raw retrieval candidates into per-source groups.
type Grouper struct {
	cap int
}

// NewGrouper creates a Grouper with the given fragment cap per group.
func NewGrouper(cap int) *Grouper {
	if cap <= 0 {
		cap = DefaultFragmentCap
	}
	return &Grouper{cap: cap}
}

// Group merges candidates in retrieval order, preserving the first-seen
// order of distinct source paths. A candidate joins the latest group for
// its path while that group holds fewer fragments than the cap; once the
// group is capped, the next fragment for the same path opens a fresh
// group. A source exceeding its cap therefore yields multiple groups -
// intentional repetition-tolerant behavior, not deduplication slippage.
// Candidates lacking both content and title are dropped.
func (g *Grouper) Group(candidates []entities.RawCandidate) []entities.SourceGroup {
	var groups []entities.SourceGroup
	latest := make(map[string]int) // path -> index of its most recent group

	for _, c := range candidates {
		text := c.Content
		if text == "" {
			text = c.Title
		}
		if text == "" {
			continue
		}

		if idx, ok := latest[c.Path]; ok && groups[idx].Fragments < g.cap {
			groups[idx].Content += "\n\n" + text
			groups[idx].Fragments++
			continue
		}

		groups = append(groups, entities.SourceGroup{
			Path:      c.Path,
			Title:     c.Title,
			Content:   text,
			Fragments: 1,
		})
		latest[c.Path] = len(groups) - 1
	}

	return groups
}
