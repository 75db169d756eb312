package service

import (
	"regexp"
	"sort"

	"github.com/cloo-solutions/loretexai/internal/domain"
)

var partSuffixPattern = regexp.MustCompile(`(?i)\s+-\s+part\s+\d+\s*$`)

// GroupEntriesByDocument partitions a working set into standalone entries and
// document groups. Every input entry lands in exactly one place: as a
// standalone, as a group's parent, or as a child within a group. A chunk
// whose parent is missing from the set is treated as standalone rather than
// dropped. Entries are referenced, never cloned.
func GroupEntriesByDocument(entries []*domain.Entry) domain.GroupedEntries {
	childrenByParent := make(map[string][]*domain.Entry)
	var roots []*domain.Entry
	rootIDs := make(map[string]struct{})

	for _, e := range entries {
		if e.IsChunk() {
			childrenByParent[e.ParentEntryID] = append(childrenByParent[e.ParentEntryID], e)
			continue
		}
		roots = append(roots, e)
		rootIDs[e.ID] = struct{}{}
	}

	var grouped domain.GroupedEntries
	for _, root := range roots {
		children := childrenByParent[root.ID]
		if len(children) == 0 {
			grouped.Standalone = append(grouped.Standalone, root)
			continue
		}
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].ChunkIndex < children[j].ChunkIndex
		})
		grouped.Documents = append(grouped.Documents, &domain.DocumentGroup{
			Parent:   root,
			Children: children,
		})
	}

	// Orphans go last, in input order.
	for _, e := range entries {
		if !e.IsChunk() {
			continue
		}
		if _, ok := rootIDs[e.ParentEntryID]; !ok {
			grouped.Standalone = append(grouped.Standalone, e)
		}
	}

	return grouped
}

// DisplayTitle returns the human-facing title for an entry, stripping a
// single trailing " - Part N" suffix left over from part-wise imports. The
// stored title is never modified.
func DisplayTitle(e *domain.Entry) string {
	return partSuffixPattern.ReplaceAllString(e.Title, "")
}
