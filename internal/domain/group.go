package domain

// DocumentGroup represents a parent entry plus its child chunks in chunk
// order, reconstructing one long source document that was split at ingestion.
// It is a read-only projection over Entry records: it owns no state of its
// own, references the same entries it was built from, and is rebuilt on
// every assembly call.
type DocumentGroup struct {
	Parent   *Entry
	Children []*Entry // Ordered by ChunkIndex ascending
}

// TotalParts returns the number of sections in the document, parent included
func (g *DocumentGroup) TotalParts() int {
	return 1 + len(g.Children)
}

// GroupedEntries represents the lossless partition of a working set into
// standalone entries and document groups. Every input entry appears exactly
// once: as a standalone, as a group's parent, or as a child within a group.
// Chunks whose parent is missing from the working set count as standalone.
type GroupedEntries struct {
	Standalone []*Entry
	Documents  []*DocumentGroup
}
