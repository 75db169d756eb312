package service

import (
	"fmt"
	"strings"
)

// ChunkConfig controls how over-long documents are split at ingestion.
type ChunkConfig struct {
	// MaxChars is the size threshold: content at or under it stays a single
	// entry, content over it is split into chunks of at most MaxChars.
	MaxChars int
	// BreakFraction is how far into the window a paragraph or sentence
	// boundary must sit to be preferred over a hard cut.
	BreakFraction float64
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars:      8000,
		BreakFraction: 0.3,
	}
}

// Chunk represents one bounded slice of an over-long document.
type Chunk struct {
	Title   string
	Content string
	Index   int
}

// ChunkDocument splits content into bounded, boundary-aware chunks. Content
// that fits within the threshold yields no chunks: the document stays a
// single entry. Cuts prefer the last paragraph break in the window, then the
// last sentence end, and fall back to a hard cut at the threshold; boundaries
// in the first BreakFraction of the window are ignored so chunks never shrink
// below a useful size. Concatenating the raw (untrimmed) slices reconstructs
// the original content exactly.
func ChunkDocument(content, title string, cfg ChunkConfig) []Chunk {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}

	runes := []rune(content)
	if len(runes) <= cfg.MaxChars {
		return nil
	}

	minBreak := int(float64(cfg.MaxChars) * cfg.BreakFraction)

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		remaining := len(runes) - start
		if remaining <= cfg.MaxChars {
			chunks = appendChunk(chunks, title, runes[start:])
			break
		}

		window := string(runes[start : start+cfg.MaxChars])
		cut := cfg.MaxChars
		found := false
		if idx := strings.LastIndex(window, "\n\n"); idx >= 0 {
			// LastIndex returns a byte offset; cuts are in runes.
			if r := len([]rune(window[:idx])); r > minBreak {
				cut = r + 2
				found = true
			}
		}
		if !found {
			if idx := strings.LastIndex(window, ". "); idx >= 0 {
				if r := len([]rune(window[:idx])); r > minBreak {
					cut = r + 1
				}
			}
		}

		chunks = appendChunk(chunks, title, runes[start:start+cut])
		start += cut
	}

	return chunks
}

func appendChunk(chunks []Chunk, title string, slice []rune) []Chunk {
	n := len(chunks) + 1
	return append(chunks, Chunk{
		Title:   fmt.Sprintf("%s — Part %d", title, n),
		Content: strings.TrimSpace(string(slice)),
		Index:   len(chunks),
	})
}
