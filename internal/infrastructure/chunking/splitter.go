// Package chunking cuts extracted document text into the passages the mock
// backend indexes.
package chunking

import "strings"

// Windows of 1000 runes that start 800 runes apart, so neighbouring chunks
// share their last and first 200 runes. The final window may be shorter and
// a text that fits in one window yields a single chunk.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Splitter cuts whitespace-normalised text into fixed-size rune windows that
// overlap by Overlap runes.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// NewSplitter falls back to DefaultChunkSize for a non-positive size and
// clamps an overlap that would stop the window from advancing.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}
}

// Split collapses every whitespace run to one space before windowing, so
// line breaks and indentation never decide where a chunk ends.
func (s *Splitter) Split(text string) []string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) == 0 {
		return nil
	}

	size := max(s.ChunkSize, 1)
	step := max(size-s.Overlap, 1)

	var out []string
	for start := 0; ; start += step {
		end := min(start+size, len(runes))
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			return out
		}
	}
}
