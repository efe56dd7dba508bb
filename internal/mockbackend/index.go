package mockbackend

import (
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

type document struct {
	ID       string
	Filename string
	Chunks   []string
}

// index is an in-memory stand-in for the vector store: chunks are ranked by
// how many distinct query terms they contain.
type index struct {
	mu   sync.RWMutex
	docs []document
	// saved counts every accepted upload, indexed or not.
	saved int
}

func (ix *index) save() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.saved++
}

func (ix *index) add(doc document) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs = append(ix.docs, doc)
}

func (ix *index) stats() (documents, chunks int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, d := range ix.docs {
		chunks += len(d.Chunks)
	}
	return ix.saved, chunks
}

type scoredChunk struct {
	text  string
	score int
	order int
}

func (ix *index) search(query string, topK int) []string {
	terms := uniqueTerms(query)
	if len(terms) == 0 || topK <= 0 {
		return nil
	}

	ix.mu.RLock()
	var hits []scoredChunk
	order := 0
	for _, d := range ix.docs {
		for _, chunk := range d.Chunks {
			chunkTerms := uniqueTerms(chunk)
			score := 0
			for term := range terms {
				if _, ok := chunkTerms[term]; ok {
					score++
				}
			}
			if score > 0 {
				hits = append(hits, scoredChunk{text: chunk, score: score, order: order})
			}
			order++
		}
	}
	ix.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.text)
	}
	return out
}

func uniqueTerms(s string) map[string]struct{} {
	out := make(map[string]struct{})
	var b strings.Builder
	flush := func() {
		if utf8.RuneCountInString(b.String()) > 2 {
			out[b.String()] = struct{}{}
		}
		b.Reset()
	}
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}
