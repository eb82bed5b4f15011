package processing

import (
	"strings"
	"unicode/utf8"
)

// Defaults used when indexing documents.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators are tried in order: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks text into chunks of at most ChunkSize characters, with
// neighbouring chunks sharing up to Overlap characters. It splits on the
// coarsest separator present and only falls through to finer separators for
// pieces that are still too long.
type Splitter struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &Splitter{
		ChunkSize:  chunkSize,
		Overlap:    overlap,
		Separators: DefaultSeparators,
	}
}

// ChunkText splits text with the default size and overlap.
func ChunkText(text string) []string {
	return NewSplitter(DefaultChunkSize, DefaultChunkOverlap).Split(text)
}

// Split returns the non-empty, trimmed chunks of text.
func (s *Splitter) Split(text string) []string {
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}
	return s.split(text, seps)
}

func (s *Splitter) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	var finer []string
	for i, c := range seps {
		if c == "" || strings.Contains(text, c) {
			sep = c
			finer = seps[i+1:]
			break
		}
	}

	var out, small []string
	for _, p := range strings.Split(text, sep) {
		if p == "" {
			continue
		}
		if length(p) < s.ChunkSize {
			small = append(small, p)
			continue
		}
		if len(small) > 0 {
			out = append(out, s.merge(small, sep)...)
			small = nil
		}
		if len(finer) == 0 {
			out = append(out, p)
		} else {
			out = append(out, s.split(p, finer)...)
		}
	}
	if len(small) > 0 {
		out = append(out, s.merge(small, sep)...)
	}
	return out
}

// merge packs pieces into chunks no longer than ChunkSize, carrying the tail
// of each chunk into the next one up to Overlap characters.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := length(sep)
	var (
		chunks []string
		cur    []string
		total  int
	)
	joined := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	for _, p := range pieces {
		l := length(p)
		if total+l+joined(len(cur)) > s.ChunkSize && len(cur) > 0 {
			if c := strings.TrimSpace(strings.Join(cur, sep)); c != "" {
				chunks = append(chunks, c)
			}
			for total > s.Overlap || (total > 0 && total+l+joined(len(cur)) > s.ChunkSize) {
				total -= length(cur[0]) + joined(len(cur)-1)
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += l + joined(len(cur)-1)
	}
	if c := strings.TrimSpace(strings.Join(cur, sep)); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
