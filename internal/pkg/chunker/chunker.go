package chunker

import "strings"

const (
	// DefaultSize is the target chunk length in characters.
	DefaultSize = 1000

	// DefaultOverlap is how many characters consecutive chunks share.
	DefaultOverlap = 200
)

// Splitter cuts text into overlapping fixed-size windows. Consecutive windows
// share Overlap characters so local context survives chunk boundaries.
// Splitting is a deterministic sliding window over characters, not
// sentence-aware.
type Splitter struct {
	size    int
	overlap int
}

// New creates a Splitter. Out-of-range parameters fall back to defaults.
func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}
	return &Splitter{size: size, overlap: overlap}
}

// Size returns the configured window length.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the configured overlap length.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the chunk sequence for text. Empty or whitespace-only input
// yields nil; the caller decides whether "no content" is a user error. Input
// shorter than the window size yields exactly one chunk.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.size {
		return []string{text}
	}

	step := s.size - s.overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks
}
