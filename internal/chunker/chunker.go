package chunker

import "strings"

const (
	// DefaultChunkSize is the target chunk length in characters
	DefaultChunkSize = 500

	// DefaultOverlap is the number of characters shared between adjacent chunks
	DefaultOverlap = 50

	// boundaryLookback is how far back from the window end we search for a
	// sentence-terminating period before falling back to a hard cut
	boundaryLookback = 100
)

// Chunker splits extracted document text into overlapping chunks.
// Splitting is pure and deterministic: chunk identity (sequence index) depends
// on identical input always producing identical output.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker with the given target size and overlap in characters.
// Non-positive values fall back to the defaults.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			// Sizes below the default overlap still need overlap < size
			// for the window to advance.
			overlap = size / 10
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split divides text into ordered, non-empty chunk strings.
//
// Text at or below the target size is returned as a single chunk, untrimmed.
// Otherwise a window of size characters slides over the text; before each cut
// the last period within boundaryLookback characters of the window end is
// preferred over a hard cut, so chunks tend to end on sentence boundaries.
// Each window advances to end-overlap.
func (c *Chunker) Split(text string) []string {
	if len(text) <= c.size {
		return []string{text}
	}

	chunks := make([]string, 0, len(text)/(c.size-c.overlap)+1)
	start := 0

	for start < len(text) {
		end := start + c.size

		if end < len(text) {
			// Prefer a sentence boundary near the window end.
			from := end - boundaryLookback
			if from < start {
				from = start
			}
			if idx := strings.LastIndex(text[from:end], "."); idx != -1 {
				end = from + idx + 1
			}
		}

		cut := end
		if cut > len(text) {
			cut = len(text)
		}
		if chunk := strings.TrimSpace(text[start:cut]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		// The window advances from the uncut end so progress is guaranteed
		// even when the final window runs past the text.
		start = end - c.overlap
		if start >= len(text) {
			break
		}
	}

	return chunks
}

// WordCount returns the whitespace-delimited word count of a chunk.
func WordCount(chunk string) int {
	return len(strings.Fields(chunk))
}
