// Package chunker divides extracted document text into overlapping chunks for
// embedding and retrieval.
//
// Splitting is deterministic: identical input always yields the identical
// chunk sequence, which the index relies on because a chunk's identity is its
// (file, sequence index) pair. The splitter prefers sentence boundaries,
// searching backward up to 100 characters from the window end for the last
// period before resorting to a hard cut.
//
// # Basic Usage
//
//	c := chunker.New(500, 50)
//	chunks := c.Split(text)
//	for i, chunk := range chunks {
//	    fmt.Printf("chunk %d: %d words\n", i, chunker.WordCount(chunk))
//	}
package chunker
