package searcher

import (
	"math"
	"strings"
)

// BM25-Okapi parameters.
const (
	bm25K1      = 1.5
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

// tokenize lowercases and splits on whitespace. Retrieval candidates and the
// query must go through the same tokenizer.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// bm25 scores a query against a small, fixed corpus. It is built per search
// over the vector-prefiltered candidate set, not over the whole index.
type bm25 struct {
	docs   [][]string
	docLen []float64
	avgLen float64
	idf    map[string]float64
}

func newBM25(docs [][]string) *bm25 {
	m := &bm25{
		docs:   docs,
		docLen: make([]float64, len(docs)),
		idf:    make(map[string]float64),
	}

	df := make(map[string]int)
	total := 0.0
	for i, doc := range docs {
		m.docLen[i] = float64(len(doc))
		total += m.docLen[i]

		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(docs) > 0 {
		m.avgLen = total / float64(len(docs))
	}

	// Probabilistic IDF goes negative for terms in more than half the
	// corpus; those are floored to a fraction of the average IDF so common
	// terms still contribute a small positive weight.
	n := float64(len(docs))
	var idfSum float64
	var negative []string
	for term, freq := range df {
		idf := math.Log((n - float64(freq) + 0.5) / (float64(freq) + 0.5))
		m.idf[term] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, term)
		}
	}
	if len(df) > 0 {
		floor := bm25Epsilon * idfSum / float64(len(df))
		if floor < 0 {
			floor = bm25Epsilon
		}
		for _, term := range negative {
			m.idf[term] = floor
		}
	}

	return m
}

// scores returns the raw BM25 score of the query against every document, in
// corpus order.
func (m *bm25) scores(query []string) []float64 {
	scores := make([]float64, len(m.docs))
	if m.avgLen == 0 {
		return scores
	}

	for i, doc := range m.docs {
		tf := make(map[string]int, len(doc))
		for _, term := range doc {
			tf[term]++
		}

		lenNorm := 1 - bm25B + bm25B*m.docLen[i]/m.avgLen
		for _, term := range query {
			freq := float64(tf[term])
			if freq == 0 {
				continue
			}
			scores[i] += m.idf[term] * freq * (bm25K1 + 1) / (freq + bm25K1*lenNorm)
		}
	}

	return scores
}

// normalizeScores maps raw scores onto [0, 1] by dividing by the maximum,
// making them combinable with cosine similarities.
func normalizeScores(scores []float64) []float64 {
	maxScore := 0.0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore == 0 {
		return scores
	}

	normalized := make([]float64, len(scores))
	for i, s := range scores {
		normalized[i] = s / maxScore
	}
	return normalized
}
