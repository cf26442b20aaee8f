// Package searcher ranks indexed chunks against natural-language queries.
//
// Retrieval is a two-stage re-ranking pipeline, not a full corpus scan:
//
//  1. The query is embedded and the index returns the top candidates by
//     vector similarity, filtered through the access view when a principal
//     is supplied.
//  2. BM25-Okapi lexical scores are computed over just that candidate set,
//     normalized to [0, 1], and folded into the final score as
//     0.7*similarity + 0.3*lexical.
//
// # Basic Usage
//
//	s := searcher.New(store, embedderService, cfg, logger)
//
//	results, err := s.Search(ctx, "quarterly revenue targets", userID)
//	for _, r := range results {
//	    fmt.Printf("%.3f %s\n", r.Score, r.Filename)
//	}
//
// Passing an empty principal skips permission filtering entirely; the
// fallback is logged and intended for anonymous or testing contexts only.
package searcher
