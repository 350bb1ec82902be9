// Package searcher runs keyword queries over stored chunks.
//
// Queries go to the store's FTS5 index (BM25 ranking) and the matching
// chunk records are loaded in rank order. Responses can be cached in an
// LRU keyed by query, project, limit and filters; entries expire after a
// TTL and the whole cache is purged whenever a directory is re-chunked.
//
// # Basic Usage
//
//	s, err := searcher.New(store, searcher.DefaultCacheSize)
//
//	resp, err := s.Search(ctx, searcher.Request{
//	    ProjectID: project.ID,
//	    Query:     "retry backoff",
//	    Limit:     10,
//	    Filters:   &storage.SearchFilters{Kinds: []string{"ast_node"}},
//	    UseCache:  true,
//	})
//
//	for _, hit := range resp.Hits {
//	    fmt.Printf("[%d] %s:%d (score: %.2f)\n",
//	        hit.Rank, hit.FilePath, hit.Chunk.StartLine, hit.Score)
//	}
//
// Scores are normalized to (0, 1], higher is better. Limits outside
// 1..MaxLimit are clamped.
package searcher
