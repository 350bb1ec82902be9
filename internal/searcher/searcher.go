package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/gochunk-mcp/internal/storage"
)

const (
	// DefaultLimit is used when a request has no limit
	DefaultLimit = 10
	// MaxLimit caps the number of results per request
	MaxLimit = 100
	// DefaultCacheSize is the number of cached queries
	DefaultCacheSize = 1000
	// DefaultCacheTTL bounds how long a cached response is served
	DefaultCacheTTL = time.Hour
)

// ErrEmptyQuery is returned for blank queries
var ErrEmptyQuery = errors.New("query cannot be empty")

// Request contains parameters for a search operation
type Request struct {
	ProjectID int64
	Query     string
	Limit     int
	Filters   *storage.SearchFilters
	UseCache  bool // Whether to use query cache
	CacheTTL  time.Duration
}

// Hit is one ranked chunk with its file path
type Hit struct {
	Rank     int
	Score    float64
	FilePath string
	Chunk    *storage.Chunk
}

// Response contains search results and metadata
type Response struct {
	Hits     []Hit
	Duration time.Duration
	CacheHit bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Searcher runs full-text queries against stored chunks and caches responses
type Searcher struct {
	storage storage.Storage
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// New creates a Searcher with a query cache of cacheSize entries
func New(store storage.Storage, cacheSize int) (*Searcher, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &Searcher{storage: store, cache: cache}, nil
}

// Search performs a BM25 query and loads the matching chunks
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if err := normalize(&req); err != nil {
		return nil, err
	}

	key := queryHash(req)
	if req.UseCache {
		if cached := s.lookup(key); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	textResults, err := s.storage.SearchText(ctx, req.ProjectID, req.Query, req.Limit, req.Filters)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(textResults))
	for _, tr := range textResults {
		chunk, err := s.storage.GetChunk(ctx, tr.ChunkID)
		if errors.Is(err, storage.ErrNotFound) {
			continue // removed since the query ran
		}
		if err != nil {
			return nil, err
		}
		hits = append(hits, Hit{
			Rank:     len(hits) + 1,
			Score:    tr.Score,
			FilePath: tr.FilePath,
			Chunk:    chunk,
		})
	}

	response := &Response{Hits: hits, Duration: time.Since(startTime)}
	if req.UseCache && len(hits) > 0 {
		s.store(key, response, req.CacheTTL)
	}
	return response, nil
}

func normalize(req *Request) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return ErrEmptyQuery
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}
	return nil
}

func (s *Searcher) lookup(key [32]byte) *Response {
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil
	}
	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

func (s *Searcher) store(key [32]byte, response *Response, ttl time.Duration) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(ttl),
	}
	s.cacheMu.Lock()
	s.cache.Add(key, entry)
	s.cacheMu.Unlock()
}

// copyResponse copies hits and chunk records so cached entries stay immutable
func copyResponse(src *Response) *Response {
	dst := &Response{
		Duration: src.Duration,
		CacheHit: src.CacheHit,
		Hits:     make([]Hit, len(src.Hits)),
	}
	for i, h := range src.Hits {
		dst.Hits[i] = h
		if h.Chunk != nil {
			c := *h.Chunk
			dst.Hits[i].Chunk = &c
		}
	}
	return dst
}

// queryHash builds a stable key from the query, project, limit and filters
func queryHash(req Request) [32]byte {
	var data strings.Builder
	fmt.Fprintf(&data, "%s|%d|%d", req.Query, req.ProjectID, req.Limit)

	if f := req.Filters; f != nil {
		languages := slices.Sorted(slices.Values(f.Languages))
		kinds := slices.Sorted(slices.Values(f.Kinds))
		fmt.Fprintf(&data, "|filters:%s|%s|%s|%.2f",
			strings.Join(languages, ","), strings.Join(kinds, ","), f.FilePattern, f.MinRelevance)
	}
	return sha256.Sum256([]byte(data.String()))
}

// InvalidateCache drops every cached response. LRU entries carry no project
// index, so the whole cache is purged.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen reports the number of cached responses
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}
