package delimiter

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/semaphore"
)

// DefaultMinConfidence is the minimum number of matching patterns needed
// before a family is reported
const DefaultMinConfidence = 3

// Score describes how well content matched a family's patterns
type Score struct {
	Family     Family  `json:"family"`
	Matches    int     `json:"matches"`
	Patterns   int     `json:"patterns"`
	Weighted   float64 `json:"weighted"`
	Confidence float64 `json:"confidence"`
}

type detectionTable struct {
	shares   map[string]int
	matchers map[string]func(string) bool
}

var detection = sync.OnceValue(func() *detectionTable {
	t := &detectionTable{
		shares:   make(map[string]int),
		matchers: make(map[string]func(string) bool),
	}
	for _, f := range detectable() {
		for _, p := range Patterns(f) {
			if p.Kind.IsGeneric() {
				continue
			}
			t.shares[p.Name]++
			for _, s := range p.Starts {
				if _, ok := t.matchers[s]; ok || s == "" {
					continue
				}
				if isWordByte(s[0]) || isWordByte(s[len(s)-1]) {
					t.matchers[s] = regexp.MustCompile(markerExpr(s)).MatchString
				} else {
					marker := s
					t.matchers[s] = func(content string) bool { return strings.Contains(content, marker) }
				}
			}
		}
	}
	return t
})

func detectable() []Family {
	out := make([]Family, 0, len(Families()))
	for _, f := range Families() {
		if f != Unknown && f != PlainText {
			out = append(out, f)
		}
	}
	return out
}

// specificity weights a marker by how unlikely it is to appear by chance
func specificity(marker string) float64 {
	switch len(marker) {
	case 1:
		return 0.05
	case 2:
		return 0.5
	case 3:
		return 0.7
	case 4:
		return 0.8
	default:
		return 0.6
	}
}

func scoreFamily(t *detectionTable, f Family, content string) Score {
	sc := Score{Family: f}
	for _, p := range Patterns(f) {
		if p.Kind.IsGeneric() {
			continue
		}
		sc.Patterns++

		best := 0.0
		for _, s := range p.Starts {
			if m, ok := t.matchers[s]; ok && m(content) {
				best = math.Max(best, specificity(s))
			}
		}
		if best == 0 {
			continue
		}
		sc.Matches++
		sc.Weighted += best / float64(t.shares[p.Name])
	}
	if sc.Patterns > 0 {
		sc.Confidence = float64(sc.Matches) / float64(sc.Patterns)
	}
	return sc
}

func better(a, b Score) bool {
	if math.Abs(a.Weighted-b.Weighted) > 0.001 {
		return a.Weighted > b.Weighted
	}
	if a.Matches != b.Matches {
		return a.Matches > b.Matches
	}
	if a.Patterns != b.Patterns {
		return a.Patterns > b.Patterns
	}
	return a.Confidence > b.Confidence
}

// DetectLanguageFamily guesses a family from content. Each pattern counts
// once, weighted by how few families share it and how long its matched
// marker is. Unknown is returned when fewer than minConfidence patterns
// match; the returned Score is still the best candidate's.
func DetectLanguageFamily(content string, minConfidence int) (Family, Score) {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	if strings.TrimSpace(content) == "" {
		return Unknown, Score{Family: Unknown}
	}

	t := detection()
	var best Score
	for i, f := range detectable() {
		sc := scoreFamily(t, f, content)
		if i == 0 || better(sc, best) {
			best = sc
		}
	}

	if best.Matches < minConfidence {
		return Unknown, best
	}
	return best.Family, best
}

// DetectResult is delivered by DetectAsync
type DetectResult struct {
	Family Family
	Score  Score
	Err    error
}

type detectKey struct {
	hash          uint64
	minConfidence int
}

// Detector memoises family detection and offers a bounded asynchronous path
type Detector struct {
	cache *lru.Cache[detectKey, DetectResult]
	sem   *semaphore.Weighted
}

// NewDetector creates a detector with an LRU of cacheSize entries and at most
// workers concurrent asynchronous scans
func NewDetector(cacheSize int, workers int64) (*Detector, error) {
	if workers <= 0 {
		return nil, configError("detector.workers", fmt.Errorf("must be positive, got %d", workers))
	}
	cache, err := lru.New[detectKey, DetectResult](cacheSize)
	if err != nil {
		return nil, configError("detector.cache_size", err)
	}
	return &Detector{cache: cache, sem: semaphore.NewWeighted(workers)}, nil
}

// Detect is DetectLanguageFamily with memoisation
func (d *Detector) Detect(content string, minConfidence int) (Family, Score) {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	key := detectKey{hash: xxhash.Sum64String(content), minConfidence: minConfidence}
	if r, ok := d.cache.Get(key); ok {
		return r.Family, r.Score
	}

	f, sc := DetectLanguageFamily(content, minConfidence)
	d.cache.Add(key, DetectResult{Family: f, Score: sc})
	return f, sc
}

// DetectAsync runs Detect on the bounded pool. The channel receives exactly
// one result; Err is set when ctx ends before a worker slot frees up.
func (d *Detector) DetectAsync(ctx context.Context, content string, minConfidence int) <-chan DetectResult {
	out := make(chan DetectResult, 1)
	go func() {
		defer close(out)
		if err := d.sem.Acquire(ctx, 1); err != nil {
			out <- DetectResult{Family: Unknown, Err: err}
			return
		}
		defer d.sem.Release(1)

		f, sc := d.Detect(content, minConfidence)
		out <- DetectResult{Family: f, Score: sc}
	}()
	return out
}

// Len returns the number of memoised results
func (d *Detector) Len() int {
	return d.cache.Len()
}
