package semantic

// KindLister enumerates the languages and kinds a grammar registry knows
type KindLister interface {
	Names() []string
	Kinds(language string) []string
}

// Cache holds precomputed classifications for every kind of every
// registered grammar. It is immutable after construction, so concurrent
// reads need no locking. Misses are classified on the fly and not stored.
type Cache struct {
	classifier *Classifier
	entries    map[string]map[string]Classification
}

// NewCache pre-classifies every kind known to grammars
func NewCache(classifier *Classifier, grammars KindLister) *Cache {
	entries := make(map[string]map[string]Classification)
	for _, lang := range grammars.Names() {
		kinds := grammars.Kinds(lang)
		m := make(map[string]Classification, len(kinds))
		for _, kind := range kinds {
			m[kind] = classifier.Classify(kind, lang)
		}
		entries[lang] = m
	}
	return &Cache{classifier: classifier, entries: entries}
}

// Classify returns the cached classification, computing misses without storing them
func (c *Cache) Classify(kind, language string) Classification {
	if cl, ok := c.entries[language][kind]; ok {
		return cl
	}
	return c.classifier.Classify(kind, language)
}

// Len returns the number of cached classifications
func (c *Cache) Len() int {
	n := 0
	for _, m := range c.entries {
		n += len(m)
	}
	return n
}
