package delimiter

import (
	"fmt"
	"strings"
	"sync"
)

// CatalogBuilder collects configuration for a Catalog
type CatalogBuilder struct {
	languages map[string]Family
	user      map[string][]Delimiter
	err       error
}

// NewCatalogBuilder returns an empty builder
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{
		languages: make(map[string]Family),
		user:      make(map[string][]Delimiter),
	}
}

func catalogKey(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

// MapLanguage assigns a family to a language, overriding the built-in table
func (b *CatalogBuilder) MapLanguage(language string, family Family) *CatalogBuilder {
	if b.err != nil {
		return b
	}
	key := catalogKey(language)
	if key == "" {
		b.err = configError("custom_languages", fmt.Errorf("language name is empty"))
		return b
	}
	if _, err := ParseFamily(string(family)); err != nil {
		b.err = configError(fmt.Sprintf("custom_languages[%s]", key), err)
		return b
	}
	b.languages[key] = family
	return b
}

// RegisterCustomChunker adds a user delimiter for a language. A zero
// priority takes the kind's default.
func (b *CatalogBuilder) RegisterCustomChunker(language string, d Delimiter) *CatalogBuilder {
	if b.err != nil {
		return b
	}
	key := catalogKey(language)
	field := fmt.Sprintf("custom_delimiters[%s][%d]", key, len(b.user[key]))
	if key == "" {
		b.err = configError(field, fmt.Errorf("language name is empty"))
		return b
	}
	if d.Priority == 0 {
		d.Priority = d.Kind.DefaultPriority()
	}
	if err := d.Validate(); err != nil {
		b.err = configError(field, err)
		return b
	}
	b.user[key] = append(b.user[key], d)
	return b
}

// Build validates and freezes the configuration
func (b *CatalogBuilder) Build() (*Catalog, error) {
	if b.err != nil {
		return nil, b.err
	}
	c := &Catalog{
		languages: make(map[string]Family, len(b.languages)),
		user:      make(map[string][]Delimiter, len(b.user)),
	}
	for k, v := range b.languages {
		c.languages[k] = v
	}
	for k, v := range b.user {
		c.user[k] = Dedupe(v)
	}
	return c, nil
}

// Catalog resolves delimiter tables for languages. Its configuration is
// fixed at construction; compiled scanners are memoised and safe for
// concurrent use.
type Catalog struct {
	languages map[string]Family
	user      map[string][]Delimiter
	scanners  sync.Map // string -> *Scanner
}

// DefaultCatalog returns a catalog with only built-in tables
func DefaultCatalog() *Catalog {
	c, _ := NewCatalogBuilder().Build()
	return c
}

// Family resolves a language, honouring custom mappings
func (c *Catalog) Family(language string) Family {
	if f, ok := c.languages[catalogKey(language)]; ok {
		return f
	}
	return FamilyOf(language)
}

// Known reports whether the language maps to a family without detection
func (c *Catalog) Known(language string) bool {
	if _, ok := c.languages[catalogKey(language)]; ok {
		return true
	}
	return KnownLanguage(language)
}

// BuiltinDelimiters returns the generated table for a language
func (c *Catalog) BuiltinDelimiters(language string) []Delimiter {
	return generate(c.Family(language), language)
}

// UserDelimiters returns the configured delimiters for a language
func (c *Catalog) UserDelimiters(language string) []Delimiter {
	return c.user[catalogKey(language)]
}

// HasUserDelimiters reports whether any user delimiters exist for the language
func (c *Catalog) HasUserDelimiters(language string) bool {
	return len(c.user[catalogKey(language)]) > 0
}

// UserLanguages lists languages with user delimiters
func (c *Catalog) UserLanguages() []string {
	out := make([]string, 0, len(c.user))
	for k := range c.user {
		out = append(out, k)
	}
	return out
}

// BuiltinScanner returns the memoised scanner for a language's generated table
func (c *Catalog) BuiltinScanner(language string) (*Scanner, error) {
	return c.scanner("builtin:"+catalogKey(language), func() []Delimiter {
		return c.BuiltinDelimiters(language)
	})
}

// FamilyScanner returns the memoised scanner for a family's table
func (c *Catalog) FamilyScanner(f Family) (*Scanner, error) {
	return c.scanner("family:"+string(f), func() []Delimiter {
		return GenerateFamilyDelimiters(f)
	})
}

// UserScanner returns the memoised scanner for a language's user delimiters
func (c *Catalog) UserScanner(language string) (*Scanner, error) {
	return c.scanner("user:"+catalogKey(language), func() []Delimiter {
		return c.UserDelimiters(language)
	})
}

func (c *Catalog) scanner(key string, table func() []Delimiter) (*Scanner, error) {
	if s, ok := c.scanners.Load(key); ok {
		return s.(*Scanner), nil
	}
	s, err := NewScanner(table())
	if err != nil {
		return nil, err
	}
	actual, _ := c.scanners.LoadOrStore(key, s)
	return actual.(*Scanner), nil
}
