// Package config provides configuration loading and management for gochunk.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/gochunk-mcp/internal/chunker"
	"github.com/dshills/gochunk-mcp/internal/coordinator"
	"github.com/dshills/gochunk-mcp/internal/delimiter"
	"github.com/dshills/gochunk-mcp/internal/discovery"
	"github.com/dshills/gochunk-mcp/internal/events"
	"github.com/dshills/gochunk-mcp/internal/governor"
	"github.com/dshills/gochunk-mcp/internal/grammar"
	"github.com/dshills/gochunk-mcp/internal/semantic"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

const (
	// DefaultDBPath is the default location for the chunk database
	DefaultDBPath = "~/.gochunk/chunks.db"
	// EnvDBPath overrides storage.db_path
	EnvDBPath = "GOCHUNK_DB_PATH"
	// DefaultMaxFileSizeMB is the largest file discovered, in MiB
	DefaultMaxFileSizeMB = 10
	// DefaultDetectCacheSize is the number of memoised family detections
	DefaultDetectCacheSize = 256
)

// Config represents the complete gochunk configuration
type Config struct {
	Governor         governor.Config   `yaml:"governor"`
	Performance      PerformanceConfig `yaml:"performance"`
	Concurrency      ConcurrencyConfig `yaml:"concurrency"`
	Semantic         SemanticConfig    `yaml:"semantic"`
	CustomDelimiters []LanguageDelims  `yaml:"custom_delimiters,omitempty"`
	CustomLanguages  map[string]string `yaml:"custom_languages,omitempty"`
	Storage          StorageConfig     `yaml:"storage"`
	Discovery        discovery.Options `yaml:"discovery"`
	MetricsAddr      string            `yaml:"metrics_addr,omitempty"`
}

// PerformanceConfig bounds work per file
type PerformanceConfig struct {
	// MaxFileSizeMB skips larger files during discovery
	MaxFileSizeMB int `yaml:"max_file_size_mb"`
	// MaxASTDepth limits subdivision of oversized syntax nodes
	MaxASTDepth int `yaml:"max_ast_depth"`
	// ParseTimeout bounds a single tree-sitter parse
	ParseTimeout time.Duration `yaml:"parse_timeout"`
	// SlowThreshold emits a performance warning for slower files
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

// ConcurrencyConfig sizes the worker pools
type ConcurrencyConfig struct {
	MaxParallelFiles int `yaml:"max_parallel_files"`
}

// SemanticConfig tunes the semantic strategy
type SemanticConfig struct {
	// ImportanceThreshold is the minimum score of a chunk boundary (0.0-1.0)
	ImportanceThreshold float64 `yaml:"importance_threshold"`
	// BoundaryTier is the least important tier that may start a chunk (1-5)
	BoundaryTier semantic.Tier `yaml:"boundary_tier"`
	// Overrides force the category of specific node kinds
	Overrides []semantic.Override `yaml:"overrides,omitempty"`
}

// LanguageDelims lists user delimiters for one language
type LanguageDelims struct {
	Language   string            `yaml:"language"`
	Delimiters []DelimiterConfig `yaml:"delimiters"`
}

// DelimiterConfig is a user delimiter. Unset fields take the kind's defaults.
type DelimiterConfig struct {
	Start          string `yaml:"start"`
	End            string `yaml:"end"`
	Kind           string `yaml:"kind"`
	Priority       uint32 `yaml:"priority,omitempty"`
	Nestable       *bool  `yaml:"nestable,omitempty"`
	Inclusive      *bool  `yaml:"inclusive,omitempty"`
	TakeWholeLines *bool  `yaml:"take_whole_lines,omitempty"`
	Description    string `yaml:"description,omitempty"`
}

// StorageConfig configures the chunk store
type StorageConfig struct {
	// DBPath is the sqlite database file; "~" expands to the home directory
	DBPath string `yaml:"db_path"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Governor: governor.DefaultConfig(),
		Performance: PerformanceConfig{
			MaxFileSizeMB: DefaultMaxFileSizeMB,
			MaxASTDepth:   chunker.DefaultMaxASTDepth,
			ParseTimeout:  chunker.DefaultParseTimeout,
			SlowThreshold: events.DefaultSlowThreshold,
		},
		Concurrency: ConcurrencyConfig{
			MaxParallelFiles: coordinator.DefaultWorkers,
		},
		Semantic: SemanticConfig{
			ImportanceThreshold: semantic.DefaultImportanceThreshold,
			BoundaryTier:        semantic.TierControlFlowLogic,
		},
		Storage: StorageConfig{
			DBPath: DefaultDBPath,
		},
		// MaxFileSize stays zero so performance.max_file_size_mb applies
		Discovery: discovery.Options{RespectGitignore: true},
	}
}

// Validate checks that the configuration is valid. The first problem is
// reported as a *types.ConfigurationError.
func (c *Config) Validate() error {
	if err := c.Governor.Validate(); err != nil {
		return err
	}

	switch {
	case c.Performance.MaxFileSizeMB <= 0:
		return &types.ConfigurationError{Field: "performance.max_file_size_mb", Reason: "must be positive"}
	case c.Performance.MaxASTDepth <= 0:
		return &types.ConfigurationError{Field: "performance.max_ast_depth", Reason: "must be positive"}
	case c.Performance.ParseTimeout < 0:
		return &types.ConfigurationError{Field: "performance.parse_timeout", Reason: "must not be negative"}
	case c.Performance.SlowThreshold < 0:
		return &types.ConfigurationError{Field: "performance.slow_threshold", Reason: "must not be negative"}
	case c.Concurrency.MaxParallelFiles <= 0:
		return &types.ConfigurationError{Field: "concurrency.max_parallel_files", Reason: "must be positive"}
	case c.Semantic.ImportanceThreshold < 0 || c.Semantic.ImportanceThreshold > 1:
		return &types.ConfigurationError{Field: "semantic.importance_threshold", Reason: "must be between 0 and 1"}
	case c.Semantic.BoundaryTier < semantic.TierPrimaryDefinitions || c.Semantic.BoundaryTier > semantic.TierSyntaxReferences:
		return &types.ConfigurationError{Field: "semantic.boundary_tier", Reason: "must be between 1 and 5"}
	case c.Storage.DBPath == "":
		return &types.ConfigurationError{Field: "storage.db_path", Reason: "is required"}
	}

	if _, err := semantic.NewClassifier(nil, c.Semantic.Overrides); err != nil {
		return err
	}
	if _, err := c.Catalog(); err != nil {
		return err
	}
	return c.Discovery.Validate()
}

// LoadFromFile loads configuration from a YAML file over the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads path (or only the defaults when path is empty), applies
// environment overrides, and validates the result
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config := DefaultConfig()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = loaded
		logger.Debug("Loaded config", slog.String("path", path))
	}

	if dbPath := os.Getenv(EnvDBPath); dbPath != "" {
		config.Storage.DBPath = dbPath
		logger.Debug("Database path from environment", slog.String("path", dbPath))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ResolveDBPath expands a leading "~" in storage.db_path
func (c *Config) ResolveDBPath() (string, error) {
	path := c.Storage.DBPath
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}

// Catalog builds the delimiter catalog from custom_languages and
// custom_delimiters
func (c *Config) Catalog() (*delimiter.Catalog, error) {
	b := delimiter.NewCatalogBuilder()

	langs := make([]string, 0, len(c.CustomLanguages))
	for lang := range c.CustomLanguages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		family, err := delimiter.ParseFamily(c.CustomLanguages[lang])
		if err != nil {
			return nil, &types.ConfigurationError{Field: fmt.Sprintf("custom_languages[%s]", lang), Reason: err.Error()}
		}
		b.MapLanguage(lang, family)
	}

	for i, ld := range c.CustomDelimiters {
		for j, dc := range ld.Delimiters {
			d, err := dc.toDelimiter()
			if err != nil {
				return nil, &types.ConfigurationError{
					Field:  fmt.Sprintf("custom_delimiters[%d].delimiters[%d]", i, j),
					Reason: err.Error(),
				}
			}
			b.RegisterCustomChunker(ld.Language, d)
		}
	}

	return b.Build()
}

func (dc DelimiterConfig) toDelimiter() (delimiter.Delimiter, error) {
	kind, err := delimiter.ParseKind(dc.Kind)
	if err != nil {
		return delimiter.Delimiter{}, err
	}
	d := delimiter.New(dc.Start, dc.End, kind)
	if dc.Priority != 0 {
		d.Priority = dc.Priority
	}
	if dc.Nestable != nil {
		d.Nestable = *dc.Nestable
	}
	if dc.Inclusive != nil {
		d.Inclusive = *dc.Inclusive
	}
	if dc.TakeWholeLines != nil {
		d.TakeWholeLines = *dc.TakeWholeLines
	}
	d.Description = dc.Description
	return d, nil
}

// DiscoveryOptions returns the discovery options with the performance
// file size limit applied when discovery sets none
func (c *Config) DiscoveryOptions() discovery.Options {
	opts := c.Discovery
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = int64(c.Performance.MaxFileSizeMB) << 20
	}
	return opts
}

// ChunkerConfig wires a chunker.Config: grammars, the classification
// cache with overrides, the delimiter catalog, and a family detector
// sized by concurrency.max_parallel_files
func (c *Config) ChunkerConfig(sink events.Sink, logger *slog.Logger) (chunker.Config, error) {
	grammars := grammar.NewRegistry()
	classifier, err := semantic.NewClassifier(grammars, c.Semantic.Overrides)
	if err != nil {
		return chunker.Config{}, err
	}
	catalog, err := c.Catalog()
	if err != nil {
		return chunker.Config{}, err
	}
	detector, err := delimiter.NewDetector(DefaultDetectCacheSize, int64(c.Concurrency.MaxParallelFiles))
	if err != nil {
		return chunker.Config{}, err
	}

	return chunker.Config{
		Governor:            c.Governor,
		BoundaryTier:        c.Semantic.BoundaryTier,
		ImportanceThreshold: c.Semantic.ImportanceThreshold,
		MaxASTDepth:         c.Performance.MaxASTDepth,
		ParseTimeout:        c.Performance.ParseTimeout,
		SlowThreshold:       c.Performance.SlowThreshold,
		Grammars:            grammars,
		Cache:               semantic.NewCache(classifier, grammars),
		Catalog:             catalog,
		Detector:            detector,
		Sink:                sink,
		Logger:              logger,
	}, nil
}
