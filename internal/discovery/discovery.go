// Package discovery walks a directory tree and loads the files to chunk.
package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/dshills/gochunk-mcp/internal/language"
	"github.com/dshills/gochunk-mcp/pkg/types"
)

// DefaultMaxFileSize is the largest file loaded, in bytes
const DefaultMaxFileSize = 10 << 20

// Skip reasons
const (
	ReasonTooLarge = "exceeds max file size"
	ReasonBinary   = "binary content"
	ReasonIgnored  = "matched .gitignore"
	ReasonExcluded = "matched exclude pattern"
	ReasonUnread   = "unreadable"
)

var skipDirs = map[string]struct{}{
	"node_modules":  {},
	"vendor":        {},
	"__pycache__":   {},
	".git":          {},
	".hg":           {},
	".svn":          {},
	"venv":          {},
	".venv":         {},
	".tox":          {},
	".mypy_cache":   {},
	".pytest_cache": {},
}

// Options controls which files are discovered
type Options struct {
	// Include lists doublestar globs over slash-separated relative paths.
	// Empty means every file.
	Include []string `yaml:"include" json:"include,omitempty"`
	// Exclude globs win over Include
	Exclude []string `yaml:"exclude" json:"exclude,omitempty"`
	// RespectGitignore applies the root .gitignore
	RespectGitignore bool `yaml:"respect_gitignore" json:"respect_gitignore"`
	// IncludeHidden walks dot files and dot directories
	IncludeHidden bool `yaml:"include_hidden" json:"include_hidden"`
	// MaxFileSize skips larger files; zero means DefaultMaxFileSize
	MaxFileSize int64 `yaml:"max_file_size" json:"max_file_size"`
}

// DefaultOptions returns options that respect .gitignore and skip hidden files
func DefaultOptions() Options {
	return Options{
		RespectGitignore: true,
		MaxFileSize:      DefaultMaxFileSize,
	}
}

// Validate checks that every glob compiles
func (o Options) Validate() error {
	for _, p := range append(append([]string{}, o.Include...), o.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return &types.ConfigurationError{Field: "discovery", Reason: fmt.Sprintf("invalid glob %q", p)}
		}
	}
	if o.MaxFileSize < 0 {
		return &types.ConfigurationError{Field: "discovery.max_file_size", Reason: "must not be negative"}
	}
	return nil
}

// Skipped records a file that was found but not loaded
type Skipped struct {
	Path   string
	Reason string
}

// Result is the outcome of a walk. Paths in Files are absolute; RelPaths
// holds the matching root-relative, slash-separated paths.
type Result struct {
	Root     string
	Files    []types.DiscoveredFile
	RelPaths []string
	Skipped  []Skipped
}

// Walk discovers and loads files under root, sorted by relative path.
// Walking stops early when ctx is cancelled.
func Walk(ctx context.Context, root string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxFileSize == 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	var gi *ignore.GitIgnore
	if opts.RespectGitignore {
		gi = loadGitignore(abs)
	}

	res := &Result{Root: abs}
	type found struct{ path, rel string }
	var candidates []found

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		name := d.Name()
		if d.IsDir() {
			if path == abs {
				return nil
			}
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			res.Skipped = append(res.Skipped, Skipped{Path: rel, Reason: ReasonIgnored})
			return nil
		}
		if !matchAny(opts.Include, rel, true) {
			return nil
		}
		if matchAny(opts.Exclude, rel, false) {
			res.Skipped = append(res.Skipped, Skipped{Path: rel, Reason: ReasonExcluded})
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Path: rel, Reason: ReasonUnread})
			return nil
		}
		if fi.Size() > opts.MaxFileSize {
			res.Skipped = append(res.Skipped, Skipped{Path: rel, Reason: ReasonTooLarge})
			return nil
		}
		candidates = append(candidates, found{path: path, rel: rel})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].rel < candidates[j].rel })
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, err := Load(c.path)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Path: c.rel, Reason: ReasonUnread})
			continue
		}
		if file.IsBinary() {
			res.Skipped = append(res.Skipped, Skipped{Path: c.rel, Reason: ReasonBinary})
			continue
		}
		res.Files = append(res.Files, file)
		res.RelPaths = append(res.RelPaths, c.rel)
	}
	return res, nil
}

// Load reads a single file and infers its language from the extension
func Load(path string) (types.DiscoveredFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.DiscoveredFile{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return types.DiscoveredFile{
		Path:     path,
		Content:  content,
		Language: language.FromPath(path),
	}, nil
}

func matchAny(patterns []string, rel string, empty bool) bool {
	if len(patterns) == 0 {
		return empty
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
