package grammar

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Each document is generated from the parse tables of the binding it sits
// beside, so it lists exactly the kinds, fields and supertypes that binding
// can produce.
//
//go:embed nodetypes/*.json
var nodeTypesFS embed.FS

// Language pairs a tree-sitter grammar with its node-type metadata
type Language struct {
	Name string
	lang *sitter.Language

	once  sync.Once
	types *NodeTypes
	err   error
}

// NodeTypes returns the node-type metadata, loading it on first use
func (l *Language) NodeTypes() (*NodeTypes, error) {
	l.once.Do(func() {
		data, err := nodeTypesFS.ReadFile(fmt.Sprintf("nodetypes/%s.json", l.Name))
		if err != nil {
			l.err = fmt.Errorf("reading node types: %w", err)
			return
		}
		l.types, l.err = ParseNodeTypes(l.Name, data)
	})
	return l.types, l.err
}

// Parse builds a syntax tree for content. Parsers are not safe for concurrent
// use, so each call creates its own. The caller must Close the tree.
func (l *Language) Parse(ctx context.Context, content []byte) (*sitter.Tree, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(l.lang)

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s source: %w", l.Name, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s source: no tree produced", l.Name)
	}
	return tree, nil
}

// Registry holds the languages with grammar support
type Registry struct {
	languages map[string]*Language
}

// NewRegistry returns a registry populated with the bundled grammars
func NewRegistry() *Registry {
	r := &Registry{languages: make(map[string]*Language)}
	r.add("python", python.GetLanguage())
	r.add("go", golang.GetLanguage())
	r.add("javascript", javascript.GetLanguage())
	r.add("typescript", typescript.GetLanguage())
	r.add("tsx", tsx.GetLanguage())
	r.add("rust", rust.GetLanguage())
	r.add("java", java.GetLanguage())
	r.add("c", c.GetLanguage())
	r.add("cpp", cpp.GetLanguage())
	r.add("ruby", ruby.GetLanguage())
	return r
}

func (r *Registry) add(name string, lang *sitter.Language) {
	r.languages[name] = &Language{Name: name, lang: lang}
}

// Get returns the grammar for a language
func (r *Registry) Get(name string) (*Language, bool) {
	l, ok := r.languages[name]
	return l, ok
}

// Names returns the supported languages in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.languages))
	for name := range r.languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeInfo returns the metadata for kind in language, if both are known
func (r *Registry) NodeInfo(language, kind string) (*NodeInfo, bool) {
	l, ok := r.languages[language]
	if !ok {
		return nil, false
	}
	nt, err := l.NodeTypes()
	if err != nil {
		return nil, false
	}
	return nt.Lookup(kind)
}

// Kinds returns every named kind of a language, or nil if it is unknown
func (r *Registry) Kinds(language string) []string {
	l, ok := r.languages[language]
	if !ok {
		return nil
	}
	nt, err := l.NodeTypes()
	if err != nil {
		return nil
	}
	return nt.Kinds()
}
