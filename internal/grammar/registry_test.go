package grammar

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"c", "cpp", "go", "java", "javascript", "python", "ruby", "rust", "tsx", "typescript"}, r.Names())

	_, ok := r.Get("cobol")
	assert.False(t, ok)
}

func TestNodeTypes_Python(t *testing.T) {
	r := NewRegistry()
	lang, ok := r.Get("python")
	require.True(t, ok)

	nt, err := lang.NodeTypes()
	require.NoError(t, err)
	assert.NotEmpty(t, nt.Kinds())

	fn, ok := nt.Lookup("function_definition")
	require.True(t, ok)
	assert.False(t, fn.IsAbstract)
	assert.Equal(t, []string{"body", "name", "parameters", "return_type", "type_parameters"}, fn.FieldNames())
	assert.Empty(t, fn.AbstractCategory())

	decorated, ok := nt.Lookup("decorated_definition")
	require.True(t, ok)
	def := decorated.Fields["definition"]
	assert.ElementsMatch(t, []string{"class_definition", "function_definition"}, def.TypeNames())
	assert.Equal(t, []string{"decorator"}, decorated.Children.TypeNames())
	assert.True(t, decorated.Children.Multiple)

	expr, ok := nt.Lookup("expression")
	require.True(t, ok)
	assert.True(t, expr.IsAbstract)
	assert.Contains(t, expr.Subtypes, "primary_expression")

	comment, ok := nt.Lookup("comment")
	require.True(t, ok)
	assert.True(t, comment.IsExtra)
}

func TestNodeTypes_GoStatements(t *testing.T) {
	r := NewRegistry()
	stmt, ok := r.NodeInfo("go", "_statement")
	require.True(t, ok)
	assert.True(t, stmt.IsAbstract)
	assert.Subset(t, stmt.Subtypes, []string{"labeled_statement", "goto_statement", "_simple_statement"})

	simple, ok := r.NodeInfo("go", "_simple_statement")
	require.True(t, ok)
	assert.Subset(t, simple.Subtypes, []string{"send_statement", "inc_statement", "dec_statement"})

	labeled, ok := r.NodeInfo("go", "labeled_statement")
	require.True(t, ok)
	assert.True(t, labeled.HasField("label"))
	assert.Equal(t, []string{"_statement"}, labeled.AbstractCategories)
}

// Every visible named symbol a binding can produce has metadata
func TestNodeTypes_CoverGrammarSymbols(t *testing.T) {
	r := NewRegistry()
	for _, name := range r.Names() {
		t.Run(name, func(t *testing.T) {
			lang, ok := r.Get(name)
			require.True(t, ok)
			nt, err := lang.NodeTypes()
			require.NoError(t, err)

			for i := uint32(0); i < lang.lang.SymbolCount(); i++ {
				sym := sitter.Symbol(i)
				if lang.lang.SymbolType(sym) != sitter.SymbolTypeRegular {
					continue
				}
				kind := lang.lang.SymbolName(sym)
				_, ok := nt.Lookup(kind)
				assert.True(t, ok, "%s has no metadata for %s", name, kind)
			}
		})
	}
}

func TestNodeTypes_Extras(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		language string
		kind     string
	}{
		{"rust", "line_comment"},
		{"rust", "block_comment"},
		{"java", "block_comment"},
		{"ruby", "heredoc_body"},
		{"c", "comment"},
		{"typescript", "html_comment"},
	}
	for _, tt := range tests {
		info, ok := r.NodeInfo(tt.language, tt.kind)
		require.True(t, ok, "%s/%s", tt.language, tt.kind)
		assert.True(t, info.IsExtra, "%s/%s", tt.language, tt.kind)
		assert.Empty(t, info.AbstractCategories, "%s/%s", tt.language, tt.kind)
	}
}

func TestNodeTypes_MultipleSupertypes(t *testing.T) {
	r := NewRegistry()
	info, ok := r.NodeInfo("python", "identifier")
	require.True(t, ok)

	assert.ElementsMatch(t, []string{"parameter", "pattern", "primary_expression"}, info.AbstractCategories)
	assert.Equal(t, "parameter", info.AbstractCategory())
}

func TestParseNodeTypes_InvalidJSON(t *testing.T) {
	_, err := ParseNodeTypes("broken", []byte("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestParseNodeTypes_SkipsAnonymous(t *testing.T) {
	data := []byte(`[
		{"type": "(", "named": false},
		{"type": "call", "named": true, "fields": {"function": {"multiple": false, "required": true, "types": [{"type": "identifier", "named": true}]}}}
	]`)
	nt, err := ParseNodeTypes("test", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"call"}, nt.Kinds())
	call, ok := nt.Lookup("call")
	require.True(t, ok)
	assert.Equal(t, []string{"function"}, call.FieldNames())
	fn := call.Fields["function"]
	assert.Equal(t, []string{"identifier"}, fn.TypeNames())
	assert.Nil(t, call.Children.TypeNames())
}

func TestLanguage_Parse(t *testing.T) {
	r := NewRegistry()
	lang, ok := r.Get("go")
	require.True(t, ok)

	src := []byte("package main\n\nfunc main() {}\n")
	tree, err := lang.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "source_file", root.Type())
	require.Equal(t, uint32(2), root.NamedChildCount())
	assert.Equal(t, "package_clause", root.NamedChild(0).Type())
	assert.Equal(t, "function_declaration", root.NamedChild(1).Type())
}

func TestLanguage_ParseEachGrammar(t *testing.T) {
	sources := map[string]string{
		"c":          "int main(void) { return 0; }\n",
		"cpp":        "class A { int x; };\n",
		"java":       "class A { void f() {} }\n",
		"ruby":       "def f\n  1\nend\n",
		"rust":       "fn main() {}\n",
		"tsx":        "const a = <div />;\n",
		"typescript": "interface A { x: number }\n",
	}
	want := map[string]string{
		"c":          "function_definition",
		"cpp":        "class_specifier",
		"java":       "class_declaration",
		"ruby":       "method",
		"rust":       "function_item",
		"tsx":        "lexical_declaration",
		"typescript": "interface_declaration",
	}

	r := NewRegistry()
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			lang, ok := r.Get(name)
			require.True(t, ok)
			tree, err := lang.Parse(context.Background(), []byte(src))
			require.NoError(t, err)
			defer tree.Close()

			root := tree.RootNode()
			assert.False(t, root.HasError())
			require.Positive(t, root.NamedChildCount())
			assert.Equal(t, want[name], root.NamedChild(0).Type())
		})
	}
}
