package delimiter

import (
	"fmt"
	"sort"
	"strings"
)

// Family groups languages that share comment, block, and definition syntax
type Family string

const (
	CStyle          Family = "c_style"
	PythonStyle     Family = "python_style"
	LispStyle       Family = "lisp_style"
	MLStyle         Family = "ml_style"
	MarkupStyle     Family = "markup_style"
	ShellStyle      Family = "shell_style"
	FunctionalStyle Family = "functional_style"
	LatexStyle      Family = "latex_style"
	RubyStyle       Family = "ruby_style"
	MatlabStyle     Family = "matlab_style"
	PlainText       Family = "plain_text"
	Unknown         Family = "unknown"
)

// Families lists every family in declaration order
func Families() []Family {
	return []Family{
		CStyle, PythonStyle, LispStyle, MLStyle, MarkupStyle, ShellStyle,
		FunctionalStyle, LatexStyle, RubyStyle, MatlabStyle, PlainText, Unknown,
	}
}

// ParseFamily accepts "c_style", "C_STYLE", or the short form "c"
func ParseFamily(name string) (Family, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, f := range Families() {
		if n == string(f) || n+"_style" == string(f) {
			return f, nil
		}
	}
	return Unknown, fmt.Errorf("unknown language family %q", name)
}

var languageFamilies = map[string]Family{
	"python":   PythonStyle,
	"starlark": PythonStyle,
	"mojo":     PythonStyle,
	"cython":   PythonStyle,
	"nim":      PythonStyle,
	"gdscript": PythonStyle,

	"c":          CStyle,
	"cpp":        CStyle,
	"csharp":     CStyle,
	"css":        CStyle,
	"scss":       CStyle,
	"less":       CStyle,
	"dart":       CStyle,
	"go":         CStyle,
	"groovy":     CStyle,
	"java":       CStyle,
	"javascript": CStyle,
	"typescript": CStyle,
	"kotlin":     CStyle,
	"objectivec": CStyle,
	"php":        CStyle,
	"rust":       CStyle,
	"scala":      CStyle,
	"solidity":   CStyle,
	"swift":      CStyle,
	"zig":        CStyle,
	"v":          CStyle,
	"hack":       CStyle,
	"apex":       CStyle,
	"qml":        CStyle,
	"jsonnet":    CStyle,
	"cuda":       CStyle,
	"glsl":       CStyle,
	"hlsl":       CStyle,
	"pkl":        CStyle,

	"bash":       ShellStyle,
	"sh":         ShellStyle,
	"zsh":        ShellStyle,
	"fish":       ShellStyle,
	"powershell": ShellStyle,
	"perl":       ShellStyle,
	"awk":        ShellStyle,
	"assembly":   ShellStyle,
	"asm":        ShellStyle,
	"dockerfile": ShellStyle,
	"make":       ShellStyle,
	"makefile":   ShellStyle,
	"cmake":      ShellStyle,
	"hcl":        ShellStyle,
	"terraform":  ShellStyle,
	"ini":        ShellStyle,
	"tcl":        ShellStyle,

	"ruby":    RubyStyle,
	"crystal": RubyStyle,
	"elixir":  RubyStyle,
	"lua":     RubyStyle,
	"luau":    RubyStyle,

	"haskell":    FunctionalStyle,
	"elm":        FunctionalStyle,
	"erlang":     FunctionalStyle,
	"sql":        FunctionalStyle,
	"nix":        FunctionalStyle,
	"purescript": FunctionalStyle,
	"idris":      FunctionalStyle,
	"agda":       FunctionalStyle,
	"gleam":      FunctionalStyle,

	"ocaml":  MLStyle,
	"fsharp": MLStyle,
	"coq":    MLStyle,
	"pascal": MLStyle,
	"sml":    MLStyle,
	"reason": MLStyle,

	"lisp":       LispStyle,
	"commonlisp": LispStyle,
	"clojure":    LispStyle,
	"scheme":     LispStyle,
	"racket":     LispStyle,
	"elisp":      LispStyle,
	"fennel":     LispStyle,

	"html":             MarkupStyle,
	"xml":              MarkupStyle,
	"markdown":         MarkupStyle,
	"restructuredtext": MarkupStyle,
	"rst":              MarkupStyle,
	"asciidoc":         MarkupStyle,
	"json":             MarkupStyle,
	"yaml":             MarkupStyle,
	"toml":             MarkupStyle,
	"protobuf":         MarkupStyle,
	"graphql":          MarkupStyle,
	"vue":              MarkupStyle,
	"svelte":           MarkupStyle,
	"astro":            MarkupStyle,
	"jsx":              MarkupStyle,
	"tsx":              MarkupStyle,
	"texinfo":          MarkupStyle,

	"latex":   LatexStyle,
	"tex":     LatexStyle,
	"bibtex":  LatexStyle,
	"context": LatexStyle,

	"matlab":  MatlabStyle,
	"octave":  MatlabStyle,
	"julia":   MatlabStyle,
	"r":       MatlabStyle,
	"fortran": MatlabStyle,

	"cobol":        Unknown,
	"visualbasic6": Unknown,
	"vbscript":     Unknown,
	"qb64":         Unknown,

	"csv":    PlainText,
	"tsv":    PlainText,
	"text":   PlainText,
	"txt":    PlainText,
	"plain":  PlainText,
	"newick": PlainText,
	"rtf":    PlainText,
}

// normalizeLanguage folds spacing and punctuation variants such as
// "C++", "c-sharp", and "Objective C" onto table keys.
func normalizeLanguage(language string) []string {
	l := strings.ToLower(strings.TrimSpace(language))
	variants := []string{l}

	replacer := strings.NewReplacer("++", "pp", "#", "sharp", "-", "", "_", "", " ", "", ".", "")
	if v := replacer.Replace(l); v != l {
		variants = append(variants, v)
	}
	return variants
}

// FamilyOf returns the family for a language name, or Unknown
func FamilyOf(language string) Family {
	for _, v := range normalizeLanguage(language) {
		if f, ok := languageFamilies[v]; ok {
			return f
		}
	}
	return Unknown
}

// KnownLanguage reports whether the language has a family table entry
func KnownLanguage(language string) bool {
	for _, v := range normalizeLanguage(language) {
		if _, ok := languageFamilies[v]; ok {
			return true
		}
	}
	return false
}

// LanguagesIn lists the languages mapped to a family, sorted
func LanguagesIn(f Family) []string {
	var out []string
	for lang, fam := range languageFamilies {
		if fam == f {
			out = append(out, lang)
		}
	}
	sort.Strings(out)
	return out
}
