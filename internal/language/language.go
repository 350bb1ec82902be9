// Package language maps file paths to canonical language names.
package language

import (
	"path/filepath"
	"strings"
)

// extensions lists the file extensions of each language
var extensions = map[string][]string{
	"c":                {".c", ".h"},
	"cpp":              {".cc", ".cpp", ".cxx", ".hpp", ".hh", ".hxx"},
	"csharp":           {".cs"},
	"java":             {".java"},
	"kotlin":           {".kt", ".kts"},
	"scala":            {".scala", ".sc"},
	"go":               {".go"},
	"rust":             {".rs"},
	"swift":            {".swift"},
	"dart":             {".dart"},
	"zig":              {".zig"},
	"javascript":       {".js", ".mjs", ".cjs", ".jsx"},
	"typescript":       {".ts", ".mts", ".cts"},
	"tsx":              {".tsx"},
	"php":              {".php"},
	"groovy":           {".groovy", ".gradle"},
	"solidity":         {".sol"},
	"protobuf":         {".proto"},
	"css":              {".css", ".scss", ".less"},
	"coq":              {".v"},
	"python":           {".py", ".pyi", ".pyw"},
	"nim":              {".nim"},
	"cobol":            {".cobol", ".cbl", ".cob"},
	"ruby":             {".rb", ".rake", ".gemspec"},
	"elixir":           {".ex", ".exs"},
	"lua":              {".lua"},
	"crystal":          {".cr"},
	"julia":            {".jl"},
	"matlab":           {".m"},
	"r":                {".r"},
	"bash":             {".sh", ".bash"},
	"zsh":              {".zsh"},
	"fish":             {".fish"},
	"powershell":       {".ps1", ".psm1"},
	"perl":             {".pl", ".pm"},
	"assembly":         {".asm", ".s"},
	"haskell":          {".hs", ".lhs"},
	"elm":              {".elm"},
	"ocaml":            {".ml", ".mli"},
	"fsharp":           {".fs", ".fsi", ".fsx"},
	"clojure":          {".clj", ".cljs", ".edn"},
	"lisp":             {".lisp"},
	"elisp":            {".el"},
	"scheme":           {".scm"},
	"racket":           {".rkt"},
	"erlang":           {".erl", ".hrl"},
	"sql":              {".sql"},
	"markdown":         {".md", ".markdown"},
	"restructuredtext": {".rst"},
	"latex":            {".tex", ".sty", ".cls"},
	"html":             {".html", ".htm"},
	"xml":              {".xml", ".svg"},
	"json":             {".json"},
	"yaml":             {".yaml", ".yml"},
	"toml":             {".toml"},
	"csv":              {".csv"},
	"tsv":              {".tsv"},
	"plaintext":        {".txt"},
	"vue":              {".vue"},
	"svelte":           {".svelte"},
	"visualbasic6":     {".bas", ".frm"},
	"hcl":              {".hcl", ".tf"},
}

// byExtension is the inverse of extensions
var byExtension = func() map[string]string {
	m := make(map[string]string)
	for lang, exts := range extensions {
		for _, ext := range exts {
			m[ext] = lang
		}
	}
	return m
}()

// filenames maps well-known extensionless file names to language names
var filenames = map[string]string{
	"makefile":   "make",
	"dockerfile": "dockerfile",
	"gemfile":    "ruby",
	"rakefile":   "ruby",
	"justfile":   "just",
}

// aliases maps alternate spellings to canonical language names
var aliases = map[string]string{
	"py":         "python",
	"python3":    "python",
	"golang":     "go",
	"js":         "javascript",
	"node":       "javascript",
	"ts":         "typescript",
	"sh":         "bash",
	"shell":      "bash",
	"c++":        "cpp",
	"c#":         "csharp",
	"cs":         "csharp",
	"rb":         "ruby",
	"rs":         "rust",
	"md":         "markdown",
	"rst":        "restructuredtext",
	"tex":        "latex",
	"yml":        "yaml",
	"proto":      "protobuf",
	"ps1":        "powershell",
	"pwsh":       "powershell",
	"vb6":        "visualbasic6",
	"text":       "plaintext",
	"txt":        "plaintext",
	"emacs-lisp": "elisp",
}

// Normalize returns the canonical form of a language name
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[n]; ok {
		return canonical
	}
	return n
}

// FromPath detects a language from a file path. It returns "" when the
// extension is not recognized.
func FromPath(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if lang, ok := filenames[base]; ok {
		return lang
	}
	return byExtension[filepath.Ext(base)]
}

// Resolve returns the explicit language when set, otherwise the language
// detected from the path
func Resolve(explicit, path string) string {
	if explicit != "" {
		return Normalize(explicit)
	}
	return FromPath(path)
}

// Extensions returns the known extensions for a language
func Extensions(lang string) []string {
	return extensions[Normalize(lang)]
}

// Known reports whether the language has registered extensions
func Known(lang string) bool {
	_, ok := extensions[Normalize(lang)]
	return ok
}
