package textsplit

var languageSeparators = map[string][]string{
	"markdown": {
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"```\n", "\n***\n", "\n---\n", "\n___\n",
		"\n\n", "\n", " ", "",
	},
	"latex": {
		"\n\\chapter{", "\n\\section{", "\n\\subsection{", "\n\\subsubsection{",
		"\n\\begin{enumerate}", "\n\\begin{itemize}", "\n\\begin{description}",
		"\n\\begin{list}", "\n\\begin{quote}", "\n\\begin{quotation}",
		"\n\\begin{verse}", "\n\\begin{verbatim}", "\n\\begin{align}",
		"$$", "$", " ", "",
	},
	"restructuredtext": {
		"\n===", "\n---", "\n***", "\n\n.. ",
		"\n\n", "\n", " ", "",
	},
	"protobuf": {
		"\nmessage ", "\nservice ", "\nenum ", "\noption ", "\nimport ", "\nsyntax ",
		"\n\n", "\n", " ", "",
	},
	"perl": {
		"\nsub ", "\nif ", "\nunless ", "\nwhile ", "\nuntil ", "\nfor ", "\nforeach ",
		"\n\n", "\n", " ", "",
	},
	"powershell": {
		"\nfunction ", "\nparam ", "\nif ", "\nforeach ", "\nfor ", "\nwhile ",
		"\nswitch ", "\nclass ", "\ntry ", "\ncatch ", "\nfinally ",
		"\n\n", "\n", " ", "",
	},
	"visualbasic6": {
		"\nSub ", "\nFunction ", "\nProperty ", "\nType ", "\nEnum ",
		"\nIf ", "\nFor ", "\nDo ", "\nWhile ", "\nSelect Case ",
		"\n\n", "\n", " ", "",
	},
	"html": {
		"<body", "<div", "<p", "<br", "<li",
		"<h1", "<h2", "<h3", "<h4", "<h5", "<h6",
		"<span", "<table", "<tr", "<td", "<th", "<ul", "<ol",
		"<header", "<footer", "<nav", "<head", "<style", "<script", "<meta", "<title",
		"",
	},
}

var separatorAliases = map[string]string{
	"md":    "markdown",
	"tex":   "latex",
	"rst":   "restructuredtext",
	"proto": "protobuf",
	"ps1":   "powershell",
	"vb6":   "visualbasic6",
	"htm":   "html",
}

// LanguageSeparators returns the structural separator list for languages
// that have one
func LanguageSeparators(language string) ([]string, bool) {
	if alias, ok := separatorAliases[language]; ok {
		language = alias
	}
	seps, ok := languageSeparators[language]
	return seps, ok
}

// SpecialLanguages lists languages with structural separators
func SpecialLanguages() []string {
	out := make([]string, 0, len(languageSeparators))
	for k := range languageSeparators {
		out = append(out, k)
	}
	return out
}
