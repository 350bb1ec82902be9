package delimiter

var (
	shellLoop = Pattern{
		Name:   "shell_loop",
		Starts: []string{"while", "until", "for", "do"},
		Ends:   []string{"done"},
		Kind:   KindLoop,
	}
	shellIf = Pattern{
		Name:   "shell_if",
		Starts: []string{"if"},
		Ends:   []string{"fi"},
		Kind:   KindConditional,
	}
	shellCase = Pattern{
		Name:   "shell_case",
		Starts: []string{"case"},
		Ends:   []string{"esac"},
		Kind:   KindConditional,
	}
	fishBlock = Pattern{
		Name:   "fish_block",
		Starts: []string{"while", "for", "if", "function", "switch", "begin"},
		Ends:   []string{"end"},
		Kind:   KindBlock,
	}
)

var customPatterns = map[string][]Pattern{
	"bash": {shellLoop, shellIf, shellCase},
	"sh":   {shellLoop, shellIf, shellCase},
	"zsh":  {shellLoop, shellIf, shellCase},
	"fish": {fishBlock},

	"python": {
		{
			Name:           "python_decorator",
			Starts:         []string{"@"},
			Ends:           []string{"\n"},
			Kind:           KindDecorator,
			Inclusive:      boolPtr(true),
			TakeWholeLines: boolPtr(false),
		},
	},

	"rust": {
		{Name: "rust_macro", Starts: []string{"macro_rules!"}, Ends: AnyEnd, Kind: KindFunction},
		{Name: "rust_attribute", Starts: []string{"#[", "#!["}, Ends: []string{"]"}, Kind: KindAnnotation, Inclusive: boolPtr(false)},
		{Name: "rust_impl", Starts: []string{"impl"}, Ends: AnyEnd, Kind: KindImplBlock, Nestable: boolPtr(true)},
		{Name: "rust_type", Starts: []string{"type"}, Ends: AnyEnd, Kind: KindTypeAlias},
	},

	"go": {
		{Name: "go_defer", Starts: []string{"defer", "go"}, Ends: AnyEnd, Kind: KindFunction},
		{Name: "go_type", Starts: []string{"type"}, Ends: AnyEnd, Kind: KindTypeAlias},
	},

	"ruby": {
		{Name: "ruby_do", Starts: []string{"do"}, Ends: []string{"end"}, Kind: KindBlock},
	},
	"crystal": {
		{Name: "crystal_do", Starts: []string{"do"}, Ends: []string{"end"}, Kind: KindBlock},
	},
	"elixir": {
		{Name: "elixir_do", Starts: []string{"do"}, Ends: []string{"end"}, Kind: KindBlock},
		{Name: "elixir_module", Starts: []string{"defmodule"}, Ends: []string{"end"}, Kind: KindModule},
		{Name: "elixir_private", Starts: []string{"defp"}, Ends: []string{"end"}, Kind: KindFunction},
	},
	"lua": {
		{Name: "lua_function", Starts: []string{"function"}, Ends: []string{"end"}, Kind: KindFunction},
		{Name: "lua_block", Starts: []string{"do"}, Ends: []string{"end"}, Kind: KindBlock},
		{Name: "lua_if", Starts: []string{"if"}, Ends: []string{"end"}, Kind: KindConditional},
		{Name: "lua_loop", Starts: []string{"for", "while"}, Ends: []string{"end"}, Kind: KindLoop},
		{Name: "lua_repeat", Starts: []string{"repeat"}, Ends: []string{"until"}, Kind: KindLoop},
	},

	"coq": {
		{Name: "coq_proof", Starts: []string{"Proof"}, Ends: []string{"Qed", "Defined", "Admitted"}, Kind: KindBlock},
		{Name: "coq_match", Starts: []string{"match"}, Ends: []string{"end"}, Kind: KindConditional},
		{Name: "coq_section", Starts: []string{"Section", "Module"}, Ends: []string{"End"}, Kind: KindModule},
	},

	"assembly": {
		{Name: "asm_comment", Starts: []string{";"}, Ends: []string{"\n"}, Kind: KindCommentLine},
	},
	"asm": {
		{Name: "asm_comment", Starts: []string{";"}, Ends: []string{"\n"}, Kind: KindCommentLine},
	},

	"cobol": {
		{
			Name:     "cobol_division",
			Starts:   []string{"IDENTIFICATION DIVISION", "ENVIRONMENT DIVISION", "DATA DIVISION", "PROCEDURE DIVISION"},
			Ends:     []string{"."},
			Kind:     KindModuleBoundary,
			Priority: 85,
		},
		{
			Name: "cobol_section",
			Starts: []string{
				"WORKING-STORAGE SECTION", "FILE SECTION", "LINKAGE SECTION",
				"LOCAL-STORAGE SECTION", "CONFIGURATION SECTION", "INPUT-OUTPUT SECTION",
			},
			Ends:     []string{"."},
			Kind:     KindModule,
			Priority: 80,
			Nestable: boolPtr(true),
		},
		{Name: "cobol_perform", Starts: []string{"PERFORM"}, Ends: []string{"END-PERFORM"}, Kind: KindLoop},
		{Name: "cobol_if", Starts: []string{"IF"}, Ends: []string{"END-IF"}, Kind: KindConditional},
		{Name: "cobol_evaluate", Starts: []string{"EVALUATE"}, Ends: []string{"END-EVALUATE"}, Kind: KindConditional},
		{Name: "cobol_search", Starts: []string{"SEARCH"}, Ends: []string{"END-SEARCH"}, Kind: KindLoop},
		{Name: "cobol_comment", Starts: []string{"*>"}, Ends: []string{"\n"}, Kind: KindCommentLine, TakeWholeLines: boolPtr(true)},
	},

	"perl": {
		{Name: "pod", Starts: []string{"=pod", "=begin", "=head1", "=head2"}, Ends: []string{"=cut"}, Kind: KindDocstring},
		{Name: "pod_list", Starts: []string{"=over"}, Ends: []string{"=back"}, Kind: KindDocstring},
	},

	"pkl": {
		{Name: "pkl_header", Starts: []string{`amends "`, `extends "`, `import "`}, Ends: []string{"\n\n"}, Kind: KindModuleBoundary},
		{Name: "pkl_doc", Starts: []string{"/// "}, Ends: []string{"\n"}, Kind: KindDocstring, Priority: 70},
	},

	"texinfo": {
		{
			Name:   "texinfo_node",
			Starts: []string{"@node", "@chapter", "@section", "@subsection", "@appendix", "@unnumbered"},
			Ends:   []string{"\n\n"},
			Kind:   KindBlock,
		},
	},

	"csv": {
		{Name: "csv_row", Starts: []string{","}, Ends: []string{"\n"}, Kind: KindArray, Priority: 30, Inclusive: boolPtr(false)},
	},
	"tsv": {
		{Name: "tsv_row", Starts: []string{"\t"}, Ends: []string{"\n"}, Kind: KindArray, Priority: 30, Inclusive: boolPtr(false)},
	},
}

// CustomPatterns returns the language-specific additions to the family table
func CustomPatterns(language string) []Pattern {
	for _, v := range normalizeLanguage(language) {
		if ps, ok := customPatterns[v]; ok {
			return ps
		}
	}
	return nil
}
