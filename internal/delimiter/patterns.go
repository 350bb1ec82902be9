package delimiter

// Shared patterns. Families list these by reference; a pattern that appears
// in many families is less useful for family detection.
var (
	functionPattern = Pattern{
		Name:   "function",
		Starts: []string{"def", "function", "func", "fn", "fun", "sub", "proc", "defun", "defn"},
		Ends:   AnyEnd,
		Kind:   KindFunction,
	}
	classPattern = Pattern{
		Name:   "class",
		Starts: []string{"class"},
		Ends:   AnyEnd,
		Kind:   KindClass,
	}
	structPattern = Pattern{
		Name:   "struct",
		Starts: []string{"struct"},
		Ends:   AnyEnd,
		Kind:   KindStruct,
	}
	interfacePattern = Pattern{
		Name:   "interface",
		Starts: []string{"interface", "trait", "protocol"},
		Ends:   AnyEnd,
		Kind:   KindInterface,
	}
	enumPattern = Pattern{
		Name:   "enum",
		Starts: []string{"enum"},
		Ends:   AnyEnd,
		Kind:   KindEnum,
	}
	typeAliasPattern = Pattern{
		Name:   "type_alias",
		Starts: []string{"type", "typedef", "typealias"},
		Ends:   AnyEnd,
		Kind:   KindTypeAlias,
	}
	implPattern = Pattern{
		Name:   "impl",
		Starts: []string{"impl"},
		Ends:   AnyEnd,
		Kind:   KindImplBlock,
	}
	extensionPattern = Pattern{
		Name:   "extension",
		Starts: []string{"extension"},
		Ends:   AnyEnd,
		Kind:   KindExtension,
	}
	moduleBoundaryPattern = Pattern{
		Name:   "module_boundary",
		Starts: []string{"import", "package", "using", "require", "use", "#include"},
		Ends:   []string{"\n"},
		Kind:   KindModuleBoundary,
	}
	modulePattern = Pattern{
		Name:   "module",
		Starts: []string{"module"},
		Ends:   AnyEnd,
		Kind:   KindModule,
	}

	conditionalPattern = Pattern{
		Name:   "conditional",
		Starts: []string{"if", "switch", "match", "unless"},
		Ends:   AnyEnd,
		Kind:   KindConditional,
	}
	conditionalTexPattern = Pattern{
		Name:   "conditional_tex",
		Starts: []string{`\if`, `\ifx`, `\ifdefined`},
		Ends:   []string{`\fi`},
		Kind:   KindConditional,
	}
	loopPattern = Pattern{
		Name:   "loop",
		Starts: []string{"for", "while", "loop", "foreach"},
		Ends:   AnyEnd,
		Kind:   KindLoop,
	}
	tryCatchPattern = Pattern{
		Name:   "try_catch",
		Starts: []string{"try"},
		Ends:   AnyEnd,
		Kind:   KindTryCatch,
	}
	contextManagerPattern = Pattern{
		Name:   "context_manager",
		Starts: []string{"with"},
		Ends:   AnyEnd,
		Kind:   KindContextManager,
	}

	slashCommentPattern = Pattern{
		Name:   "slash_comment",
		Starts: []string{"//"},
		Ends:   []string{"\n"},
		Kind:   KindCommentLine,
	}
	hashCommentPattern = Pattern{
		Name:   "hash_comment",
		Starts: []string{"#"},
		Ends:   []string{"\n"},
		Kind:   KindCommentLine,
	}
	dashCommentPattern = Pattern{
		Name:   "dash_comment",
		Starts: []string{"--"},
		Ends:   []string{"\n"},
		Kind:   KindCommentLine,
	}
	semicolonCommentPattern = Pattern{
		Name:   "semicolon_comment",
		Starts: []string{";"},
		Ends:   []string{"\n"},
		Kind:   KindCommentLine,
	}
	percentCommentPattern = Pattern{
		Name:   "percent_comment",
		Starts: []string{"%"},
		Ends:   []string{"\n"},
		Kind:   KindCommentLine,
	}
	cBlockCommentPattern = Pattern{
		Name:   "c_block_comment",
		Starts: []string{"/*"},
		Ends:   []string{"*/"},
		Kind:   KindCommentBlock,
	}
	mlBlockCommentPattern = Pattern{
		Name:   "ml_block_comment",
		Starts: []string{"(*"},
		Ends:   []string{"*)"},
		Kind:   KindCommentBlock,
	}
	haskellBlockCommentPattern = Pattern{
		Name:   "haskell_block_comment",
		Starts: []string{"{-"},
		Ends:   []string{"-}"},
		Kind:   KindCommentBlock,
	}
	lispBlockCommentPattern = Pattern{
		Name:   "lisp_block_comment",
		Starts: []string{"#|"},
		Ends:   []string{"|#"},
		Kind:   KindCommentBlock,
	}
	htmlCommentPattern = Pattern{
		Name:   "html_comment",
		Starts: []string{"<!--"},
		Ends:   []string{"-->"},
		Kind:   KindCommentBlock,
	}

	docstringSlashPattern = Pattern{
		Name:   "docstring_slash",
		Starts: []string{"///", "//!"},
		Ends:   []string{"\n"},
		Kind:   KindDocstring,
	}
	docstringJavadocPattern = Pattern{
		Name:   "docstring_javadoc",
		Starts: []string{"/**"},
		Ends:   []string{"*/"},
		Kind:   KindDocstring,
	}
	docstringDoubleQuotePattern = Pattern{
		Name:   "docstring_double_quote",
		Starts: []string{`"""`},
		Ends:   []string{`"""`},
		Kind:   KindDocstring,
	}
	docstringSingleQuotePattern = Pattern{
		Name:   "docstring_single_quote",
		Starts: []string{`'''`},
		Ends:   []string{`'''`},
		Kind:   KindDocstring,
	}
	docstringHashPattern = Pattern{
		Name:   "docstring_hash",
		Starts: []string{"##"},
		Ends:   []string{"\n"},
		Kind:   KindDocstring,
	}
	docstringSemicolonPattern = Pattern{
		Name:   "docstring_semicolon",
		Starts: []string{";;;"},
		Ends:   []string{"\n"},
		Kind:   KindDocstring,
	}
	docstringRubyPattern = Pattern{
		Name:   "docstring_ruby",
		Starts: []string{"=begin"},
		Ends:   []string{"=end"},
		Kind:   KindDocstring,
	}
	docstringMatlabPattern = Pattern{
		Name:   "docstring_matlab",
		Starts: []string{"%{"},
		Ends:   []string{"%}"},
		Kind:   KindDocstring,
	}

	braceBlockPattern = Pattern{
		Name:   "brace_block",
		Starts: []string{"{"},
		Ends:   []string{"}"},
		Kind:   KindBlock,
	}
	letEndBlockPattern = Pattern{
		Name:   "let_end_block",
		Starts: []string{"let"},
		Ends:   []string{"in", "end"},
		Kind:   KindBlock,
	}
	beginEndBlockPattern = Pattern{
		Name:   "begin_end_block",
		Starts: []string{"begin"},
		Ends:   []string{"end"},
		Kind:   KindBlock,
	}
	latexBlockPattern = Pattern{
		Name:   "latex_block",
		Starts: []string{`\begin{`},
		Ends:   []string{`\end{`},
		Kind:   KindBlock,
	}
	latexSectionPattern = Pattern{
		Name:   "latex_section",
		Starts: []string{`\part`, `\chapter`, `\section`, `\subsection`, `\subsubsection`},
		Ends:   AnyEnd,
		Kind:   KindNamespace,
	}
	arrayPattern = Pattern{
		Name:   "array",
		Starts: []string{"["},
		Ends:   []string{"]"},
		Kind:   KindArray,
	}
	tuplePattern = Pattern{
		Name:   "tuple",
		Starts: []string{"("},
		Ends:   []string{")"},
		Kind:   KindTuple,
	}

	decoratorPattern = Pattern{
		Name:   "decorator",
		Starts: []string{"@"},
		Ends:   []string{"\n"},
		Kind:   KindDecorator,
	}
	propertyPattern = Pattern{
		Name:   "property",
		Starts: []string{"@property"},
		Ends:   []string{"\n"},
		Kind:   KindProperty,
	}
	pragmaPattern = Pattern{
		Name:   "pragma",
		Starts: []string{"#pragma", "#define", "#undef"},
		Ends:   []string{"\n"},
		Kind:   KindPragma,
	}

	doubleQuotePattern = Pattern{
		Name:   "string_double_quote",
		Starts: []string{`"`},
		Ends:   []string{`"`},
		Kind:   KindString,
	}
	singleQuotePattern = Pattern{
		Name:   "string_single_quote",
		Starts: []string{`'`},
		Ends:   []string{`'`},
		Kind:   KindString,
	}
	rawStringPattern = Pattern{
		Name:   "string_raw",
		Starts: []string{`r"`, `R"`},
		Ends:   []string{`"`},
		Kind:   KindString,
	}
	formattedStringPattern = Pattern{
		Name:   "string_formatted",
		Starts: []string{`f"`, `F"`},
		Ends:   []string{`"`},
		Kind:   KindString,
	}
	rawFormattedStringPattern = Pattern{
		Name:   "string_raw_formatted",
		Starts: []string{`rf"`, `fr"`},
		Ends:   []string{`"`},
		Kind:   KindString,
	}
	bytesStringPattern = Pattern{
		Name:   "string_bytes",
		Starts: []string{`b"`},
		Ends:   []string{`"`},
		Kind:   KindString,
	}
	rawBytesStringPattern = Pattern{
		Name:   "string_raw_bytes",
		Starts: []string{`rb"`, `br"`},
		Ends:   []string{`"`},
		Kind:   KindString,
	}
	hashStringPattern = Pattern{
		Name:   "string_hash",
		Starts: []string{`#"`},
		Ends:   []string{`"`},
		Kind:   KindString,
	}
	backtickStringPattern = Pattern{
		Name:   "string_backtick",
		Starts: []string{"`"},
		Ends:   []string{"`"},
		Kind:   KindTemplateString,
	}

	templateAnglePattern = Pattern{
		Name:   "template_angle",
		Starts: []string{"<"},
		Ends:   []string{">"},
		Kind:   KindTemplateString,
	}
	templateBracePattern = Pattern{
		Name:   "template_brace",
		Starts: []string{"{{"},
		Ends:   []string{"}}"},
		Kind:   KindTemplateString,
	}
	templateBracketPattern = Pattern{
		Name:   "template_bracket",
		Starts: []string{"[["},
		Ends:   []string{"]]"},
		Kind:   KindTemplateString,
	}
	templatePercentPattern = Pattern{
		Name:   "template_percent",
		Starts: []string{"{%"},
		Ends:   []string{"%}"},
		Kind:   KindTemplateString,
	}

	// Split points for text splitting. Scanning skips these kinds.
	paragraphPattern = Pattern{
		Name:   "paragraph",
		Starts: []string{"\n\n"},
		Ends:   AnyEnd,
		Kind:   KindParagraph,
	}
	newlinePattern = Pattern{
		Name:   "newline",
		Starts: []string{"\n"},
		Ends:   AnyEnd,
		Kind:   KindGeneric,
	}
	whitespacePattern = Pattern{
		Name:   "whitespace",
		Starts: []string{" "},
		Ends:   AnyEnd,
		Kind:   KindWhitespace,
	}
	emptyPattern = Pattern{
		Name:   "empty",
		Starts: []string{""},
		Ends:   AnyEnd,
		Kind:   KindGeneric,
	}
)

var specialPatterns = []Pattern{paragraphPattern, newlinePattern, whitespacePattern, emptyPattern}

func withSpecials(ps ...Pattern) []Pattern {
	return append(ps, specialPatterns...)
}

var familyPatterns = map[Family][]Pattern{
	CStyle: withSpecials(
		functionPattern, classPattern, structPattern, interfacePattern, enumPattern,
		typeAliasPattern, implPattern, extensionPattern, moduleBoundaryPattern,
		conditionalPattern, loopPattern, tryCatchPattern, contextManagerPattern,
		slashCommentPattern, cBlockCommentPattern, docstringSlashPattern, docstringJavadocPattern,
		braceBlockPattern, arrayPattern, tuplePattern, pragmaPattern,
		doubleQuotePattern, singleQuotePattern, rawStringPattern,
	),
	PythonStyle: withSpecials(
		functionPattern, classPattern, typeAliasPattern, moduleBoundaryPattern,
		conditionalPattern, loopPattern, tryCatchPattern, contextManagerPattern,
		hashCommentPattern, docstringDoubleQuotePattern, docstringSingleQuotePattern, docstringHashPattern,
		arrayPattern, tuplePattern, decoratorPattern, propertyPattern,
		doubleQuotePattern, singleQuotePattern, rawStringPattern, formattedStringPattern,
		rawFormattedStringPattern, bytesStringPattern, rawBytesStringPattern,
	),
	MLStyle: withSpecials(
		functionPattern, modulePattern, structPattern, conditionalPattern, loopPattern,
		mlBlockCommentPattern, letEndBlockPattern, beginEndBlockPattern,
		arrayPattern, tuplePattern, doubleQuotePattern,
	),
	LispStyle: withSpecials(
		functionPattern, modulePattern, semicolonCommentPattern, docstringSemicolonPattern,
		lispBlockCommentPattern, tuplePattern, arrayPattern, doubleQuotePattern, hashStringPattern,
	),
	MarkupStyle: withSpecials(
		htmlCommentPattern, templateAnglePattern, templateBracePattern, templateBracketPattern,
		templatePercentPattern, doubleQuotePattern, singleQuotePattern, backtickStringPattern,
	),
	ShellStyle: withSpecials(
		functionPattern, conditionalPattern, loopPattern, hashCommentPattern,
		braceBlockPattern, arrayPattern, tuplePattern,
		doubleQuotePattern, singleQuotePattern, rawStringPattern,
	),
	FunctionalStyle: withSpecials(
		functionPattern, classPattern, modulePattern, typeAliasPattern, conditionalPattern,
		dashCommentPattern, haskellBlockCommentPattern, letEndBlockPattern,
		arrayPattern, tuplePattern, doubleQuotePattern,
	),
	LatexStyle: withSpecials(
		latexSectionPattern, conditionalTexPattern, percentCommentPattern, latexBlockPattern,
		braceBlockPattern, arrayPattern,
	),
	RubyStyle: withSpecials(
		functionPattern, classPattern, modulePattern, conditionalPattern, loopPattern,
		tryCatchPattern, hashCommentPattern, docstringRubyPattern, beginEndBlockPattern,
		arrayPattern, tuplePattern, doubleQuotePattern, singleQuotePattern,
		rawStringPattern, formattedStringPattern,
	),
	MatlabStyle: withSpecials(
		functionPattern, conditionalPattern, loopPattern, percentCommentPattern,
		docstringMatlabPattern, arrayPattern, braceBlockPattern, tuplePattern, doubleQuotePattern,
	),
	PlainText: withSpecials(),
	Unknown: withSpecials(
		braceBlockPattern, arrayPattern, tuplePattern,
	),
}

// Patterns returns the pattern list for a family
func Patterns(f Family) []Pattern {
	return familyPatterns[f]
}
