// Package delimiter defines start/end marker pairs per language family,
// expands them into per-language delimiter tables, detects a language family
// from content, and scans text for delimited regions.
package delimiter

import (
	"fmt"
	"strings"
)

// Kind is the semantic role of a delimited region
type Kind string

const (
	KindFunction       Kind = "function"
	KindClass          Kind = "class"
	KindMethod         Kind = "method"
	KindInterface      Kind = "interface"
	KindStruct         Kind = "struct"
	KindEnum           Kind = "enum"
	KindTypeAlias      Kind = "type_alias"
	KindImplBlock      Kind = "impl_block"
	KindExtension      Kind = "extension"
	KindNamespace      Kind = "namespace"
	KindModule         Kind = "module"
	KindModuleBoundary Kind = "module_boundary"

	KindConditional    Kind = "conditional"
	KindLoop           Kind = "loop"
	KindTryCatch       Kind = "try_catch"
	KindContextManager Kind = "context_manager"

	KindCommentLine  Kind = "comment_line"
	KindCommentBlock Kind = "comment_block"
	KindDocstring    Kind = "docstring"

	KindBlock Kind = "block"
	KindArray Kind = "array"
	KindTuple Kind = "tuple"

	KindString         Kind = "string"
	KindTemplateString Kind = "template_string"

	KindAnnotation Kind = "annotation"
	KindDecorator  Kind = "decorator"
	KindProperty   Kind = "property"
	KindPragma     Kind = "pragma"

	KindParagraph  Kind = "paragraph"
	KindWhitespace Kind = "whitespace"
	KindGeneric    Kind = "generic"
	KindUnknown    Kind = "unknown"
)

var defaultPriorities = map[Kind]uint32{
	KindModuleBoundary: 90,
	KindClass:          85,
	KindInterface:      80,
	KindTypeAlias:      75,
	KindImplBlock:      75,
	KindStruct:         75,
	KindExtension:      70,
	KindFunction:       70,
	KindProperty:       65,
	KindMethod:         65,
	KindEnum:           65,
	KindContextManager: 60,
	KindModule:         60,
	KindDocstring:      60,
	KindDecorator:      55,
	KindNamespace:      55,
	KindCommentBlock:   55,
	KindTryCatch:       50,
	KindLoop:           50,
	KindConditional:    50,
	KindParagraph:      40,
	KindBlock:          30,
	KindAnnotation:     30,
	KindArray:          25,
	KindTuple:          20,
	KindCommentLine:    20,
	KindTemplateString: 15,
	KindString:         10,
	KindPragma:         5,
	KindGeneric:        3,
	KindWhitespace:     1,
	KindUnknown:        1,
}

// ParseKind converts a name such as "function" or "FUNCTION" into a Kind
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if !k.Valid() {
		return KindUnknown, fmt.Errorf("unknown delimiter kind %q", name)
	}
	return k, nil
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	_, ok := defaultPriorities[k]
	return ok
}

// DefaultPriority is the priority used when a pattern does not override it
func (k Kind) DefaultPriority() uint32 {
	if p, ok := defaultPriorities[k]; ok {
		return p
	}
	return 1
}

func (k Kind) IsCodeElement() bool {
	switch k {
	case KindFunction, KindClass, KindMethod, KindInterface, KindStruct, KindEnum,
		KindTypeAlias, KindImplBlock, KindExtension, KindNamespace, KindModule, KindModuleBoundary:
		return true
	}
	return false
}

func (k Kind) IsStructure() bool {
	return k == KindBlock || k == KindArray || k == KindTuple
}

func (k Kind) IsControlFlow() bool {
	switch k {
	case KindConditional, KindLoop, KindTryCatch, KindContextManager:
		return true
	}
	return false
}

func (k Kind) IsCommentary() bool {
	return k == KindCommentLine || k == KindCommentBlock || k == KindDocstring
}

// IsGeneric reports kinds that describe split points rather than bounded regions
func (k Kind) IsGeneric() bool {
	switch k {
	case KindParagraph, KindWhitespace, KindGeneric, KindUnknown:
		return true
	}
	return false
}

func (k Kind) IsData() bool {
	return k == KindString || k == KindTemplateString
}

func (k Kind) IsMeta() bool {
	switch k {
	case KindAnnotation, KindDecorator, KindProperty, KindPragma, KindWhitespace:
		return true
	}
	return false
}

// Nestable reports whether regions of this kind may contain themselves
func (k Kind) Nestable() bool {
	switch k {
	case KindFunction, KindClass, KindInterface, KindStruct, KindEnum, KindImplBlock,
		KindExtension, KindNamespace, KindConditional, KindLoop, KindTryCatch,
		KindContextManager, KindBlock, KindArray, KindTuple, KindString, KindTemplateString:
		return true
	}
	return false
}

// LineStrategy controls how a matched region becomes chunk text
type LineStrategy struct {
	Inclusive      bool
	TakeWholeLines bool
}

// LineStrategy returns the default inclusion rules for the kind
func (k Kind) LineStrategy() LineStrategy {
	switch {
	case k.IsCodeElement() || k.IsControlFlow():
		return LineStrategy{Inclusive: true, TakeWholeLines: true}
	case k.IsStructure() || k.IsData() || k.IsMeta():
		return LineStrategy{Inclusive: false, TakeWholeLines: true}
	case k == KindCommentLine:
		return LineStrategy{Inclusive: true, TakeWholeLines: false}
	case k.IsCommentary():
		return LineStrategy{Inclusive: false, TakeWholeLines: true}
	default:
		return LineStrategy{}
	}
}
