// Package semantic classifies grammar node kinds into language-agnostic
// categories and scores their importance for chunking.
package semantic

import (
	"fmt"
	"strings"
)

// Category is the language-agnostic role of a grammar node kind
type Category string

const (
	DefinitionCallable      Category = "DEFINITION_CALLABLE"
	DefinitionType          Category = "DEFINITION_TYPE"
	DefinitionData          Category = "DEFINITION_DATA"
	DefinitionTest          Category = "DEFINITION_TEST"
	BoundaryModule          Category = "BOUNDARY_MODULE"
	BoundaryError           Category = "BOUNDARY_ERROR"
	BoundaryResource        Category = "BOUNDARY_RESOURCE"
	DocumentationStructured Category = "DOCUMENTATION_STRUCTURED"
	FlowBranching           Category = "FLOW_BRANCHING"
	FlowIteration           Category = "FLOW_ITERATION"
	FlowControl             Category = "FLOW_CONTROL"
	FlowAsync               Category = "FLOW_ASYNC"
	OperationInvocation     Category = "OPERATION_INVOCATION"
	OperationData           Category = "OPERATION_DATA"
	OperationOperator       Category = "OPERATION_OPERATOR"
	ExpressionAnonymous     Category = "EXPRESSION_ANONYMOUS"
	SyntaxKeyword           Category = "SYNTAX_KEYWORD"
	SyntaxIdentifier        Category = "SYNTAX_IDENTIFIER"
	SyntaxLiteral           Category = "SYNTAX_LITERAL"
	SyntaxAnnotation        Category = "SYNTAX_ANNOTATION"
	SyntaxPunctuation       Category = "SYNTAX_PUNCTUATION"
	SyntaxComment           Category = "SYNTAX_COMMENT"
	SyntaxWhitespace        Category = "SYNTAX_WHITESPACE"
	Unknown                 Category = "UNKNOWN"
)

// Tier ranks categories by importance. Lower values are more important.
type Tier int

const (
	TierPrimaryDefinitions    Tier = 1
	TierBehavioralContracts   Tier = 2
	TierControlFlowLogic      Tier = 3
	TierOperationsExpressions Tier = 4
	TierSyntaxReferences      Tier = 5
)

func (t Tier) String() string {
	switch t {
	case TierPrimaryDefinitions:
		return "PRIMARY_DEFINITIONS"
	case TierBehavioralContracts:
		return "BEHAVIORAL_CONTRACTS"
	case TierControlFlowLogic:
		return "CONTROL_FLOW_LOGIC"
	case TierOperationsExpressions:
		return "OPERATIONS_EXPRESSIONS"
	case TierSyntaxReferences:
		return "SYNTAX_REFERENCES"
	default:
		return fmt.Sprintf("TIER(%d)", int(t))
	}
}

// Group clusters related categories
type Group string

const (
	GroupCallable         Group = "CALLABLE"
	GroupTypeDef          Group = "TYPE_DEF"
	GroupData             Group = "DATA"
	GroupControlFlow      Group = "CONTROL_FLOW"
	GroupOperation        Group = "OPERATION"
	GroupBoundary         Group = "BOUNDARY"
	GroupDocumentation    Group = "DOCUMENTATION"
	GroupSyntaxReferences Group = "SYNTAX_REFERENCES"
	GroupUnknown          Group = "UNKNOWN"
)

type categoryInfo struct {
	group  Group
	tier   Tier
	scores ImportanceScores
}

// ordered lists every category from most to least important. Position
// doubles as the tie-breaking priority used during classification.
var ordered = []Category{
	DefinitionCallable,
	DefinitionType,
	DefinitionData,
	DefinitionTest,
	BoundaryModule,
	BoundaryError,
	BoundaryResource,
	DocumentationStructured,
	FlowBranching,
	FlowIteration,
	FlowControl,
	FlowAsync,
	OperationInvocation,
	OperationData,
	OperationOperator,
	ExpressionAnonymous,
	SyntaxKeyword,
	SyntaxIdentifier,
	SyntaxLiteral,
	SyntaxAnnotation,
	SyntaxPunctuation,
	SyntaxComment,
	SyntaxWhitespace,
	Unknown,
}

func sc(discovery, comprehension, modification, debugging, documentation float64) ImportanceScores {
	return ImportanceScores{
		Discovery:     discovery,
		Comprehension: comprehension,
		Modification:  modification,
		Debugging:     debugging,
		Documentation: documentation,
	}
}

var categories = map[Category]categoryInfo{
	DefinitionCallable:      {GroupCallable, TierPrimaryDefinitions, sc(0.95, 0.92, 0.85, 0.85, 0.92)},
	DefinitionType:          {GroupTypeDef, TierPrimaryDefinitions, sc(0.95, 0.92, 0.90, 0.80, 0.92)},
	DefinitionData:          {GroupData, TierPrimaryDefinitions, sc(0.85, 0.88, 0.80, 0.65, 0.90)},
	DefinitionTest:          {GroupCallable, TierPrimaryDefinitions, sc(0.88, 0.90, 0.70, 0.90, 0.85)},
	BoundaryModule:          {GroupBoundary, TierBehavioralContracts, sc(0.85, 0.80, 0.85, 0.60, 0.75)},
	BoundaryError:           {GroupBoundary, TierBehavioralContracts, sc(0.70, 0.85, 0.75, 0.95, 0.70)},
	BoundaryResource:        {GroupBoundary, TierBehavioralContracts, sc(0.65, 0.80, 0.80, 0.90, 0.65)},
	DocumentationStructured: {GroupDocumentation, TierBehavioralContracts, sc(0.55, 0.75, 0.50, 0.40, 0.95)},
	FlowBranching:           {GroupControlFlow, TierControlFlowLogic, sc(0.60, 0.75, 0.65, 0.90, 0.50)},
	FlowIteration:           {GroupControlFlow, TierControlFlowLogic, sc(0.50, 0.70, 0.65, 0.80, 0.45)},
	FlowControl:             {GroupControlFlow, TierControlFlowLogic, sc(0.45, 0.65, 0.55, 0.90, 0.35)},
	FlowAsync:               {GroupControlFlow, TierControlFlowLogic, sc(0.65, 0.80, 0.75, 0.85, 0.60)},
	OperationInvocation:     {GroupOperation, TierOperationsExpressions, sc(0.45, 0.65, 0.45, 0.75, 0.25)},
	OperationData:           {GroupOperation, TierOperationsExpressions, sc(0.35, 0.55, 0.50, 0.70, 0.25)},
	OperationOperator:       {GroupOperation, TierOperationsExpressions, sc(0.25, 0.45, 0.35, 0.60, 0.25)},
	ExpressionAnonymous:     {GroupOperation, TierOperationsExpressions, sc(0.40, 0.65, 0.50, 0.60, 0.45)},
	SyntaxKeyword:           {GroupSyntaxReferences, TierSyntaxReferences, sc(0.05, 0.10, 0.10, 0.15, 0.05)},
	SyntaxIdentifier:        {GroupSyntaxReferences, TierSyntaxReferences, sc(0.25, 0.40, 0.25, 0.45, 0.20)},
	SyntaxLiteral:           {GroupSyntaxReferences, TierSyntaxReferences, sc(0.15, 0.20, 0.15, 0.40, 0.20)},
	SyntaxAnnotation:        {GroupSyntaxReferences, TierSyntaxReferences, sc(0.35, 0.45, 0.60, 0.40, 0.40)},
	SyntaxPunctuation:       {GroupSyntaxReferences, TierSyntaxReferences, sc(0.01, 0.02, 0.15, 0.20, 0.05)},
	SyntaxComment:           {GroupSyntaxReferences, TierSyntaxReferences, sc(0.20, 0.45, 0.20, 0.25, 0.60)},
	SyntaxWhitespace:        {GroupSyntaxReferences, TierSyntaxReferences, sc(0.01, 0.01, 0.01, 0.01, 0.01)},
	Unknown:                 {GroupUnknown, TierSyntaxReferences, sc(0, 0, 0, 0, 0)},
}

// AllCategories returns every category from most to least important
func AllCategories() []Category {
	out := make([]Category, len(ordered))
	copy(out, ordered)
	return out
}

// ParseCategory converts a name such as "definition_callable" into a Category
func ParseCategory(name string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(name)))
	if !c.Valid() {
		return Unknown, fmt.Errorf("unknown semantic category %q", name)
	}
	return c, nil
}

// Valid reports whether c is a member of the closed category set
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

func (c Category) info() categoryInfo {
	if info, ok := categories[c]; ok {
		return info
	}
	return categories[Unknown]
}

func (c Category) Tier() Tier                      { return c.info().tier }
func (c Category) Group() Group                    { return c.info().group }
func (c Category) DefaultScores() ImportanceScores { return c.info().scores }

// Priority is the category's rank for tie-breaking. Higher wins.
func (c Category) Priority() int {
	for i, o := range ordered {
		if o == c {
			return len(ordered) - i
		}
	}
	return 0
}

// IsDefinition reports whether c is in the primary definitions tier
func (c Category) IsDefinition() bool {
	return c.Tier() == TierPrimaryDefinitions
}

// IsControlFlow reports whether c is a flow category
func (c Category) IsControlFlow() bool {
	return c.Group() == GroupControlFlow
}

// IsDocumentation reports whether c carries documentation
func (c Category) IsDocumentation() bool {
	return c == DocumentationStructured || c == SyntaxComment
}
