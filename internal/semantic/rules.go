package semantic

import "strings"

// abstractEntry maps a normalised supertype name to a category
type abstractEntry struct {
	category Category
	weight   int
}

var abstractTable = map[string]abstractEntry{
	"type":               {DefinitionType, 70},
	"type_specifier":     {DefinitionType, 68},
	"simple_type":        {DefinitionType, 66},
	"declaration":        {DefinitionData, 65},
	"parameter":          {DefinitionData, 55},
	"expression":         {OperationOperator, 50},
	"primary_expression": {OperationOperator, 45},
	"pattern":            {FlowBranching, 40},
	"literal":            {SyntaxLiteral, 20},
	"argument":           {SyntaxAnnotation, 15},
	"identifier":         {SyntaxIdentifier, 10},
}

// declaratorEntry applies to any supertype ending in "declarator"
var declaratorEntry = abstractEntry{DefinitionData, 60}

// statementContainers only say where a kind may appear, not what it does
var statementContainers = map[string]bool{
	"statement":          true,
	"compound_statement": true,
	"simple_statement":   true,
}

func lookupAbstract(name string) (abstractEntry, bool) {
	if e, ok := abstractTable[name]; ok {
		return e, true
	}
	if strings.HasSuffix(name, "declarator") {
		return declaratorEntry, true
	}
	return abstractEntry{}, false
}

// fieldSignature matches kinds that declare every field in all. When any is
// non-empty, at least one of those fields must also be declared.
type fieldSignature struct {
	all      []string
	any      []string
	category Category
	weight   float64
}

var fieldSignatures = []fieldSignature{
	{all: []string{"parameters", "body"}, category: DefinitionCallable, weight: 3},
	{all: []string{"name", "body"}, any: []string{"superclass", "superclasses", "interfaces", "base", "bases", "heritage"}, category: DefinitionType, weight: 4},
	{all: []string{"name", "type", "type_parameters"}, category: DefinitionType, weight: 2.5},
	{all: []string{"name", "body"}, category: DefinitionType, weight: 1.5},
	{all: []string{"condition", "consequence"}, category: FlowBranching, weight: 3},
	{all: []string{"subject", "body"}, category: FlowBranching, weight: 3},
	{all: []string{"value", "body"}, category: FlowBranching, weight: 2},
	{all: []string{"left", "right", "body"}, category: FlowIteration, weight: 3},
	{all: []string{"condition", "body"}, category: FlowIteration, weight: 2},
	{all: []string{"left", "operator", "right"}, category: OperationOperator, weight: 3},
	{all: []string{"argument", "operator"}, category: OperationOperator, weight: 2},
	{all: []string{"operand", "operator"}, category: OperationOperator, weight: 2},
	{all: []string{"left", "right"}, category: OperationData, weight: 2},
	{all: []string{"object", "property"}, category: OperationData, weight: 2},
	{all: []string{"key", "value"}, category: OperationData, weight: 2},
	{all: []string{"function", "arguments"}, category: OperationInvocation, weight: 3},
	{all: []string{"name", "value"}, category: DefinitionData, weight: 2},
	{all: []string{"name", "type"}, category: DefinitionData, weight: 2},
	{all: []string{"declarator", "type"}, category: DefinitionData, weight: 2},
	{all: []string{"type", "value"}, category: DefinitionData, weight: 2},
	{all: []string{"module_name"}, category: BoundaryModule, weight: 2},
	{all: []string{"source"}, category: BoundaryModule, weight: 2},
	{all: []string{"path"}, category: BoundaryModule, weight: 2},
	{all: []string{"handler"}, category: BoundaryError, weight: 3},
	{all: []string{"finalizer"}, category: BoundaryError, weight: 3},
}

func (fs fieldSignature) matches(has func(string) bool) bool {
	for _, f := range fs.all {
		if !has(f) {
			return false
		}
	}
	if len(fs.any) == 0 {
		return true
	}
	for _, f := range fs.any {
		if has(f) {
			return true
		}
	}
	return false
}

// anyLanguage applies an override to every language
const anyLanguage = "*"

// builtinOverrides captures idioms the generic rules cannot see
var builtinOverrides = map[string]map[string]Category{
	anyLanguage: {
		"return_statement":      FlowControl,
		"break_statement":       FlowControl,
		"continue_statement":    FlowControl,
		"goto_statement":        FlowControl,
		"fallthrough_statement": FlowControl,
		"raise_statement":       FlowControl,
		"throw_statement":       FlowControl,
	},
	"python": {
		"decorated_definition":    DefinitionCallable,
		"decorator":               SyntaxAnnotation,
		"import_statement":        BoundaryModule,
		"import_from_statement":   BoundaryModule,
		"future_import_statement": BoundaryModule,
		"try_statement":           BoundaryError,
		"with_statement":          BoundaryResource,
		"lambda":                  ExpressionAnonymous,
		"await":                   FlowAsync,
		"block":                   FlowControl,
	},
	"go": {
		"package_clause":              BoundaryModule,
		"import_declaration":          BoundaryModule,
		"type_declaration":            DefinitionType,
		"const_declaration":           DefinitionData,
		"var_declaration":             DefinitionData,
		"for_statement":               FlowIteration,
		"expression_switch_statement": FlowBranching,
		"type_switch_statement":       FlowBranching,
		"select_statement":            FlowAsync,
		"go_statement":                FlowAsync,
		"defer_statement":             BoundaryResource,
		"func_literal":                ExpressionAnonymous,
	},
	"javascript": {
		"import_statement":    BoundaryModule,
		"export_statement":    BoundaryModule,
		"arrow_function":      ExpressionAnonymous,
		"function_expression": ExpressionAnonymous,
		"await_expression":    FlowAsync,
	},
	"typescript": typescriptOverrides,
	"tsx":        typescriptOverrides,
	"rust": {
		"use_declaration":          BoundaryModule,
		"extern_crate_declaration": BoundaryModule,
		"mod_item":                 BoundaryModule,
		"impl_item":                DefinitionType,
		"macro_definition":         DefinitionCallable,
		"function_signature_item":  DefinitionCallable,
		"attribute_item":           SyntaxAnnotation,
		"inner_attribute_item":     SyntaxAnnotation,
		"macro_invocation":         OperationInvocation,
		"if_expression":            FlowBranching,
		"match_expression":         FlowBranching,
		"for_expression":           FlowIteration,
		"while_expression":         FlowIteration,
		"loop_expression":          FlowIteration,
		"return_expression":        FlowControl,
		"break_expression":         FlowControl,
		"continue_expression":      FlowControl,
		"await_expression":         FlowAsync,
		"async_block":              FlowAsync,
		"unsafe_block":             BoundaryResource,
		"try_expression":           BoundaryError,
		"closure_expression":       ExpressionAnonymous,
		"block":                    FlowControl,
	},
	"java": {
		"package_declaration":          BoundaryModule,
		"import_declaration":           BoundaryModule,
		"module_declaration":           BoundaryModule,
		"method_declaration":           DefinitionCallable,
		"constructor_declaration":      DefinitionCallable,
		"annotation":                   SyntaxAnnotation,
		"marker_annotation":            SyntaxAnnotation,
		"try_statement":                BoundaryError,
		"try_with_resources_statement": BoundaryResource,
		"synchronized_statement":       BoundaryResource,
		"enhanced_for_statement":       FlowIteration,
		"do_statement":                 FlowIteration,
		"switch_expression":            FlowBranching,
		"method_invocation":            OperationInvocation,
		"object_creation_expression":   OperationInvocation,
		"lambda_expression":            ExpressionAnonymous,
	},
	"c":   cOverrides,
	"cpp": cppOverrides,
	"ruby": {
		"method":           DefinitionCallable,
		"singleton_method": DefinitionCallable,
		"class":            DefinitionType,
		"module":           DefinitionType,
		"singleton_class":  DefinitionType,
		"if":               FlowBranching,
		"unless":           FlowBranching,
		"case":             FlowBranching,
		"case_match":       FlowBranching,
		"if_modifier":      FlowBranching,
		"unless_modifier":  FlowBranching,
		"while":            FlowIteration,
		"until":            FlowIteration,
		"for":              FlowIteration,
		"while_modifier":   FlowIteration,
		"until_modifier":   FlowIteration,
		"begin":            BoundaryError,
		"rescue":           BoundaryError,
		"ensure":           BoundaryError,
		"return":           FlowControl,
		"break":            FlowControl,
		"next":             FlowControl,
		"redo":             FlowControl,
		"retry":            FlowControl,
		"yield":            FlowControl,
		"call":             OperationInvocation,
		"assignment":       OperationData,
		"lambda":           ExpressionAnonymous,
		"block":            ExpressionAnonymous,
		"do_block":         ExpressionAnonymous,
		"body_statement":   FlowControl,
	},
}

var typescriptOverrides = map[string]Category{
	"import_statement":           BoundaryModule,
	"export_statement":           BoundaryModule,
	"internal_module":            BoundaryModule,
	"module":                     BoundaryModule,
	"interface_declaration":      DefinitionType,
	"type_alias_declaration":     DefinitionType,
	"enum_declaration":           DefinitionType,
	"abstract_class_declaration": DefinitionType,
	"function_signature":         DefinitionCallable,
	"method_signature":           DefinitionCallable,
	"abstract_method_signature":  DefinitionCallable,
	"decorator":                  SyntaxAnnotation,
	"arrow_function":             ExpressionAnonymous,
	"function_expression":        ExpressionAnonymous,
	"await_expression":           FlowAsync,
}

var cOverrides = map[string]Category{
	"function_definition":  DefinitionCallable,
	"struct_specifier":     DefinitionType,
	"union_specifier":      DefinitionType,
	"enum_specifier":       DefinitionType,
	"type_definition":      DefinitionType,
	"declaration":          DefinitionData,
	"preproc_include":      BoundaryModule,
	"preproc_def":          DefinitionData,
	"preproc_function_def": DefinitionCallable,
	"switch_statement":     FlowBranching,
	"do_statement":         FlowIteration,
	"compound_statement":   FlowControl,
}

// cppOverrides extends the C idioms
var cppOverrides = func() map[string]Category {
	m := map[string]Category{
		"class_specifier":      DefinitionType,
		"template_declaration": DefinitionType,
		"alias_declaration":    DefinitionType,
		"concept_definition":   DefinitionType,
		"namespace_definition": BoundaryModule,
		"using_declaration":    BoundaryModule,
		"try_statement":        BoundaryError,
		"for_range_loop":       FlowIteration,
		"co_await_expression":  FlowAsync,
		"lambda_expression":    ExpressionAnonymous,
	}
	for k, v := range cOverrides {
		m[k] = v
	}
	return m
}()
