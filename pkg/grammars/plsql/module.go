// Package plsql is an Oracle PL/SQL grammar whose parser emits a concrete
// rule tree. Process compiles each rule name into a kind synthesized under
// the abstract AstNode kind: the rule query_block becomes the runtime kind
// Query_block. Tokens become Terminal nodes.
//
// The grammar registers itself as "plsql" on import.
package plsql

import (
	"fmt"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Name is the registry key of this grammar.
const Name = "plsql"

// Start rules accepted by Parse.
const (
	StartScript          = "sql_script"
	StartSelectStatement = "select_statement"
	StartSubquery        = "subquery"
	StartExpression      = "expression"
)

// Rule priorities. Every rule sits at the base priority except query
// blocks, which open a new query scope.
const (
	BasePriority       = 1
	QueryBlockPriority = 2
)

var (
	// AstNode is the abstract supertype of every plsql node.
	AstNode = ast.Register(ast.KindSpec{Name: "AstNode", Abstract: true, Priority: BasePriority})
	// KindTerminal is the kind of token leaves.
	KindTerminal = ast.Register(ast.KindSpec{Name: "Terminal", Priority: 0, Base: AstNode})
)

// rules lists every rule the parser emits.
var rules = []string{
	"sql_script", "unit_statement", "select_statement",
	"subquery_factoring_clause", "factoring_element", "query_name",
	"subquery", "subquery_operation_part", "subquery_basic_elements",
	"query_block", "selected_list", "select_list_elements", "column_alias",
	"from_clause", "table_ref_list", "table_ref", "table_ref_aux",
	"tableview_name", "table_alias", "join_clause", "join_on_part",
	"join_using_part", "where_clause", "group_by_clause", "group_by_elements",
	"having_clause", "order_by_clause", "order_by_elements",
	"expression", "logical_expression", "unary_logical_expression",
	"relational_expression", "compound_expression", "in_elements",
	"between_elements", "concatenation", "unary_expression", "atom",
	"constant", "general_element", "function_call", "function_argument",
	"standard_function", "type_spec", "quantified_expression",
	"case_statement", "case_when_part", "case_else_part",
}

var rulePriorities = map[string]int{
	"query_block": QueryBlockPriority,
}

// ruleKinds maps rule names to their kinds. Written only in init.
var ruleKinds = make(map[string]ast.Kind, len(rules))

func init() {
	for _, r := range rules {
		k, err := synthesize(r)
		if err != nil {
			panic(err)
		}
		ruleKinds[r] = k
	}
	grammar.Register(Module{})
}

// KindName returns the runtime kind name of a rule: its first letter is
// upper-cased, the rest is kept.
func KindName(rule string) string {
	if rule == "" {
		return ""
	}
	// Casers are stateful, so each call gets its own.
	return cases.Upper(language.Und).String(rule[:1]) + rule[1:]
}

func synthesize(rule string) (ast.Kind, error) {
	prio, ok := rulePriorities[rule]
	if !ok {
		prio = BasePriority
	}
	return ast.Synthesize(AstNode, KindName(rule), prio)
}

func kindFor(rule string) (ast.Kind, error) {
	if k, ok := ruleKinds[rule]; ok {
		return k, nil
	}
	return synthesize(rule)
}

// Tree is the raw output of ParseRaw.
type Tree struct {
	root *node
}

// Close implements grammar.RawTree.
func (t *Tree) Close() { t.root = nil }

// Module implements grammar.RawModule.
type Module struct{}

// Name implements grammar.Module.
func (Module) Name() string { return Name }

// ParseRaw parses text into a raw rule tree.
func (Module) ParseRaw(text, start string) (grammar.RawTree, error) {
	root, err := parse(text, start)
	if err != nil {
		return nil, err
	}
	return &Tree{root: root}, nil
}

// Process converts a raw tree into nodes.
func (Module) Process(raw grammar.RawTree) (ast.Node, error) {
	t, ok := raw.(*Tree)
	if !ok {
		return nil, fmt.Errorf("%w: %T", grammar.ErrRawTreeType, raw)
	}
	if t.root == nil {
		return nil, fmt.Errorf("%s: process closed tree", Name)
	}
	return convert(t.root)
}

// Parse implements grammar.Module.
func (m Module) Parse(text, start string) (ast.Node, error) {
	raw, err := m.ParseRaw(text, start)
	if err != nil {
		return nil, err
	}
	defer raw.Close()
	return m.Process(raw)
}

// Kinds implements grammar.Module. Rule kinds are listed by their runtime
// names.
func (Module) Kinds() map[string]ast.Kind {
	out := make(map[string]ast.Kind, len(ruleKinds)+2)
	for _, k := range ruleKinds {
		out[k.String()] = k
	}
	out["AstNode"] = AstNode
	out["Terminal"] = KindTerminal
	return out
}

// BaseKind implements grammar.Module.
func (Module) BaseKind() ast.Kind { return AstNode }

// StartRules returns the accepted start rule names, default first.
func (Module) StartRules() []string {
	return []string{StartScript, StartSelectStatement, StartSubquery, StartExpression}
}

// Parse parses text with the plsql grammar.
func Parse(text, start string) (ast.Node, error) {
	return Module{}.Parse(text, start)
}
