// Package sitter is a SQL grammar backed by tree-sitter. The raw tree is
// tree-sitter's own syntax tree; Process turns its named nodes into rule
// nodes whose kinds are synthesized on first sight from the tree-sitter
// node type, under the abstract AstNode kind.
//
// The grammar registers itself as "sitter" on import.
package sitter

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
	"github.com/leapstack-labs/sqlwhat/pkg/token"
	ts "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/sql"
)

// Name is the registry key of this grammar.
const Name = "sitter"

// StartProgram is the only start rule; tree-sitter always parses whole
// programs.
const StartProgram = "program"

// BasePriority is the priority of every node type without an entry in
// the priority table.
const BasePriority = 1

// AstNode is the abstract supertype of every sitter node.
var AstNode = ast.Register(ast.KindSpec{Name: "AstNode", Abstract: true, Priority: BasePriority})

// typePriorities holds the node types that declare a priority of their
// own. They are synthesized at init so a selector built before the first
// parse sees the same default threshold as one built after it.
var typePriorities = map[string]int{
	"subquery": 3,
}

func init() {
	for typ, prio := range typePriorities {
		if _, err := ast.Synthesize(AstNode, typ, prio); err != nil {
			panic(fmt.Sprintf("sitter: synthesize %s: %v", typ, err))
		}
	}
	grammar.Register(Module{})
}

// Tree is the raw output of ParseRaw.
type Tree struct {
	tree *ts.Tree
	src  []byte
}

// Close implements grammar.RawTree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Module implements grammar.RawModule.
type Module struct{}

// Name implements grammar.Module.
func (Module) Name() string { return Name }

// ParseRaw parses text with tree-sitter. Input containing syntax errors is
// rejected with the position of the first error node.
func (Module) ParseRaw(text, start string) (grammar.RawTree, error) {
	if start != "" && start != StartProgram {
		return nil, fmt.Errorf("%w %q for grammar %s", grammar.ErrUnknownStartRule, start, Name)
	}

	src := []byte(text)
	parser := ts.NewParser()
	defer parser.Close()
	parser.SetLanguage(sql.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("%s: tree-sitter parse failed: %w", Name, err)
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, fmt.Errorf("%s: tree-sitter returned nil root", Name)
	}
	if root.HasError() {
		bad := findFirstError(root)
		if bad == nil {
			bad = root
		}
		tree.Close()
		return nil, &grammar.ParseError{
			Grammar: Name,
			Pos:     startOf(bad),
			Message: "syntax error",
		}
	}

	return &Tree{tree: tree, src: src}, nil
}

// Process converts a raw tree into nodes.
func (Module) Process(raw grammar.RawTree) (ast.Node, error) {
	t, ok := raw.(*Tree)
	if !ok {
		return nil, fmt.Errorf("%w: %T", grammar.ErrRawTreeType, raw)
	}
	if t.tree == nil {
		return nil, fmt.Errorf("%s: process closed tree", Name)
	}
	return convert(t.tree.RootNode(), t.src)
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

// Kinds implements grammar.Module. Node types are only known once seen, so
// the table holds the base kind and every type synthesized so far.
func (Module) Kinds() map[string]ast.Kind {
	out := map[string]ast.Kind{"AstNode": AstNode}
	for _, name := range ast.Synthesized(AstNode) {
		if k, ok := ast.Lookup(AstNode, name); ok {
			out[name] = k
		}
	}
	return out
}

// BaseKind implements grammar.Module.
func (Module) BaseKind() ast.Kind { return AstNode }

// StartRules returns the accepted start rule names.
func (Module) StartRules() []string { return []string{StartProgram} }

// Parse parses text with the sitter grammar.
func Parse(text, start string) (ast.Node, error) {
	return Module{}.Parse(text, start)
}

// convert turns a named tree-sitter node into a rule node. Anonymous
// children (punctuation) are dropped; a node without named children keeps
// its source text.
func convert(n *ts.Node, src []byte) (ast.Node, error) {
	typ := n.Type()
	prio, ok := typePriorities[typ]
	if !ok {
		prio = BasePriority
	}
	k, err := ast.Synthesize(AstNode, typ, prio)
	if err != nil {
		return nil, err
	}

	count := int(n.NamedChildCount())
	out := &ast.RuleNode{Of: k, Kids: make([]ast.Node, 0, count)}
	out.Span = token.Span{Start: startOf(n), End: endOf(n)}

	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		c, err := convert(child, src)
		if err != nil {
			return nil, err
		}
		out.Kids = append(out.Kids, c)
	}
	if count == 0 {
		out.Text = n.Content(src)
	}
	return out, nil
}

// findFirstError does a depth-first search for the first ERROR or MISSING node.
func findFirstError(n *ts.Node) *ts.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := findFirstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}

func startOf(n *ts.Node) token.Position {
	p := n.StartPoint()
	return token.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Offset: int(n.StartByte())}
}

func endOf(n *ts.Node) token.Position {
	p := n.EndPoint()
	return token.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Offset: int(n.EndByte())}
}
