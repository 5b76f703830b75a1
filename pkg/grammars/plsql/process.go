package plsql

import (
	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/leapstack-labs/sqlwhat/pkg/token"
)

// convert turns a raw node into an ast node. A rule's span runs from its
// first token to its last.
func convert(n *node) (ast.Node, error) {
	if n.rule == "" {
		t := ast.NewTerminal(KindTerminal, n.tok.Literal)
		t.Span = n.tok.Span()
		return t, nil
	}

	k, err := kindFor(n.rule)
	if err != nil {
		return nil, err
	}

	out := &ast.RuleNode{Of: k, Kids: make([]ast.Node, 0, len(n.kids))}
	for _, kid := range n.kids {
		c, err := convert(kid)
		if err != nil {
			return nil, err
		}
		out.Kids = append(out.Kids, c)
	}

	if len(out.Kids) > 0 {
		out.Span = token.Span{
			Start: ast.SpanOf(out.Kids[0]).Start,
			End:   ast.SpanOf(out.Kids[len(out.Kids)-1]).End,
		}
	}
	return out, nil
}
