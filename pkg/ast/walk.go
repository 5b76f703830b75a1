package ast

import (
	"strconv"
	"strings"
)

// Walk traverses a tree depth-first in pre-order and calls fn for each
// node. If fn returns false, the node's children are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n Node) int {
	count := 0
	Walk(n, func(Node) bool {
		count++
		return true
	})
	return count
}

// Dump renders the structure of a tree: kind names, leaf tokens and
// children, without positions. Two trees with equal dumps are structurally
// equivalent, regardless of where in a source text they were parsed from.
//
//	SelectStmt(Identifier "b", Identifier "y")
func Dump(n Node) string {
	var b strings.Builder
	dump(&b, n)
	return b.String()
}

func dump(b *strings.Builder, n Node) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	b.WriteString(NameOf(n))
	if l, ok := n.(Leaf); ok && l.Token() != "" {
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(l.Token()))
	}
	kids := n.Children()
	if len(kids) == 0 {
		return
	}
	b.WriteByte('(')
	for i, c := range kids {
		if i > 0 {
			b.WriteString(", ")
		}
		dump(b, c)
	}
	b.WriteByte(')')
}
