// Package ast defines the node capability every grammar's syntax tree
// exposes to the query engine: a kind identity, a runtime kind name, a
// barrier priority and ordered children.
package ast

import (
	"github.com/leapstack-labs/sqlwhat/pkg/token"
)

// Node is one syntax construct in a parsed tree.
//
// Children returns the node's children in document order and never
// contains nil entries. Trees are finite, acyclic and single-rooted; the
// engine reads them and never mutates them.
type Node interface {
	Kind() Kind
	Children() []Node
}

// Leaf is implemented by nodes carrying a text payload.
type Leaf interface {
	Token() string
}

// PriorityOverrider is implemented by nodes that can carry a per-instance
// priority. Meta implements it.
type PriorityOverrider interface {
	PriorityOverride() (int, bool)
}

// Spanned is implemented by nodes that know their source range.
type Spanned interface {
	GetSpan() token.Span
}

// NameOf returns the runtime kind name of n. For synthesized kinds this is
// the grammar rule name.
func NameOf(n Node) string {
	return n.Kind().String()
}

// PriorityOf returns the effective priority of n: its per-instance override
// when set, else the default declared by its kind.
func PriorityOf(n Node) int {
	if o, ok := n.(PriorityOverrider); ok {
		if p, set := o.PriorityOverride(); set {
			return p
		}
	}
	return n.Kind().Priority()
}

// SpanOf returns the source range of n, or the zero Span when n does not
// track one.
func SpanOf(n Node) token.Span {
	if s, ok := n.(Spanned); ok {
		return s.GetSpan()
	}
	return token.Span{}
}

// Meta holds fields common to all nodes. Embed it in node types.
type Meta struct {
	Span     token.Span
	priority *int
}

// GetSpan returns the node's source span.
func (m *Meta) GetSpan() token.Span {
	return m.Span
}

// SetPriority overrides the kind's default priority for this instance.
// Used when tracing how a query walks a particular subtree.
func (m *Meta) SetPriority(p int) {
	m.priority = &p
}

// ClearPriority removes a per-instance override.
func (m *Meta) ClearPriority() {
	m.priority = nil
}

// PriorityOverride returns the per-instance priority, if set.
func (m *Meta) PriorityOverride() (int, bool) {
	if m.priority == nil {
		return 0, false
	}
	return *m.priority, true
}

// Terminal is a leaf node with a text payload.
type Terminal struct {
	Meta
	Of    Kind
	Value string
}

// NewTerminal creates a terminal of kind k.
func NewTerminal(k Kind, value string) *Terminal {
	return &Terminal{Of: k, Value: value}
}

// Kind implements Node.
func (t *Terminal) Kind() Kind { return t.Of }

// Children implements Node.
func (t *Terminal) Children() []Node { return nil }

// Token implements Leaf.
func (t *Terminal) Token() string { return t.Value }

// RuleNode is a generic node for grammars whose rules compile to
// synthesized kinds. Text is set for leaf rules only.
type RuleNode struct {
	Meta
	Of   Kind
	Kids []Node
	Text string
}

// Kind implements Node.
func (r *RuleNode) Kind() Kind { return r.Of }

// Children implements Node.
func (r *RuleNode) Children() []Node { return r.Kids }

// Token implements Leaf.
func (r *RuleNode) Token() string { return r.Text }

// Append adds non-nil children in order.
func Append(dst []Node, nodes ...Node) []Node {
	for _, n := range nodes {
		if n != nil {
			dst = append(dst, n)
		}
	}
	return dst
}
