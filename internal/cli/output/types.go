package output

import (
	"fmt"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
)

// MatchInfo describes one selected node.
type MatchInfo struct {
	Index  int    `json:"index" yaml:"index"`
	Kind   string `json:"kind" yaml:"kind"`
	Token  string `json:"token,omitempty" yaml:"token,omitempty"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
	Tree   string `json:"tree" yaml:"tree"`
}

// SelectOutput is the result of a select over one input.
type SelectOutput struct {
	Source   string      `json:"source" yaml:"source"`
	Grammar  string      `json:"grammar" yaml:"grammar"`
	Target   string      `json:"target" yaml:"target"`
	Priority int         `json:"priority" yaml:"priority"`
	Head     bool        `json:"head,omitempty" yaml:"head,omitempty"`
	Matches  []MatchInfo `json:"matches" yaml:"matches"`
}

// KindInfo describes one kind a grammar exports.
type KindInfo struct {
	Name     string `json:"name" yaml:"name"`
	Priority int    `json:"priority" yaml:"priority"`
	Abstract bool   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Dynamic  bool   `json:"dynamic,omitempty" yaml:"dynamic,omitempty"`
}

// GrammarInfo describes one registered grammar.
type GrammarInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Base       string   `json:"base" yaml:"base"`
	StartRules []string `json:"start_rules,omitempty" yaml:"start_rules,omitempty"`
	Kinds      int      `json:"kinds" yaml:"kinds"`
}

// TreeItem is one node of a rendered tree.
type TreeItem struct {
	Label    string     `json:"label" yaml:"label"`
	Children []TreeItem `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewMatchInfo describes n as the index-th match.
func NewMatchInfo(index int, n ast.Node) MatchInfo {
	span := ast.SpanOf(n)
	info := MatchInfo{
		Index:  index,
		Kind:   ast.NameOf(n),
		Line:   span.Start.Line,
		Column: span.Start.Column,
		Tree:   ast.Dump(n),
	}
	if l, ok := n.(ast.Leaf); ok {
		info.Token = l.Token()
	}
	return info
}

// NewTreeItem converts the tree rooted at n.
func NewTreeItem(n ast.Node) TreeItem {
	item := TreeItem{Label: nodeLabel(n)}
	for _, c := range n.Children() {
		item.Children = append(item.Children, NewTreeItem(c))
	}
	return item
}

func nodeLabel(n ast.Node) string {
	label := fmt.Sprintf("%s [%d]", ast.NameOf(n), ast.PriorityOf(n))
	if l, ok := n.(ast.Leaf); ok && l.Token() != "" {
		label += fmt.Sprintf(" %q", l.Token())
	}
	return label
}
