package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var (
	testRule = ast.Register(ast.KindSpec{Name: "Rule", Priority: 2})
	testLeaf = ast.Register(ast.KindSpec{Name: "Leaf"})
)

func newTestRenderer(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewRendererWithTTY(out, &bytes.Buffer{}, isTTY, mode), out
}

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"text", ModeText},
		{"JSON", ModeJSON},
		{"yaml", ModeYAML},
		{"markdown", ModeMarkdown},
		{"", ModeAuto},
		{"csv", ModeAuto},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mode(tt.in), "Mode(%q)", tt.in)
	}
}

func TestEffectiveMode(t *testing.T) {
	r, _ := newTestRenderer(ModeAuto, true)
	assert.Equal(t, ModeText, r.EffectiveMode())

	r, _ = newTestRenderer(ModeAuto, false)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	r, _ = newTestRenderer(ModeJSON, true)
	assert.Equal(t, ModeJSON, r.EffectiveMode())
}

func TestTable(t *testing.T) {
	header := []string{"Name", "Priority"}
	rows := [][]string{{"SelectStmt", "1"}, {"a|b", "0"}}

	r, out := newTestRenderer(ModeMarkdown, false)
	r.Table(header, rows)
	assert.Equal(t, "| Name | Priority |\n| --- | --- |\n| SelectStmt | 1 |\n| a\\|b | 0 |\n", out.String())

	r, out = newTestRenderer(ModeText, false)
	r.Table(header, rows)
	assert.Contains(t, out.String(), "SelectStmt")
	assert.Contains(t, out.String(), "┌")
}

func TestStructured(t *testing.T) {
	v := KindInfo{Name: "SelectStmt", Priority: 1}

	r, out := newTestRenderer(ModeJSON, false)
	ok, err := r.Structured(v)
	require.NoError(t, err)
	assert.True(t, ok)
	var decoded KindInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, v, decoded)

	r, out = newTestRenderer(ModeYAML, false)
	ok, err = r.Structured(v)
	require.NoError(t, err)
	assert.True(t, ok)
	decoded = KindInfo{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, v, decoded)

	r, out = newTestRenderer(ModeText, true)
	ok, err = r.Structured(v)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, out.String())
}

func TestTreeAndMatchInfo(t *testing.T) {
	leaf := ast.NewTerminal(testLeaf, "x")
	leaf.Span.Start.Line = 3
	leaf.Span.Start.Column = 7
	root := &ast.RuleNode{Of: testRule, Kids: []ast.Node{leaf}}

	item := NewTreeItem(root)
	assert.Equal(t, "Rule [2]", item.Label)
	require.Len(t, item.Children, 1)
	assert.Equal(t, `Leaf [0] "x"`, item.Children[0].Label)

	info := NewMatchInfo(1, leaf)
	assert.Equal(t, MatchInfo{Index: 1, Kind: "Leaf", Token: "x", Line: 3, Column: 7, Tree: `Leaf "x"`}, info)

	r, out := newTestRenderer(ModeMarkdown, false)
	r.Tree(item)
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Rule [2]")
	assert.Contains(t, lines[1], `Leaf [0] "x"`)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Matches", FormatHeader(2, "Matches"))
	assert.Equal(t, "- **Grammar:** postgres", FormatKeyValue("Grammar", "postgres"))
	assert.Equal(t, "```sql\nSELECT 1\n```", FormatCodeBlock("sql", "SELECT 1\n"))
}

func TestPlainStylesWithoutTTY(t *testing.T) {
	r, out := newTestRenderer(ModeText, false)
	r.Header(1, "Kinds")
	r.Muted("none")
	assert.Equal(t, "Kinds\nnone\n", out.String())
}

func TestNewStyles_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	s := NewStyles(true)
	assert.Equal(t, "Identifier", s.Kind.Render("Identifier"))
	assert.Equal(t, "matches", s.Header.Render("matches"))
}
