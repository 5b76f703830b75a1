package postgres

import (
	"strings"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
)

// AstNode is the abstract supertype of every postgres node.
var AstNode = ast.Register(ast.KindSpec{Name: "AstNode", Abstract: true})

func kind(name string, priority int) ast.Kind {
	return ast.Register(ast.KindSpec{Name: name, Priority: priority, Base: AstNode})
}

// Node kinds. Statements sit at priority 1 and scopes (subqueries, CTEs) at
// 3, so a default statement query stops at the first statement it meets.
var (
	KindScript          = kind("Script", 0)
	KindSelectStmt      = kind("SelectStmt", 1)
	KindSetOperation    = kind("SetOperation", 0)
	KindWithClause      = kind("WithClause", 0)
	KindCommonTableExpr = kind("CommonTableExpr", 3)
	KindSubquery        = kind("Subquery", 3)
	KindJoinExpr        = kind("JoinExpr", 0)
	KindAliasExpr       = kind("AliasExpr", 0)
	KindIdentifier      = kind("Identifier", 0)
	KindStar            = kind("Star", 0)
	KindTerminal        = kind("Terminal", 0)
	KindBinaryExpr      = kind("BinaryExpr", 0)
	KindUnaryExpr       = kind("UnaryExpr", 0)
	KindFuncCall        = kind("FuncCall", 0)
	KindCaseExpr        = kind("CaseExpr", 0)
	KindWhenClause      = kind("WhenClause", 0)
	KindCastExpr        = kind("CastExpr", 0)
	KindInExpr          = kind("InExpr", 0)
	KindBetweenExpr     = kind("BetweenExpr", 0)
	KindNullTest        = kind("NullTest", 0)
	KindSortBy          = kind("SortBy", 0)
)

var kindTable = map[string]ast.Kind{
	"AstNode":         AstNode,
	"Script":          KindScript,
	"SelectStmt":      KindSelectStmt,
	"SetOperation":    KindSetOperation,
	"WithClause":      KindWithClause,
	"CommonTableExpr": KindCommonTableExpr,
	"Subquery":        KindSubquery,
	"JoinExpr":        KindJoinExpr,
	"AliasExpr":       KindAliasExpr,
	"Identifier":      KindIdentifier,
	"Star":            KindStar,
	"Terminal":        KindTerminal,
	"BinaryExpr":      KindBinaryExpr,
	"UnaryExpr":       KindUnaryExpr,
	"FuncCall":        KindFuncCall,
	"CaseExpr":        KindCaseExpr,
	"WhenClause":      KindWhenClause,
	"CastExpr":        KindCastExpr,
	"InExpr":          KindInExpr,
	"BetweenExpr":     KindBetweenExpr,
	"NullTest":        KindNullTest,
	"SortBy":          KindSortBy,
}

// ---------- Statements ----------

// Script is a sequence of statements.
type Script struct {
	ast.Meta
	Statements []ast.Node
}

func (*Script) Kind() ast.Kind { return KindScript }

func (n *Script) Children() []ast.Node { return ast.Append(nil, n.Statements...) }

// SelectStmt is a single SELECT.
type SelectStmt struct {
	ast.Meta
	With       *WithClause
	Distinct   bool
	TargetList []ast.Node
	From       []ast.Node
	Where      ast.Node
	GroupBy    []ast.Node
	Having     ast.Node
	OrderBy    []*SortBy
	Limit      ast.Node
	Offset     ast.Node
}

func (*SelectStmt) Kind() ast.Kind { return KindSelectStmt }

func (n *SelectStmt) Children() []ast.Node {
	var kids []ast.Node
	if n.With != nil {
		kids = append(kids, n.With)
	}
	kids = ast.Append(kids, n.TargetList...)
	kids = ast.Append(kids, n.From...)
	kids = ast.Append(kids, n.Where)
	kids = ast.Append(kids, n.GroupBy...)
	kids = ast.Append(kids, n.Having)
	kids = appendSorts(kids, n.OrderBy)
	return ast.Append(kids, n.Limit, n.Offset)
}

// SetOperation combines two queries with UNION, INTERSECT or EXCEPT.
type SetOperation struct {
	ast.Meta
	With    *WithClause
	Op      string
	All     bool
	Left    ast.Node
	Right   ast.Node
	OrderBy []*SortBy
	Limit   ast.Node
	Offset  ast.Node
}

func (*SetOperation) Kind() ast.Kind { return KindSetOperation }

func (n *SetOperation) Token() string {
	if n.All {
		return n.Op + " ALL"
	}
	return n.Op
}

func (n *SetOperation) Children() []ast.Node {
	var kids []ast.Node
	if n.With != nil {
		kids = append(kids, n.With)
	}
	kids = ast.Append(kids, n.Left, n.Right)
	kids = appendSorts(kids, n.OrderBy)
	return ast.Append(kids, n.Limit, n.Offset)
}

// WithClause holds the CTEs of a query.
type WithClause struct {
	ast.Meta
	Recursive bool
	CTEs      []*CommonTableExpr
}

func (*WithClause) Kind() ast.Kind { return KindWithClause }

func (n *WithClause) Children() []ast.Node {
	kids := make([]ast.Node, 0, len(n.CTEs))
	for _, cte := range n.CTEs {
		kids = append(kids, cte)
	}
	return kids
}

// CommonTableExpr is one named query of a WITH clause.
type CommonTableExpr struct {
	ast.Meta
	Name  string
	Query ast.Node
}

func (*CommonTableExpr) Kind() ast.Kind { return KindCommonTableExpr }

func (n *CommonTableExpr) Token() string { return n.Name }

func (n *CommonTableExpr) Children() []ast.Node { return ast.Append(nil, n.Query) }

// Subquery is a parenthesized query used as a table or an expression.
type Subquery struct {
	ast.Meta
	Query ast.Node
	Alias string
}

func (*Subquery) Kind() ast.Kind { return KindSubquery }

func (n *Subquery) Token() string { return n.Alias }

func (n *Subquery) Children() []ast.Node { return ast.Append(nil, n.Query) }

// ---------- Table references ----------

// JoinExpr joins two table references.
type JoinExpr struct {
	ast.Meta
	Type  string // INNER, LEFT, RIGHT, FULL, CROSS
	Left  ast.Node
	Right ast.Node
	On    ast.Node
	Using []string
}

func (*JoinExpr) Kind() ast.Kind { return KindJoinExpr }

func (n *JoinExpr) Token() string { return n.Type }

func (n *JoinExpr) Children() []ast.Node { return ast.Append(nil, n.Left, n.Right, n.On) }

// AliasExpr names a target or table reference.
type AliasExpr struct {
	ast.Meta
	Expr  ast.Node
	Alias string
}

func (*AliasExpr) Kind() ast.Kind { return KindAliasExpr }

func (n *AliasExpr) Token() string { return n.Alias }

func (n *AliasExpr) Children() []ast.Node { return ast.Append(nil, n.Expr) }

// ---------- Expressions ----------

// Identifier is a possibly qualified name: a column or a table.
type Identifier struct {
	ast.Meta
	Fields []string
}

func (*Identifier) Kind() ast.Kind { return KindIdentifier }

func (n *Identifier) Token() string { return strings.Join(n.Fields, ".") }

func (*Identifier) Children() []ast.Node { return nil }

// Star is * or table.*.
type Star struct {
	ast.Meta
	Table string
}

func (*Star) Kind() ast.Kind { return KindStar }

func (n *Star) Token() string {
	if n.Table != "" {
		return n.Table + ".*"
	}
	return "*"
}

func (*Star) Children() []ast.Node { return nil }

// BinaryExpr is a binary operation, including AND, OR and LIKE.
type BinaryExpr struct {
	ast.Meta
	Left  ast.Node
	Op    string
	Right ast.Node
}

func (*BinaryExpr) Kind() ast.Kind { return KindBinaryExpr }

func (n *BinaryExpr) Token() string { return n.Op }

func (n *BinaryExpr) Children() []ast.Node { return ast.Append(nil, n.Left, n.Right) }

// UnaryExpr is a prefix operation: NOT, -, + or EXISTS.
type UnaryExpr struct {
	ast.Meta
	Op   string
	Expr ast.Node
}

func (*UnaryExpr) Kind() ast.Kind { return KindUnaryExpr }

func (n *UnaryExpr) Token() string { return n.Op }

func (n *UnaryExpr) Children() []ast.Node { return ast.Append(nil, n.Expr) }

// FuncCall is a function call.
type FuncCall struct {
	ast.Meta
	Name     string
	Distinct bool
	Star     bool // COUNT(*)
	Args     []ast.Node
}

func (*FuncCall) Kind() ast.Kind { return KindFuncCall }

func (n *FuncCall) Token() string { return n.Name }

func (n *FuncCall) Children() []ast.Node { return ast.Append(nil, n.Args...) }

// CaseExpr is a CASE expression.
type CaseExpr struct {
	ast.Meta
	Operand ast.Node
	Whens   []*WhenClause
	Else    ast.Node
}

func (*CaseExpr) Kind() ast.Kind { return KindCaseExpr }

func (n *CaseExpr) Children() []ast.Node {
	kids := ast.Append(nil, n.Operand)
	for _, w := range n.Whens {
		kids = append(kids, w)
	}
	return ast.Append(kids, n.Else)
}

// WhenClause is one WHEN ... THEN ... arm.
type WhenClause struct {
	ast.Meta
	Condition ast.Node
	Result    ast.Node
}

func (*WhenClause) Kind() ast.Kind { return KindWhenClause }

func (n *WhenClause) Children() []ast.Node { return ast.Append(nil, n.Condition, n.Result) }

// CastExpr is CAST(x AS t) or x::t.
type CastExpr struct {
	ast.Meta
	Expr     ast.Node
	TypeName string
}

func (*CastExpr) Kind() ast.Kind { return KindCastExpr }

func (n *CastExpr) Token() string { return n.TypeName }

func (n *CastExpr) Children() []ast.Node { return ast.Append(nil, n.Expr) }

// InExpr is x [NOT] IN (values) or x [NOT] IN (subquery).
type InExpr struct {
	ast.Meta
	Expr   ast.Node
	Not    bool
	Values []ast.Node
	Query  *Subquery
}

func (*InExpr) Kind() ast.Kind { return KindInExpr }

func (n *InExpr) Token() string {
	if n.Not {
		return "NOT IN"
	}
	return "IN"
}

func (n *InExpr) Children() []ast.Node {
	kids := ast.Append(nil, n.Expr)
	kids = ast.Append(kids, n.Values...)
	if n.Query != nil {
		kids = append(kids, n.Query)
	}
	return kids
}

// BetweenExpr is x [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	ast.Meta
	Expr ast.Node
	Not  bool
	Low  ast.Node
	High ast.Node
}

func (*BetweenExpr) Kind() ast.Kind { return KindBetweenExpr }

func (n *BetweenExpr) Token() string {
	if n.Not {
		return "NOT BETWEEN"
	}
	return "BETWEEN"
}

func (n *BetweenExpr) Children() []ast.Node { return ast.Append(nil, n.Expr, n.Low, n.High) }

// NullTest is x IS [NOT] NULL.
type NullTest struct {
	ast.Meta
	Expr ast.Node
	Not  bool
}

func (*NullTest) Kind() ast.Kind { return KindNullTest }

func (n *NullTest) Token() string {
	if n.Not {
		return "IS NOT NULL"
	}
	return "IS NULL"
}

func (n *NullTest) Children() []ast.Node { return ast.Append(nil, n.Expr) }

// SortBy is one ORDER BY item.
type SortBy struct {
	ast.Meta
	Expr       ast.Node
	Desc       bool
	NullsFirst *bool // nil means default
}

func (*SortBy) Kind() ast.Kind { return KindSortBy }

func (n *SortBy) Token() string {
	if n.Desc {
		return "DESC"
	}
	return "ASC"
}

func (n *SortBy) Children() []ast.Node { return ast.Append(nil, n.Expr) }

func appendSorts(kids []ast.Node, items []*SortBy) []ast.Node {
	for _, item := range items {
		kids = append(kids, item)
	}
	return kids
}
