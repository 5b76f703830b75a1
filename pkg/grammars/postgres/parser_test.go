package postgres_test

import (
	"testing"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
	"github.com/leapstack-labs/sqlwhat/pkg/grammars/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Statement Tests ----------

func TestParseStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "simple select",
			sql:  "SELECT id FROM artists",
			want: `Script(SelectStmt(Identifier "id", Identifier "artists"))`,
		},
		{
			name: "aliases",
			sql:  "SELECT a AS x FROM t u",
			want: `Script(SelectStmt(AliasExpr "x"(Identifier "a"), AliasExpr "u"(Identifier "t")))`,
		},
		{
			name: "star and qualified star",
			sql:  "SELECT *, t.* FROM t",
			want: `Script(SelectStmt(Star "*", Star "t.*", Identifier "t"))`,
		},
		{
			name: "join with on",
			sql:  "SELECT * FROM a JOIN b ON a.id = b.id",
			want: `Script(SelectStmt(Star "*", JoinExpr "INNER"(Identifier "a", Identifier "b", BinaryExpr "="(Identifier "a.id", Identifier "b.id"))))`,
		},
		{
			name: "left outer join using",
			sql:  "SELECT * FROM a LEFT OUTER JOIN b USING (id)",
			want: `Script(SelectStmt(Star "*", JoinExpr "LEFT"(Identifier "a", Identifier "b")))`,
		},
		{
			name: "set operation",
			sql:  "SELECT a FROM x UNION ALL SELECT b FROM y",
			want: `Script(SetOperation "UNION ALL"(SelectStmt(Identifier "a", Identifier "x"), SelectStmt(Identifier "b", Identifier "y")))`,
		},
		{
			name: "with clause",
			sql:  "WITH c AS (SELECT 1) SELECT * FROM c",
			want: `Script(SelectStmt(WithClause(CommonTableExpr "c"(SelectStmt(Terminal "1"))), Star "*", Identifier "c"))`,
		},
		{
			name: "derived table",
			sql:  "SELECT s.a FROM (SELECT a FROM t) AS s",
			want: `Script(SelectStmt(Identifier "s.a", Subquery "s"(SelectStmt(Identifier "a", Identifier "t"))))`,
		},
		{
			name: "order and limit",
			sql:  "SELECT a FROM t ORDER BY a DESC LIMIT 5",
			want: `Script(SelectStmt(Identifier "a", Identifier "t", SortBy "DESC"(Identifier "a"), Terminal "5"))`,
		},
		{
			name: "group by having",
			sql:  "SELECT a, count(*) FROM t GROUP BY a HAVING count(*) > 1",
			want: `Script(SelectStmt(Identifier "a", FuncCall "count", Identifier "t", Identifier "a", BinaryExpr ">"(FuncCall "count", Terminal "1")))`,
		},
		{
			name: "multiple statements",
			sql:  "SELECT 1; SELECT 2;",
			want: `Script(SelectStmt(Terminal "1"), SelectStmt(Terminal "2"))`,
		},
		{
			name: "keywords are case insensitive",
			sql:  "select a from t where a = 'x'",
			want: `Script(SelectStmt(Identifier "a", Identifier "t", BinaryExpr "="(Identifier "a", Terminal "x")))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := postgres.Parse(tt.sql, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ast.Dump(tree))
		})
	}
}

func TestParseTargetFields(t *testing.T) {
	tree, err := postgres.Parse("SELECT a FROM x", postgres.StartStatement)
	require.NoError(t, err)

	stmt, ok := tree.(*postgres.SelectStmt)
	require.True(t, ok, "statement start yields the statement itself")
	require.Len(t, stmt.TargetList, 1)

	id, ok := stmt.TargetList[0].(*postgres.Identifier)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, id.Fields)
}

// ---------- Expression Tests ----------

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"left associative", "1 + 2 + 3", `BinaryExpr "+"(BinaryExpr "+"(Terminal "1", Terminal "2"), Terminal "3")`},
		{"multiplication binds tighter", "1 + 2 * 3", `BinaryExpr "+"(Terminal "1", BinaryExpr "*"(Terminal "2", Terminal "3"))`},
		{"parentheses group", "(1 + 2) * 3", `BinaryExpr "*"(BinaryExpr "+"(Terminal "1", Terminal "2"), Terminal "3")`},
		{"and over comparisons", "a = 1 AND b IS NOT NULL", `BinaryExpr "AND"(BinaryExpr "="(Identifier "a", Terminal "1"), NullTest "IS NOT NULL"(Identifier "b"))`},
		{"or binds loosest", "a OR b AND c", `BinaryExpr "OR"(Identifier "a", BinaryExpr "AND"(Identifier "b", Identifier "c"))`},
		{"not in list", "x NOT IN (1, 2)", `InExpr "NOT IN"(Identifier "x", Terminal "1", Terminal "2")`},
		{"in subquery", "x IN (SELECT y FROM t)", `InExpr "IN"(Identifier "x", Subquery(SelectStmt(Identifier "y", Identifier "t")))`},
		{"between", "x BETWEEN 1 AND 2", `BetweenExpr "BETWEEN"(Identifier "x", Terminal "1", Terminal "2")`},
		{"not like", "name NOT LIKE 'a%'", `BinaryExpr "NOT LIKE"(Identifier "name", Terminal "a%")`},
		{"unary minus", "-a", `UnaryExpr "-"(Identifier "a")`},
		{"not", "NOT a", `UnaryExpr "NOT"(Identifier "a")`},
		{"exists", "EXISTS (SELECT 1)", `UnaryExpr "EXISTS"(Subquery(SelectStmt(Terminal "1")))`},
		{"postfix cast", "x::int", `CastExpr "int"(Identifier "x")`},
		{"cast call", "CAST(x AS numeric(10, 2))", `CastExpr "numeric(10,2)"(Identifier "x")`},
		{"function call", "coalesce(a, 0)", `FuncCall "coalesce"(Identifier "a", Terminal "0")`},
		{"searched case", "CASE WHEN a THEN 1 ELSE 2 END", `CaseExpr(WhenClause(Identifier "a", Terminal "1"), Terminal "2")`},
		{"simple case", "CASE a WHEN 1 THEN 'one' END", `CaseExpr(Identifier "a", WhenClause(Terminal "1", Terminal "one"))`},
		{"is true", "a IS TRUE", `BinaryExpr "IS"(Identifier "a", Terminal "TRUE")`},
		{"concat", "a || 'x'", `BinaryExpr "||"(Identifier "a", Terminal "x")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := postgres.Parse(tt.sql, postgres.StartExpression)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ast.Dump(tree))
		})
	}
}

func TestBinaryExprFields(t *testing.T) {
	tree, err := postgres.Parse("1 + 2 + 3", postgres.StartExpression)
	require.NoError(t, err)

	outer, ok := tree.(*postgres.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", outer.Op)

	right, ok := outer.Right.(*ast.Terminal)
	require.True(t, ok)
	assert.Equal(t, "3", right.Value)

	left, ok := outer.Left.(*postgres.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "1", left.Left.(*ast.Terminal).Value)
}

// ---------- Start Rule Tests ----------

func TestSubqueryStartMatchesNestedQuery(t *testing.T) {
	outer, err := postgres.Parse("SELECT a FROM x WHERE a = (SELECT b FROM y)", "")
	require.NoError(t, err)
	standalone, err := postgres.Parse("SELECT b FROM y", postgres.StartSubquery)
	require.NoError(t, err)

	stmt := outer.Children()[0].(*postgres.SelectStmt)
	where := stmt.Where.(*postgres.BinaryExpr)
	sq := where.Right.(*postgres.Subquery)

	assert.Equal(t, ast.Dump(standalone), ast.Dump(sq.Query))
}

func TestUnknownStartRule(t *testing.T) {
	_, err := postgres.Parse("SELECT 1", "nope")
	require.ErrorIs(t, err, grammar.ErrUnknownStartRule)
}

// ---------- Error Tests ----------

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		start   string
		wantMsg string
		wantCol int
	}{
		{
			name:    "missing target",
			sql:     "SELECT FROM t",
			wantMsg: "unexpected token FROM, expected expression",
			wantCol: 8,
		},
		{
			name:    "unterminated string",
			sql:     "SELECT 'abc",
			wantMsg: "unterminated string literal",
			wantCol: 8,
		},
		{
			name:    "illegal character",
			sql:     "SELECT 1 #",
			wantMsg: `illegal character "#"`,
			wantCol: 10,
		},
		{
			name:    "trailing input",
			sql:     "1 2",
			start:   postgres.StartExpression,
			wantMsg: `unexpected NUMBER "2" after end of expression`,
			wantCol: 3,
		},
		{
			name:    "unclosed case",
			sql:     "CASE WHEN a THEN 1",
			start:   postgres.StartExpression,
			wantMsg: "unexpected token end of input, expected END",
			wantCol: 19,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := postgres.Parse(tt.sql, tt.start)
			require.Error(t, err)
			assert.Nil(t, tree)

			var perr *grammar.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, postgres.Name, perr.Grammar)
			assert.Equal(t, tt.wantMsg, perr.Message)
			assert.Equal(t, 1, perr.Pos.Line)
			assert.Equal(t, tt.wantCol, perr.Pos.Column)
		})
	}
}

// ---------- Node Tests ----------

func TestSpans(t *testing.T) {
	tree, err := postgres.Parse("SELECT id\nFROM artists", "")
	require.NoError(t, err)

	stmt := tree.Children()[0].(*postgres.SelectStmt)
	from := ast.SpanOf(stmt.From[0])
	assert.Equal(t, 2, from.Start.Line)
	assert.Equal(t, 6, from.Start.Column)

	span := ast.SpanOf(stmt)
	assert.Equal(t, 1, span.Start.Line)
	assert.Equal(t, 2, span.End.Line)
}

func TestChildrenNeverNil(t *testing.T) {
	tree, err := postgres.Parse("SELECT a FROM t", "")
	require.NoError(t, err)

	ast.Walk(tree, func(n ast.Node) bool {
		for _, c := range n.Children() {
			assert.NotNil(t, c)
		}
		return true
	})
}

func TestModuleRegistration(t *testing.T) {
	m, ok := grammar.Get("postgres")
	require.True(t, ok)
	assert.Equal(t, postgres.AstNode, m.BaseKind())
	assert.True(t, m.BaseKind().Abstract())

	kinds := m.Kinds()
	assert.Equal(t, postgres.KindSelectStmt, kinds["SelectStmt"])
	assert.Equal(t, postgres.KindIdentifier, kinds["Identifier"])
	assert.Equal(t, 1, kinds["SelectStmt"].Priority())
	assert.Equal(t, 3, kinds["Subquery"].Priority())

	for name, k := range kinds {
		assert.True(t, k.IsA(postgres.AstNode), name)
	}

	kinds["SelectStmt"] = ast.InvalidKind
	assert.Equal(t, postgres.KindSelectStmt, m.Kinds()["SelectStmt"], "Kinds returns a copy")
}
