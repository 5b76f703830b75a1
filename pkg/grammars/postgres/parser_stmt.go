package postgres

import (
	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/leapstack-labs/sqlwhat/pkg/token"
)

// parseScript parses statements separated by semicolons.
func (p *Parser) parseScript() *Script {
	start := p.token.Pos
	s := &Script{}
	for !p.check(token.EOF) && !p.failed() {
		if p.match(token.SEMI) {
			continue
		}
		stmt := p.parseQuery()
		if stmt == nil {
			return nil
		}
		s.Statements = append(s.Statements, stmt)
		if !p.check(token.EOF) && !p.expect(token.SEMI) {
			return nil
		}
	}
	p.finish(&s.Meta, start)
	return s
}

// parseQuery parses a full query. The result is a *SelectStmt or a
// *SetOperation, or nil after an error.
//
//	statement → [WITH [RECURSIVE] cte_list] set_expr
//	            [ORDER BY order_list] [LIMIT expr] [OFFSET expr]
func (p *Parser) parseQuery() ast.Node {
	start := p.token.Pos

	var with *WithClause
	if p.check(token.WITH) {
		if with = p.parseWith(); with == nil {
			return nil
		}
	}

	body := p.parseSetExpr()
	if body == nil {
		return nil
	}

	orderBy, limit, offset := p.parseQueryTail()
	if p.failed() {
		return nil
	}

	switch q := body.(type) {
	case *SelectStmt:
		q.With, q.OrderBy, q.Limit, q.Offset = with, orderBy, limit, offset
		p.finish(&q.Meta, start)
	case *SetOperation:
		q.With, q.OrderBy, q.Limit, q.Offset = with, orderBy, limit, offset
		p.finish(&q.Meta, start)
	}
	return body
}

// parseSetExpr parses select cores joined by set operators, left to right.
//
//	set_expr → select_core ((UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_core)*
func (p *Parser) parseSetExpr() ast.Node {
	start := p.token.Pos

	first := p.parseSelectCore()
	if first == nil {
		return nil
	}
	var left ast.Node = first

	for p.check(token.UNION) || p.check(token.INTERSECT) || p.check(token.EXCEPT) {
		op := p.token.Type.String()
		p.nextToken()
		all := p.match(token.ALL)
		if !all {
			p.match(token.DISTINCT)
		}

		right := p.parseSelectCore()
		if right == nil {
			return nil
		}

		setOp := &SetOperation{Op: op, All: all, Left: left, Right: right}
		p.finish(&setOp.Meta, start)
		left = setOp
	}
	return left
}

// parseSelectCore parses one SELECT without trailing ORDER BY or LIMIT.
//
//	select_core → SELECT [DISTINCT|ALL] target_list [FROM from_list]
//	              [WHERE expr] [GROUP BY expr_list] [HAVING expr]
func (p *Parser) parseSelectCore() *SelectStmt {
	start := p.token.Pos
	if !p.expect(token.SELECT) {
		return nil
	}

	stmt := &SelectStmt{}
	if p.match(token.DISTINCT) {
		stmt.Distinct = true
	} else {
		p.match(token.ALL)
	}

	stmt.TargetList = p.parseTargetList()

	if p.match(token.FROM) {
		stmt.From = p.parseFromList()
	}
	if p.match(token.WHERE) {
		stmt.Where = p.parseExpression()
	}
	if p.match(token.GROUP) {
		p.expect(token.BY)
		stmt.GroupBy = p.parseExpressionList()
	}
	if p.match(token.HAVING) {
		stmt.Having = p.parseExpression()
	}

	if p.failed() {
		return nil
	}
	p.finish(&stmt.Meta, start)
	return stmt
}

// parseTargetList parses the comma separated SELECT list.
func (p *Parser) parseTargetList() []ast.Node {
	var targets []ast.Node
	for {
		target := p.parseTarget()
		if target == nil {
			return nil
		}
		targets = append(targets, target)
		if !p.match(token.COMMA) {
			return targets
		}
	}
}

// parseTarget parses one SELECT list item.
//
//	target → '*' | expr [[AS] alias]
func (p *Parser) parseTarget() ast.Node {
	start := p.token.Pos
	if p.match(token.STAR) {
		star := &Star{}
		p.finish(&star.Meta, start)
		return star
	}

	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	return p.parseAlias(expr, start)
}

// parseAlias wraps expr in an AliasExpr when an alias follows.
func (p *Parser) parseAlias(expr ast.Node, start token.Position) ast.Node {
	var alias string
	switch {
	case p.match(token.AS):
		alias = p.expectIdent()
	case p.check(token.IDENT):
		alias = p.token.Literal
		p.nextToken()
	default:
		return expr
	}
	if p.failed() {
		return nil
	}

	a := &AliasExpr{Expr: expr, Alias: alias}
	p.finish(&a.Meta, start)
	return a
}

// ---------- FROM clause ----------

// parseFromList parses comma separated table references.
func (p *Parser) parseFromList() []ast.Node {
	var refs []ast.Node
	for {
		ref := p.parseTableRef()
		if ref == nil {
			return nil
		}
		refs = append(refs, ref)
		if !p.match(token.COMMA) {
			return refs
		}
	}
}

// parseTableRef parses a table reference followed by any joins.
//
//	table_ref → table_primary (join_type JOIN table_primary [ON expr | USING (cols)])*
func (p *Parser) parseTableRef() ast.Node {
	start := p.token.Pos

	left := p.parseTablePrimary()
	if left == nil {
		return nil
	}

	for isJoinKeyword(p.token.Type) {
		join := p.parseJoin(left, start)
		if join == nil {
			return nil
		}
		left = join
	}
	return left
}

// parseJoin parses one join onto left.
func (p *Parser) parseJoin(left ast.Node, start token.Position) ast.Node {
	joinType := "INNER"
	switch p.token.Type {
	case token.LEFT, token.RIGHT, token.FULL:
		joinType = p.token.Type.String()
		p.nextToken()
		p.match(token.OUTER)
	case token.CROSS:
		joinType = "CROSS"
		p.nextToken()
	case token.INNER:
		p.nextToken()
	}
	if !p.expect(token.JOIN) {
		return nil
	}

	right := p.parseTablePrimary()
	if right == nil {
		return nil
	}

	join := &JoinExpr{Type: joinType, Left: left, Right: right}
	if joinType != "CROSS" {
		switch {
		case p.match(token.ON):
			if join.On = p.parseExpression(); join.On == nil {
				return nil
			}
		case p.match(token.USING):
			p.expect(token.LPAREN)
			for {
				join.Using = append(join.Using, p.expectIdent())
				if !p.match(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN)
		}
	}

	if p.failed() {
		return nil
	}
	p.finish(&join.Meta, start)
	return join
}

// parseTablePrimary parses a table name or a derived table.
//
//	table_primary → name [[AS] alias] | '(' query ')' [[AS] alias]
func (p *Parser) parseTablePrimary() ast.Node {
	start := p.token.Pos

	if p.check(token.LPAREN) && startsQuery(p.peek.Type) {
		p.nextToken()
		sq := p.parseSubqueryBody(start)
		if sq == nil {
			return nil
		}
		switch {
		case p.match(token.AS):
			sq.Alias = p.expectIdent()
		case p.check(token.IDENT):
			sq.Alias = p.token.Literal
			p.nextToken()
		}
		if p.failed() {
			return nil
		}
		p.finish(&sq.Meta, start)
		return sq
	}

	name := p.parseQualifiedName()
	if name == nil {
		return nil
	}
	return p.parseAlias(name, start)
}

// parseSubqueryBody parses a query after its opening parenthesis, through
// the closing one.
func (p *Parser) parseSubqueryBody(start token.Position) *Subquery {
	q := p.parseQuery()
	if q == nil || !p.expect(token.RPAREN) {
		return nil
	}
	sq := &Subquery{Query: q}
	p.finish(&sq.Meta, start)
	return sq
}

// parseQualifiedName parses name ('.' name)*.
func (p *Parser) parseQualifiedName() ast.Node {
	start := p.token.Pos
	first := p.expectIdent()
	if p.failed() {
		return nil
	}

	id := &Identifier{Fields: []string{first}}
	for p.check(token.DOT) && p.checkPeek(token.IDENT) {
		p.nextToken()
		id.Fields = append(id.Fields, p.token.Literal)
		p.nextToken()
	}
	p.finish(&id.Meta, start)
	return id
}

// ---------- WITH, ORDER BY, LIMIT ----------

// parseWith parses a WITH clause.
//
//	with → WITH [RECURSIVE] name AS '(' query ')' (',' name AS '(' query ')')*
func (p *Parser) parseWith() *WithClause {
	start := p.token.Pos
	p.expect(token.WITH)

	w := &WithClause{Recursive: p.match(token.RECURSIVE)}
	for {
		cteStart := p.token.Pos
		name := p.expectIdent()
		p.expect(token.AS)
		if !p.expect(token.LPAREN) {
			return nil
		}
		q := p.parseQuery()
		if q == nil || !p.expect(token.RPAREN) {
			return nil
		}

		cte := &CommonTableExpr{Name: name, Query: q}
		p.finish(&cte.Meta, cteStart)
		w.CTEs = append(w.CTEs, cte)

		if !p.match(token.COMMA) {
			break
		}
	}

	if p.failed() {
		return nil
	}
	p.finish(&w.Meta, start)
	return w
}

// parseQueryTail parses the clauses that apply to a whole query.
func (p *Parser) parseQueryTail() (orderBy []*SortBy, limit, offset ast.Node) {
	if p.match(token.ORDER) {
		p.expect(token.BY)
		orderBy = p.parseOrderList()
	}
	if p.match(token.LIMIT) && !p.match(token.ALL) {
		limit = p.parseExpression()
	}
	if p.match(token.OFFSET) {
		offset = p.parseExpression()
	}
	return orderBy, limit, offset
}

// parseOrderList parses ORDER BY items.
//
//	order_item → expr [ASC|DESC] [NULLS (FIRST|LAST)]
func (p *Parser) parseOrderList() []*SortBy {
	var items []*SortBy
	for {
		start := p.token.Pos
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}

		item := &SortBy{Expr: expr}
		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}
		if p.match(token.NULLS) {
			first := p.match(token.FIRST)
			if !first {
				p.expect(token.LAST)
			}
			item.NullsFirst = &first
		}
		p.finish(&item.Meta, start)
		items = append(items, item)

		if !p.match(token.COMMA) {
			return items
		}
	}
}
