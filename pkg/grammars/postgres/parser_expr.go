package postgres

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
	"github.com/leapstack-labs/sqlwhat/pkg/token"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	precOr         = 1
//	precAnd        = 2
//	precNot        = 3
//	precComparison = 4  (=, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE)
//	precAddition   = 5  (+, -, ||)
//	precMultiply   = 6  (*, /, %)
//	precUnary      = 7  (-, +)
//	precPostfix    = 8  (::)
//
// Binary operators are left-associative: 1 + 2 + 3 parses as (1 + 2) + 3.
const (
	precNone = iota
	precOr
	precAnd
	precNot
	precComparison
	precAddition
	precMultiply
	precUnary
	precPostfix
)

// parseExpression parses an expression using precedence climbing. It
// returns nil only after recording an error.
func (p *Parser) parseExpression() ast.Node {
	return p.parseExpressionWithPrecedence(precNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) ast.Node {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	// Parse infix operators while their precedence is >= minPrecedence
	for {
		prec := p.infixPrecedence()
		if prec == precNone || prec < minPrecedence {
			break
		}

		left = p.parseInfixExpr(left, prec)
		if left == nil {
			return nil
		}
	}

	return left
}

// parseExpressionList parses comma separated expressions.
func (p *Parser) parseExpressionList() []ast.Node {
	var exprs []ast.Node
	for {
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		exprs = append(exprs, expr)
		if !p.match(token.COMMA) {
			return exprs
		}
	}
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() ast.Node {
	start := p.token.Pos

	var (
		op   string
		prec int
	)
	switch p.token.Type {
	case token.NOT:
		op, prec = "NOT", precNot
	case token.MINUS:
		op, prec = "-", precUnary
	case token.PLUS:
		op, prec = "+", precUnary
	case token.EXISTS:
		p.nextToken()
		parenStart := p.token.Pos
		if !p.expect(token.LPAREN) {
			return nil
		}
		sq := p.parseSubqueryBody(parenStart)
		if sq == nil {
			return nil
		}
		u := &UnaryExpr{Op: "EXISTS", Expr: sq}
		p.finish(&u.Meta, start)
		return u
	default:
		return p.parsePostfix(p.parsePrimary(), start)
	}

	p.nextToken()
	expr := p.parseExpressionWithPrecedence(prec)
	if expr == nil {
		return nil
	}
	u := &UnaryExpr{Op: op, Expr: expr}
	p.finish(&u.Meta, start)
	return u
}

// parsePostfix applies :: casts to expr.
func (p *Parser) parsePostfix(expr ast.Node, start token.Position) ast.Node {
	for expr != nil && p.match(token.DCOLON) {
		typeName := p.parseTypeName()
		if p.failed() {
			return nil
		}
		c := &CastExpr{Expr: expr, TypeName: typeName}
		p.finish(&c.Meta, start)
		expr = c
	}
	return expr
}

// infixPrecedence returns the precedence of the current token as an infix
// operator, or precNone.
func (p *Parser) infixPrecedence() int {
	switch p.token.Type {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.IS, token.IN, token.BETWEEN, token.LIKE:
		return precComparison
	case token.NOT:
		// NOT IN, NOT BETWEEN, NOT LIKE
		switch p.peek.Type {
		case token.IN, token.BETWEEN, token.LIKE:
			return precComparison
		}
		return precNone
	case token.PLUS, token.MINUS, token.DPIPE:
		return precAddition
	case token.STAR, token.SLASH, token.PERCENT:
		return precMultiply
	default:
		return precNone
	}
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left ast.Node, prec int) ast.Node {
	start := ast.SpanOf(left).Start

	not := false
	if p.check(token.NOT) {
		not = true
		p.nextToken()
	}

	switch p.token.Type {
	case token.IS:
		return p.parseIsExpr(left, start)
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, not, start)
	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, not, start)
	case token.LIKE:
		p.nextToken()
		op := "LIKE"
		if not {
			op = "NOT LIKE"
		}
		return p.binary(left, op, prec, start)
	}

	// Standard binary operators
	op := p.token.Type.String()
	p.nextToken()
	return p.binary(left, op, prec, start)
}

// binary parses the right operand with higher precedence (left-associative).
func (p *Parser) binary(left ast.Node, op string, prec int, start token.Position) ast.Node {
	right := p.parseExpressionWithPrecedence(prec + 1)
	if right == nil {
		return nil
	}
	b := &BinaryExpr{Left: left, Op: op, Right: right}
	p.finish(&b.Meta, start)
	return b
}

// parseIsExpr parses IS [NOT] NULL and IS [NOT] TRUE|FALSE.
func (p *Parser) parseIsExpr(left ast.Node, start token.Position) ast.Node {
	p.nextToken() // consume IS
	not := p.match(token.NOT)

	if p.match(token.NULL) {
		n := &NullTest{Expr: left, Not: not}
		p.finish(&n.Meta, start)
		return n
	}

	if p.check(token.TRUE) || p.check(token.FALSE) {
		op := "IS"
		if not {
			op = "IS NOT"
		}
		litStart := p.token.Pos
		lit := &ast.Terminal{Of: KindTerminal, Value: p.token.Type.String()}
		p.nextToken()
		p.finish(&lit.Meta, litStart)

		b := &BinaryExpr{Left: left, Op: op, Right: lit}
		p.finish(&b.Meta, start)
		return b
	}

	p.addError(fmt.Sprintf(grammar.ErrUnexpectedToken, grammar.DescribeToken(p.token), "NULL, TRUE or FALSE"))
	return nil
}

// parseInExpr parses the list or subquery after [NOT] IN.
func (p *Parser) parseInExpr(left ast.Node, not bool, start token.Position) ast.Node {
	parenStart := p.token.Pos
	if !p.expect(token.LPAREN) {
		return nil
	}

	in := &InExpr{Expr: left, Not: not}
	if startsQuery(p.token.Type) {
		if in.Query = p.parseSubqueryBody(parenStart); in.Query == nil {
			return nil
		}
	} else {
		if in.Values = p.parseExpressionList(); in.Values == nil {
			return nil
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
	}

	p.finish(&in.Meta, start)
	return in
}

// parseBetweenExpr parses low AND high after [NOT] BETWEEN.
func (p *Parser) parseBetweenExpr(left ast.Node, not bool, start token.Position) ast.Node {
	low := p.parseExpressionWithPrecedence(precAddition)
	if low == nil || !p.expect(token.AND) {
		return nil
	}
	high := p.parseExpressionWithPrecedence(precAddition)
	if high == nil {
		return nil
	}

	b := &BetweenExpr{Expr: left, Not: not, Low: low, High: high}
	p.finish(&b.Meta, start)
	return b
}

// ---------- Primary expressions ----------

// parsePrimary parses literals, names, calls, CASE, CAST and parenthesized
// expressions.
func (p *Parser) parsePrimary() ast.Node {
	start := p.token.Pos

	switch p.token.Type {
	case token.NUMBER, token.STRING:
		return p.terminal(p.token.Literal)

	case token.TRUE, token.FALSE, token.NULL:
		return p.terminal(p.token.Type.String())

	case token.IDENT:
		if p.checkPeek(token.LPAREN) {
			return p.parseFuncCall()
		}
		return p.parseColumnRef()

	case token.CASE:
		return p.parseCase()

	case token.CAST:
		p.nextToken()
		p.expect(token.LPAREN)
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		p.expect(token.AS)
		typeName := p.parseTypeName()
		if !p.expect(token.RPAREN) {
			return nil
		}
		c := &CastExpr{Expr: expr, TypeName: typeName}
		p.finish(&c.Meta, start)
		return c

	case token.LPAREN:
		p.nextToken()
		if startsQuery(p.token.Type) {
			sq := p.parseSubqueryBody(start)
			if sq == nil {
				return nil
			}
			return sq
		}
		expr := p.parseExpression()
		if expr == nil || !p.expect(token.RPAREN) {
			return nil
		}
		return expr

	default:
		p.addError(fmt.Sprintf(grammar.ErrUnexpectedToken, grammar.DescribeToken(p.token), "expression"))
		return nil
	}
}

// terminal consumes the current token as a literal.
func (p *Parser) terminal(value string) ast.Node {
	start := p.token.Pos
	t := &ast.Terminal{Of: KindTerminal, Value: value}
	p.nextToken()
	p.finish(&t.Meta, start)
	return t
}

// parseColumnRef parses name ('.' name)* ['.' '*'].
func (p *Parser) parseColumnRef() ast.Node {
	start := p.token.Pos
	fields := []string{p.token.Literal}
	p.nextToken()

	for p.match(token.DOT) {
		if p.match(token.STAR) {
			s := &Star{Table: strings.Join(fields, ".")}
			p.finish(&s.Meta, start)
			return s
		}
		fields = append(fields, p.expectIdent())
		if p.failed() {
			return nil
		}
	}

	id := &Identifier{Fields: fields}
	p.finish(&id.Meta, start)
	return id
}

// parseFuncCall parses name '(' [DISTINCT] args | '*' ')'.
func (p *Parser) parseFuncCall() ast.Node {
	start := p.token.Pos
	fc := &FuncCall{Name: p.token.Literal}
	p.nextToken()
	p.expect(token.LPAREN)

	switch {
	case p.match(token.STAR):
		fc.Star = true
	case !p.check(token.RPAREN):
		fc.Distinct = p.match(token.DISTINCT)
		if fc.Args = p.parseExpressionList(); fc.Args == nil {
			return nil
		}
	}

	if !p.expect(token.RPAREN) {
		return nil
	}
	p.finish(&fc.Meta, start)
	return fc
}

// parseCase parses both simple and searched CASE expressions.
//
//	case → CASE [operand] (WHEN expr THEN expr)+ [ELSE expr] END
func (p *Parser) parseCase() ast.Node {
	start := p.token.Pos
	p.nextToken() // consume CASE

	c := &CaseExpr{}
	if !p.check(token.WHEN) {
		if c.Operand = p.parseExpression(); c.Operand == nil {
			return nil
		}
	}

	for p.check(token.WHEN) {
		whenStart := p.token.Pos
		p.nextToken()
		cond := p.parseExpression()
		if cond == nil || !p.expect(token.THEN) {
			return nil
		}
		result := p.parseExpression()
		if result == nil {
			return nil
		}
		w := &WhenClause{Condition: cond, Result: result}
		p.finish(&w.Meta, whenStart)
		c.Whens = append(c.Whens, w)
	}
	if len(c.Whens) == 0 {
		p.addError(fmt.Sprintf(grammar.ErrUnexpectedToken, grammar.DescribeToken(p.token), token.WHEN))
		return nil
	}

	if p.match(token.ELSE) {
		if c.Else = p.parseExpression(); c.Else == nil {
			return nil
		}
	}
	if !p.expect(token.END) {
		return nil
	}
	p.finish(&c.Meta, start)
	return c
}

// parseTypeName parses a type name with optional modifiers: numeric(10, 2).
func (p *Parser) parseTypeName() string {
	name := p.expectIdent()
	if !p.match(token.LPAREN) {
		return name
	}

	var mods []string
	for {
		if !p.check(token.NUMBER) {
			p.addError(fmt.Sprintf(grammar.ErrUnexpectedToken, grammar.DescribeToken(p.token), token.NUMBER))
			return name
		}
		mods = append(mods, p.token.Literal)
		p.nextToken()
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return name + "(" + strings.Join(mods, ",") + ")"
}
