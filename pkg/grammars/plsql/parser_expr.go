package plsql

import (
	"fmt"

	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
	"github.com/leapstack-labs/sqlwhat/pkg/token"
)

// Expressions are parsed by precedence climbing, one function per level.
// A level only produces a rule node when its operator is present, so a
// bare column is a general_element, not a chain of single-child rules.
//
//	logical_expression       → OR, AND
//	unary_logical_expression → NOT x, x IS [NOT] NULL
//	relational_expression    → =, !=, <, >, <=, >=
//	compound_expression      → [NOT] IN, [NOT] BETWEEN, [NOT] LIKE
//	concatenation            → +, -, ||, *, /, %
//	unary_expression         → -x, +x

func (p *parser) parseExpression() *node {
	left := p.parseAnd()
	for p.check(token.OR) && !p.failed() {
		left = rule("logical_expression", left, p.term(), p.parseAnd())
	}
	return left
}

func (p *parser) parseAnd() *node {
	left := p.parseNot()
	for p.check(token.AND) && !p.failed() {
		left = rule("logical_expression", left, p.term(), p.parseNot())
	}
	return left
}

func (p *parser) parseNot() *node {
	if p.check(token.NOT) {
		return rule("unary_logical_expression", p.term(), p.parseNot())
	}
	return p.parseRelational()
}

func (p *parser) parseRelational() *node {
	left := p.parseAdditive()
	for !p.failed() {
		switch p.token.Type {
		case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE:
			left = rule("relational_expression", left, p.term(), p.parseAdditive())

		case token.IS:
			n := rule("unary_logical_expression", left, p.term(), p.accept(token.NOT))
			switch p.token.Type {
			case token.NULL, token.TRUE, token.FALSE:
				n.add(p.term())
			default:
				p.addError(fmt.Sprintf(grammar.ErrUnexpectedToken, grammar.DescribeToken(p.token), "NULL, TRUE or FALSE"))
			}
			left = n

		case token.NOT, token.IN, token.BETWEEN, token.LIKE:
			if p.check(token.NOT) {
				switch p.peek.Type {
				case token.IN, token.BETWEEN, token.LIKE:
				default:
					return left
				}
			}
			left = p.parseCompound(left)

		default:
			return left
		}
	}
	return left
}

// compound_expression → x [NOT] (IN in_elements | BETWEEN between_elements | LIKE x)
func (p *parser) parseCompound(left *node) *node {
	n := rule("compound_expression", left, p.accept(token.NOT))
	switch p.token.Type {
	case token.IN:
		n.add(p.term())
		in := rule("in_elements", p.expect(token.LPAREN))
		if startsQuery(p.token.Type) {
			in.add(p.parseSubquery())
		} else {
			for !p.failed() {
				in.add(p.parseExpression())
				comma := p.accept(token.COMMA)
				if comma == nil {
					break
				}
				in.add(comma)
			}
		}
		n.add(in.add(p.expect(token.RPAREN)))
	case token.BETWEEN:
		n.add(p.term(), rule("between_elements", p.parseAdditive(), p.expect(token.AND), p.parseAdditive()))
	case token.LIKE:
		n.add(p.term(), p.parseAdditive())
	}
	return n
}

func (p *parser) parseAdditive() *node {
	left := p.parseMultiplicative()
	for !p.failed() && (p.check(token.PLUS) || p.check(token.MINUS) || p.check(token.DPIPE)) {
		left = rule("concatenation", left, p.term(), p.parseMultiplicative())
	}
	return left
}

func (p *parser) parseMultiplicative() *node {
	left := p.parseUnary()
	for !p.failed() && (p.check(token.STAR) || p.check(token.SLASH) || p.check(token.PERCENT)) {
		left = rule("concatenation", left, p.term(), p.parseUnary())
	}
	return left
}

func (p *parser) parseUnary() *node {
	if p.check(token.MINUS) || p.check(token.PLUS) {
		return rule("unary_expression", p.term(), p.parseUnary())
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() *node {
	switch p.token.Type {
	case token.NUMBER, token.STRING, token.NULL, token.TRUE, token.FALSE:
		return rule("constant", p.term())

	case token.IDENT:
		if p.peek.Type == token.LPAREN {
			return p.parseFunctionCall()
		}
		n := rule("general_element", p.term())
		for p.check(token.DOT) && !p.failed() {
			n.add(p.term())
			if star := p.accept(token.STAR); star != nil {
				return n.add(star)
			}
			n.add(p.expect(token.IDENT))
		}
		return n

	case token.CASE:
		return p.parseCase()

	case token.CAST:
		return rule("standard_function",
			p.term(),
			p.expect(token.LPAREN),
			p.parseExpression(),
			p.expect(token.AS),
			p.parseTypeSpec(),
			p.expect(token.RPAREN),
		)

	case token.EXISTS:
		return rule("quantified_expression", p.term(), p.expect(token.LPAREN), p.parseSubquery(), p.expect(token.RPAREN))

	case token.LPAREN:
		n := rule("atom", p.term())
		if startsQuery(p.token.Type) {
			n.add(p.parseSubquery())
		} else {
			n.add(p.parseExpression())
		}
		return n.add(p.expect(token.RPAREN))

	default:
		p.addError(fmt.Sprintf(grammar.ErrUnexpectedToken, grammar.DescribeToken(p.token), "expression"))
		return nil
	}
}

// function_call → name '(' ['*' | [DISTINCT] expr (',' expr)*] ')'
func (p *parser) parseFunctionCall() *node {
	n := rule("function_call", p.term(), p.term())
	args := rule("function_argument")
	switch {
	case p.check(token.STAR):
		args.add(p.term())
	case !p.check(token.RPAREN):
		args.add(p.accept(token.DISTINCT))
		for !p.failed() {
			args.add(p.parseExpression())
			comma := p.accept(token.COMMA)
			if comma == nil {
				break
			}
			args.add(comma)
		}
	}
	if len(args.kids) > 0 {
		n.add(args)
	}
	return n.add(p.expect(token.RPAREN))
}

// case_statement → CASE [expr] case_when_part+ [case_else_part] END
func (p *parser) parseCase() *node {
	n := rule("case_statement", p.term())
	if !p.check(token.WHEN) {
		n.add(p.parseExpression())
	}
	whens := 0
	for p.check(token.WHEN) && !p.failed() {
		n.add(rule("case_when_part", p.term(), p.parseExpression(), p.expect(token.THEN), p.parseExpression()))
		whens++
	}
	if whens == 0 && !p.failed() {
		p.addError(fmt.Sprintf(grammar.ErrUnexpectedToken, grammar.DescribeToken(p.token), token.WHEN))
		return n
	}
	if p.check(token.ELSE) {
		n.add(rule("case_else_part", p.term(), p.parseExpression()))
	}
	return n.add(p.expect(token.END))
}

// type_spec → name ['(' NUMBER (',' NUMBER)* ')']
func (p *parser) parseTypeSpec() *node {
	n := rule("type_spec", p.expect(token.IDENT))
	if lp := p.accept(token.LPAREN); lp != nil {
		n.add(lp)
		for !p.failed() {
			n.add(p.expect(token.NUMBER))
			comma := p.accept(token.COMMA)
			if comma == nil {
				break
			}
			n.add(comma)
		}
		n.add(p.expect(token.RPAREN))
	}
	return n
}
