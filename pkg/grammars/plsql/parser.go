package plsql

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
	"github.com/leapstack-labs/sqlwhat/pkg/lexer"
	"github.com/leapstack-labs/sqlwhat/pkg/token"
)

// node is one element of the raw parse tree: a rule with children, or a
// terminal token when rule is empty.
type node struct {
	rule string
	tok  token.Token
	kids []*node
}

func (n *node) add(kids ...*node) *node {
	for _, k := range kids {
		if k != nil {
			n.kids = append(n.kids, k)
		}
	}
	return n
}

func rule(name string, kids ...*node) *node {
	return (&node{rule: name}).add(kids...)
}

// parser builds a concrete parse tree with lowercase rule names. Every
// consumed token becomes a terminal child of the rule that consumed it.
//
//	sql_script               → (unit_statement ';'?)*
//	unit_statement           → select_statement
//	select_statement         → [subquery_factoring_clause] subquery [order_by_clause]
//	subquery                 → subquery_basic_elements subquery_operation_part*
//	subquery_basic_elements  → query_block | '(' subquery ')'
//	query_block              → SELECT [DISTINCT|ALL] selected_list [from_clause]
//	                           [where_clause] [group_by_clause] [having_clause]
type parser struct {
	lexer  *lexer.Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	errors []error
}

func newParser(text string) *parser {
	p := &parser{lexer: lexer.New(text)}
	p.nextToken()
	p.nextToken()
	return p
}

// parse parses text from start into a raw tree.
func parse(text, start string) (*node, error) {
	p := newParser(text)

	var root *node
	switch start {
	case "", StartScript:
		start = StartScript
		root = p.parseScript()
	case StartSelectStatement:
		root = p.parseSelectStatement()
		p.accept(token.SEMI)
	case StartSubquery:
		root = p.parseSubquery()
	case StartExpression:
		root = rule("expression", p.parseExpression())
	default:
		return nil, fmt.Errorf("%w %q for grammar %s", grammar.ErrUnknownStartRule, start, Name)
	}

	if !p.failed() && !p.check(token.EOF) {
		p.addError(fmt.Sprintf(grammar.ErrTrailingInput, grammar.DescribeToken(p.token), start))
	}
	if p.failed() {
		return nil, p.errors[0]
	}
	return root, nil
}

// ---------- Token Helpers ----------

func (p *parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkWord returns true if the current token is the identifier w, for
// words the shared lexer does not treat as keywords.
func (p *parser) checkWord(w string) bool {
	return p.token.Type == token.IDENT && strings.EqualFold(p.token.Literal, w)
}

// term consumes the current token as a terminal.
func (p *parser) term() *node {
	n := &node{tok: p.token}
	p.nextToken()
	return n
}

// accept consumes the current token if it matches.
func (p *parser) accept(t token.TokenType) *node {
	if p.check(t) {
		return p.term()
	}
	return nil
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *parser) expect(t token.TokenType) *node {
	if p.check(t) {
		return p.term()
	}
	p.addError(fmt.Sprintf(grammar.ErrUnexpectedToken, grammar.DescribeToken(p.token), t))
	return nil
}

func (p *parser) addError(msg string) {
	p.errors = append(p.errors, grammar.NewParseError(Name, p.token, msg))
}

func (p *parser) failed() bool {
	return len(p.errors) > 0
}

func startsQuery(t token.TokenType) bool {
	return t == token.SELECT || t == token.WITH
}

// ---------- Statements ----------

func (p *parser) parseScript() *node {
	n := rule("sql_script")
	for !p.check(token.EOF) && !p.failed() {
		if semi := p.accept(token.SEMI); semi != nil {
			n.add(semi)
			continue
		}
		n.add(rule("unit_statement", p.parseSelectStatement()))
		if !p.check(token.EOF) {
			n.add(p.expect(token.SEMI))
		}
	}
	return n
}

func (p *parser) parseSelectStatement() *node {
	n := rule("select_statement")
	if p.check(token.WITH) {
		n.add(p.parseFactoringClause())
	}
	n.add(p.parseSubquery())
	if p.check(token.ORDER) {
		n.add(p.parseOrderByClause())
	}
	return n
}

// subquery_factoring_clause → WITH factoring_element (',' factoring_element)*
func (p *parser) parseFactoringClause() *node {
	n := rule("subquery_factoring_clause", p.term())
	for !p.failed() {
		n.add(rule("factoring_element",
			rule("query_name", p.expect(token.IDENT)),
			p.expect(token.AS),
			p.expect(token.LPAREN),
			p.parseSubquery(),
			p.expect(token.RPAREN),
		))
		comma := p.accept(token.COMMA)
		if comma == nil {
			break
		}
		n.add(comma)
	}
	return n
}

func (p *parser) checkSetOperator() bool {
	return p.check(token.UNION) || p.check(token.INTERSECT) || p.check(token.EXCEPT) || p.checkWord("minus")
}

func (p *parser) parseSubquery() *node {
	n := rule("subquery", p.parseBasicElements())
	for p.checkSetOperator() && !p.failed() {
		op := rule("subquery_operation_part", p.term())
		op.add(p.accept(token.ALL))
		op.add(p.parseBasicElements())
		n.add(op)
	}
	return n
}

func (p *parser) parseBasicElements() *node {
	n := rule("subquery_basic_elements")
	if p.check(token.LPAREN) {
		return n.add(p.term(), p.parseSubquery(), p.expect(token.RPAREN))
	}
	return n.add(p.parseQueryBlock())
}

func (p *parser) parseQueryBlock() *node {
	n := rule("query_block", p.expect(token.SELECT))
	if p.failed() {
		return n
	}
	if d := p.accept(token.DISTINCT); d != nil {
		n.add(d)
	} else {
		n.add(p.accept(token.ALL))
	}
	n.add(p.parseSelectedList())

	if p.check(token.FROM) {
		n.add(rule("from_clause", p.term(), p.parseTableRefList()))
	}
	if p.check(token.WHERE) {
		n.add(rule("where_clause", p.term(), p.parseExpression()))
	}
	if p.check(token.GROUP) {
		g := rule("group_by_clause", p.term(), p.expect(token.BY))
		n.add(p.parseElements(g, "group_by_elements"))
	}
	if p.check(token.HAVING) {
		n.add(rule("having_clause", p.term(), p.parseExpression()))
	}
	return n
}

// parseElements adds comma separated expressions, each wrapped in a rule
// named element, to n.
func (p *parser) parseElements(n *node, element string) *node {
	for !p.failed() {
		n.add(rule(element, p.parseExpression()))
		comma := p.accept(token.COMMA)
		if comma == nil {
			break
		}
		n.add(comma)
	}
	return n
}

func (p *parser) parseSelectedList() *node {
	n := rule("selected_list")
	if star := p.accept(token.STAR); star != nil {
		return n.add(star)
	}
	for !p.failed() {
		el := rule("select_list_elements", p.parseExpression())
		switch {
		case p.check(token.AS):
			el.add(rule("column_alias", p.term(), p.expect(token.IDENT)))
		case p.check(token.IDENT):
			el.add(rule("column_alias", p.term()))
		}
		n.add(el)

		comma := p.accept(token.COMMA)
		if comma == nil {
			break
		}
		n.add(comma)
	}
	return n
}

// ---------- FROM clause ----------

func (p *parser) parseTableRefList() *node {
	n := rule("table_ref_list")
	for !p.failed() {
		n.add(p.parseTableRef())
		comma := p.accept(token.COMMA)
		if comma == nil {
			break
		}
		n.add(comma)
	}
	return n
}

func isJoinKeyword(t token.TokenType) bool {
	switch t {
	case token.JOIN, token.LEFT, token.RIGHT, token.INNER, token.FULL, token.CROSS:
		return true
	}
	return false
}

func (p *parser) parseTableRef() *node {
	n := rule("table_ref", p.parseTableRefAux())
	for isJoinKeyword(p.token.Type) && !p.failed() {
		n.add(p.parseJoinClause())
	}
	return n
}

// table_ref_aux → (tableview_name | '(' subquery ')') [table_alias]
func (p *parser) parseTableRefAux() *node {
	n := rule("table_ref_aux")
	if p.check(token.LPAREN) && startsQuery(p.peek.Type) {
		n.add(p.term(), p.parseSubquery(), p.expect(token.RPAREN))
	} else {
		n.add(p.parseTableviewName())
	}

	switch {
	case p.check(token.AS):
		n.add(rule("table_alias", p.term(), p.expect(token.IDENT)))
	case p.check(token.IDENT) && !p.checkWord("minus"):
		n.add(rule("table_alias", p.term()))
	}
	return n
}

func (p *parser) parseTableviewName() *node {
	n := rule("tableview_name", p.expect(token.IDENT))
	for p.check(token.DOT) && p.peek.Type == token.IDENT {
		n.add(p.term(), p.term())
	}
	return n
}

func (p *parser) parseJoinClause() *node {
	n := rule("join_clause")
	switch p.token.Type {
	case token.LEFT, token.RIGHT, token.FULL:
		n.add(p.term(), p.accept(token.OUTER))
	case token.INNER, token.CROSS:
		n.add(p.term())
	}
	n.add(p.expect(token.JOIN), p.parseTableRefAux())

	switch {
	case p.check(token.ON):
		n.add(rule("join_on_part", p.term(), p.parseExpression()))
	case p.check(token.USING):
		u := rule("join_using_part", p.term(), p.expect(token.LPAREN))
		for !p.failed() {
			u.add(p.expect(token.IDENT))
			comma := p.accept(token.COMMA)
			if comma == nil {
				break
			}
			u.add(comma)
		}
		n.add(u.add(p.expect(token.RPAREN)))
	}
	return n
}

// ---------- ORDER BY ----------

func (p *parser) parseOrderByClause() *node {
	n := rule("order_by_clause", p.term(), p.expect(token.BY))
	for !p.failed() {
		el := rule("order_by_elements", p.parseExpression())
		if d := p.accept(token.DESC); d != nil {
			el.add(d)
		} else {
			el.add(p.accept(token.ASC))
		}
		if nulls := p.accept(token.NULLS); nulls != nil {
			el.add(nulls)
			if first := p.accept(token.FIRST); first != nil {
				el.add(first)
			} else {
				el.add(p.expect(token.LAST))
			}
		}
		n.add(el)

		comma := p.accept(token.COMMA)
		if comma == nil {
			break
		}
		n.add(comma)
	}
	return n
}
