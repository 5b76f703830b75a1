package postgres

import (
	"fmt"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
	"github.com/leapstack-labs/sqlwhat/pkg/lexer"
	"github.com/leapstack-labs/sqlwhat/pkg/token"
)

// Parser is a recursive descent parser for the postgres SELECT subset:
//
//	script        → statement (';' statement)* [';']
//	statement     → [WITH [RECURSIVE] cte_list] set_expr
//	                [ORDER BY order_list] [LIMIT expr] [OFFSET expr]
//	set_expr      → select_core ((UNION|INTERSECT|EXCEPT) [ALL] select_core)*
//	select_core   → SELECT [DISTINCT|ALL] target_list [FROM from_list]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//
// Expressions are parsed by precedence climbing, see parser_expr.go.
type Parser struct {
	lexer  *lexer.Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	prev   token.Token // last consumed token
	errors []error
}

// NewParser creates a parser for text.
func NewParser(text string) *Parser {
	p := &Parser{lexer: lexer.New(text)}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses text from the given start rule. See the Start constants.
func Parse(text, start string) (ast.Node, error) {
	p := NewParser(text)

	var (
		root ast.Node
		rule string
	)
	switch start {
	case "", StartScript:
		rule = StartScript
		if s := p.parseScript(); s != nil {
			root = s
		}
	case StartStatement, StartSubquery:
		rule = start
		root = p.parseQuery()
		p.match(token.SEMI)
	case StartExpression:
		rule = start
		root = p.parseExpression()
	default:
		return nil, fmt.Errorf("%w %q for grammar %s", grammar.ErrUnknownStartRule, start, Name)
	}

	if len(p.errors) == 0 && !p.check(token.EOF) {
		p.addError(fmt.Sprintf(grammar.ErrTrailingInput, grammar.DescribeToken(p.token), rule))
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if root == nil {
		return nil, &grammar.ParseError{Grammar: Name, Pos: p.token.Pos, Message: "empty input"}
	}
	return root, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.prev = p.token
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(grammar.ErrUnexpectedToken, grammar.DescribeToken(p.token), t))
	return false
}

// expectIdent consumes an identifier and returns its text.
func (p *Parser) expectIdent() string {
	if p.check(token.IDENT) {
		name := p.token.Literal
		p.nextToken()
		return name
	}
	p.addError(fmt.Sprintf(grammar.ErrUnexpectedToken, grammar.DescribeToken(p.token), token.IDENT))
	return ""
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, grammar.NewParseError(Name, p.token, msg))
}

// failed reports whether parsing has already hit an error. The parser
// stops building nodes after the first error.
func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// finish sets a node's span from start to the end of the last consumed
// token.
func (p *Parser) finish(m *ast.Meta, start token.Position) {
	m.Span = token.Span{Start: start, End: p.prev.End}
}

// ---------- Keyword Helpers ----------

// isJoinKeyword returns true if token starts a join.
func isJoinKeyword(t token.TokenType) bool {
	switch t {
	case token.JOIN, token.LEFT, token.RIGHT, token.INNER, token.FULL, token.CROSS:
		return true
	}
	return false
}

// startsQuery returns true if the token begins a query.
func startsQuery(t token.TokenType) bool {
	return t == token.SELECT || t == token.WITH
}
