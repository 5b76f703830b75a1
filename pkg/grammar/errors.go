package grammar

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlwhat/pkg/token"
)

// Sentinel errors.
var (
	ErrUnknownGrammar   = errors.New("unknown grammar")
	ErrUnknownStartRule = errors.New("unknown start rule")
	ErrRawTreeType      = errors.New("raw tree was not produced by this grammar")
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Grammar string
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error at line %d, column %d: %s", e.Grammar, e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected token %s, expected %s"
	ErrUnterminatedString = "unterminated string literal"
	ErrIllegalCharacter   = "illegal character %q"
	ErrTrailingInput      = "unexpected %s after end of %s"
)

// NewParseError creates a ParseError at tok. When tok is ILLEGAL the
// lexical problem is reported instead of msg.
func NewParseError(grammarName string, tok token.Token, msg string) *ParseError {
	if tok.Type == token.ILLEGAL {
		// An unterminated string spans its opening quote too.
		if tok.Literal != "" && tok.End.Offset-tok.Pos.Offset == len(tok.Literal) {
			msg = fmt.Sprintf(ErrIllegalCharacter, tok.Literal)
		} else {
			msg = ErrUnterminatedString
		}
	}
	return &ParseError{Grammar: grammarName, Pos: tok.Pos, Message: msg}
}

// DescribeToken renders tok for error messages.
func DescribeToken(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.NUMBER:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case token.STRING:
		return "string literal"
	default:
		return tok.Type.String()
	}
}
