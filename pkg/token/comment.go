package token

import "strings"

// Comment is SQL trivia the lexer sets aside. Comments never become syntax
// tree nodes, so a selector cannot match them.
type Comment struct {
	Block bool   // /* ... */ rather than -- ...
	Text  string // raw text including delimiters
	Span  Span
}

// Body returns the comment text without its delimiters or surrounding space.
func (c Comment) Body() string {
	if c.Block {
		body := strings.TrimPrefix(c.Text, "/*")
		return strings.TrimSpace(strings.TrimSuffix(body, "*/"))
	}
	return strings.TrimSpace(strings.TrimPrefix(c.Text, "--"))
}
