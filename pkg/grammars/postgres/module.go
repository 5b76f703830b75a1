// Package postgres is a hand-written grammar for the SELECT subset of
// PostgreSQL. Its node kinds are registered statically: every node type is
// a Go struct under the abstract AstNode kind.
//
// The grammar registers itself as "postgres" on import.
package postgres

import (
	"maps"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
)

// Name is the registry key of this grammar.
const Name = "postgres"

// Start rules accepted by Parse.
const (
	StartScript     = "script"
	StartStatement  = "statement"
	StartSubquery   = "subquery"
	StartExpression = "expression"
)

func init() {
	grammar.Register(Module{})
}

// Module implements grammar.Module.
type Module struct{}

// Name implements grammar.Module.
func (Module) Name() string { return Name }

// Parse implements grammar.Module.
func (Module) Parse(text, start string) (ast.Node, error) {
	return Parse(text, start)
}

// Kinds implements grammar.Module.
func (Module) Kinds() map[string]ast.Kind {
	return maps.Clone(kindTable)
}

// BaseKind implements grammar.Module.
func (Module) BaseKind() ast.Kind { return AstNode }

// StartRules returns the accepted start rule names, default first.
func (Module) StartRules() []string {
	return []string{StartScript, StartStatement, StartSubquery, StartExpression}
}
