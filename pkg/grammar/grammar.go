// Package grammar defines the capability a SQL grammar exposes to the query
// engine, and a registry of grammars by name.
//
// Grammar packages register themselves in init(); import them for their
// side effect:
//
//	import _ "github.com/leapstack-labs/sqlwhat/pkg/grammars/postgres"
//
//	tree, err := grammar.Parse("postgres", "SELECT id FROM artists", "")
package grammar

import (
	"github.com/leapstack-labs/sqlwhat/pkg/ast"
)

// Module is a grammar: a parser plus the table of node kinds it exports.
type Module interface {
	// Name is the registry key, e.g. "postgres".
	Name() string
	// Parse parses text starting at the given rule. An empty start selects
	// the grammar's default entry rule.
	Parse(text, start string) (ast.Node, error)
	// Kinds returns the statically exported kinds by name.
	Kinds() map[string]ast.Kind
	// BaseKind returns the abstract supertype of every node the grammar
	// produces, or ast.InvalidKind when there is none.
	BaseKind() ast.Kind
}

// StartRuler is implemented by grammars that can list the start rules
// Parse accepts. The first rule is the default.
type StartRuler interface {
	StartRules() []string
}

// RawTree is a grammar's native parse output before conversion to nodes.
type RawTree interface {
	// Close releases resources held by the tree. Process must be called
	// before Close.
	Close()
}

// RawModule is a grammar whose native parser output needs conversion into
// nodes. Parse is equivalent to ParseRaw followed by Process.
type RawModule interface {
	Module
	ParseRaw(text, start string) (RawTree, error)
	Process(raw RawTree) (ast.Node, error)
}
