// Package dispatch resolves kind names against one grammar and runs
// Selector queries with them, so callers can query a tree with plain names
// like "SelectStmt" or "Query_block".
//
// A name is resolved in order:
//
//  1. a concrete kind the grammar declares statically: strict selection of
//     that kind;
//  2. otherwise a rule name, including synthesized rule kinds: selection by
//     name beneath the grammar's abstract base kind.
//
// Resolution fixes how a name is matched, so callers may only adjust the
// priority threshold.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
	"github.com/leapstack-labs/sqlwhat/pkg/grammar"
	"github.com/leapstack-labs/sqlwhat/pkg/selector"
)

// Sentinel errors.
var (
	ErrNoBaseKind = errors.New("grammar has no abstract base kind")
	ErrNilModule  = errors.New("grammar module is nil")
	ErrMatchFixed = errors.New("matching is resolved from the name; only a priority may be given")
)

// Dispatcher binds one grammar module and its kind table. It is immutable
// after construction and safe for concurrent use.
type Dispatcher struct {
	module grammar.Module
	base   ast.Kind
	kinds  map[string]ast.Kind
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for resolution decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Dispatcher over m with an explicit abstract base kind.
func New(base ast.Kind, m grammar.Module, opts ...Option) (*Dispatcher, error) {
	if m == nil {
		return nil, ErrNilModule
	}
	if !base.Valid() {
		return nil, fmt.Errorf("dispatcher for %s: %w", m.Name(), ErrNoBaseKind)
	}
	if !base.Abstract() {
		return nil, fmt.Errorf("dispatcher base %s: %w", base, ast.ErrNotAbstract)
	}

	d := &Dispatcher{
		module: m,
		base:   base,
		kinds:  maps.Clone(m.Kinds()),
		logger: slog.New(slog.DiscardHandler),
	}
	if d.kinds == nil {
		d.kinds = make(map[string]ast.Kind)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// FromModule creates a Dispatcher over m using the module's own base kind.
func FromModule(m grammar.Module, opts ...Option) (*Dispatcher, error) {
	if m == nil {
		return nil, ErrNilModule
	}
	return New(m.BaseKind(), m, opts...)
}

// ForGrammar creates a Dispatcher for a registered grammar.
func ForGrammar(name string, opts ...Option) (*Dispatcher, error) {
	m, err := grammar.Lookup(name)
	if err != nil {
		return nil, err
	}
	return FromModule(m, opts...)
}

// Module returns the bound grammar.
func (d *Dispatcher) Module() grammar.Module { return d.module }

// Base returns the abstract base kind used for rule-name selection.
func (d *Dispatcher) Base() ast.Kind { return d.base }

// Kinds returns the statically exported kind names, sorted.
func (d *Dispatcher) Kinds() []string {
	return slices.Sorted(maps.Keys(d.kinds))
}

// Kind returns the exported kind with the given name.
func (d *Dispatcher) Kind(name string) (ast.Kind, bool) {
	k, ok := d.kinds[name]
	return k, ok
}

// Parse parses text with the bound grammar.
func (d *Dispatcher) Parse(text, start string) (ast.Node, error) {
	return d.module.Parse(text, start)
}

// Selector resolves name to a Selector. Of the given options only a
// priority is honoured; WithName or WithStrict yield ErrMatchFixed.
func (d *Dispatcher) Selector(name string, opts ...selector.Option) (*selector.Selector, error) {
	if name == "" {
		return nil, selector.ErrEmptyName
	}
	given := selector.Describe(opts...)
	if given.HasName || given.HasStrict {
		return nil, fmt.Errorf("select %q in %s: %w", name, d.module.Name(), ErrMatchFixed)
	}

	var (
		target   ast.Kind
		resolved []selector.Option
	)
	if k, ok := d.kinds[name]; ok && !k.Abstract() && !k.Dynamic() {
		target = k
		resolved = []selector.Option{selector.WithStrict(true)}
		d.logger.Debug("resolved static kind",
			slog.String("grammar", d.module.Name()),
			slog.String("name", name),
			slog.Int("priority", k.Priority()))
	} else {
		target = d.base
		resolved = []selector.Option{selector.WithName(name), selector.WithStrict(false)}
		d.logger.Debug("resolved rule name",
			slog.String("grammar", d.module.Name()),
			slog.String("name", name),
			slog.String("base", d.base.String()))
	}

	if given.HasPriority {
		resolved = append(resolved, selector.WithPriority(given.Priority))
	}
	sel, err := selector.New(target, resolved...)
	if err != nil {
		return nil, fmt.Errorf("select %q in %s: %w", name, d.module.Name(), err)
	}
	return sel, nil
}

// Find returns the nodes of tree matching name, in document order.
func (d *Dispatcher) Find(name string, tree ast.Node, opts ...selector.Option) ([]ast.Node, error) {
	sel, err := d.Selector(name, opts...)
	if err != nil {
		return nil, err
	}
	return sel.Visit(tree), nil
}

// FindHead is Find in head mode.
func (d *Dispatcher) FindHead(name string, tree ast.Node, opts ...selector.Option) ([]ast.Node, error) {
	sel, err := d.Selector(name, opts...)
	if err != nil {
		return nil, err
	}
	return sel.VisitHead(tree), nil
}
