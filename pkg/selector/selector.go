// Package selector finds the nodes of a syntax tree that match a kind, in
// document order, under a priority-gated traversal.
//
// # Traversal
//
// Visit walks the tree depth-first in pre-order. Every reached node whose
// kind matches the target is collected. The walk only continues into a
// node's children while the selector's threshold is strictly greater than
// that node's priority, so a node whose priority is at or above the
// threshold acts as a barrier: nothing beneath it is collected. Kinds that
// open a new query scope (subqueries, CTEs) declare a high priority, so by
// default a query for statements surfaces only the outermost one, while an
// explicitly raised threshold reaches into nested scopes.
//
// The threshold defaults to the target kind's own declared priority.
//
// # Head mode
//
// VisitHead collects from the immediate frontier of a previously found
// node: the root itself is never collected and always opened, and its
// children are then visited normally. Re-selecting a chained binary
// expression in head mode yields its first-level nested operand rather than
// a full flattening.
package selector

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
)

// Sentinel errors for selector construction.
var (
	ErrInvalidTarget = errors.New("selector target kind is not registered")
	ErrEmptyName     = errors.New("selector name is empty")
)

// Selector is an immutable node query. It holds no per-visit state and is
// safe for concurrent use.
type Selector struct {
	target   ast.Kind
	name     string
	byName   bool
	priority int
	strict   bool
}

type config struct {
	priority    int
	hasPriority bool
	name        string
	hasName     bool
	strict      bool
	hasStrict   bool
}

// Option configures a Selector.
type Option func(*config)

// WithPriority overrides the threshold that gates recursion.
func WithPriority(p int) Option {
	return func(c *config) {
		c.priority = p
		c.hasPriority = true
	}
}

// WithName matches nodes by runtime kind name beneath the target kind,
// which must be abstract. Name matching ignores the strict flag.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
		c.hasName = true
	}
}

// WithStrict chooses between kind identity (true, the default) and runtime
// kind name (false) when matching the target.
func WithStrict(strict bool) Option {
	return func(c *config) {
		c.strict = strict
		c.hasStrict = true
	}
}

// Settings reports what a list of options sets, for callers that only
// accept some of them.
type Settings struct {
	Priority    int
	HasPriority bool
	Name        string
	HasName     bool
	Strict      bool
	HasStrict   bool
}

// Describe applies opts to an empty configuration and reports the result.
func Describe(opts ...Option) Settings {
	cfg := config{strict: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return Settings{
		Priority:    cfg.priority,
		HasPriority: cfg.hasPriority,
		Name:        cfg.name,
		HasName:     cfg.hasName,
		Strict:      cfg.strict,
		HasStrict:   cfg.hasStrict,
	}
}

// New creates a Selector for target.
func New(target ast.Kind, opts ...Option) (*Selector, error) {
	cfg := config{strict: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !target.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTarget, target)
	}

	s := &Selector{
		target: target,
		strict: cfg.strict,
	}

	if cfg.hasName {
		if cfg.name == "" {
			return nil, ErrEmptyName
		}
		if !target.Abstract() {
			return nil, fmt.Errorf("select %q under %s: %w", cfg.name, target, ast.ErrNotAbstract)
		}
		s.name = cfg.name
		s.byName = true
	}

	switch {
	case cfg.hasPriority:
		s.priority = cfg.priority
	case s.byName:
		s.priority = target.Priority()
		if k, ok := ast.Lookup(target, s.name); ok {
			s.priority = k.Priority()
		}
	default:
		s.priority = target.Priority()
	}

	return s, nil
}

// Find is shorthand for New followed by Visit.
func Find(root ast.Node, target ast.Kind, opts ...Option) ([]ast.Node, error) {
	s, err := New(target, opts...)
	if err != nil {
		return nil, err
	}
	return s.Visit(root), nil
}

// Target returns the kind the selector was built for.
func (s *Selector) Target() ast.Kind { return s.target }

// Name returns the rule name matched beneath the target, or "".
func (s *Selector) Name() string { return s.name }

// Priority returns the effective threshold.
func (s *Selector) Priority() int { return s.priority }

// Strict reports whether the target is matched by kind identity.
func (s *Selector) Strict() bool { return s.strict }

func (s *Selector) String() string {
	if s.byName {
		return fmt.Sprintf("%s[%s] priority=%d", s.target, s.name, s.priority)
	}
	return fmt.Sprintf("%s priority=%d strict=%t", s.target, s.priority, s.strict)
}

// Match reports whether n itself matches, ignoring traversal gating.
func (s *Selector) Match(n ast.Node) bool {
	switch {
	case s.byName:
		return n.Kind().IsA(s.target) && ast.NameOf(n) == s.name
	case s.strict:
		return n.Kind() == s.target
	default:
		return ast.NameOf(n) == s.target.String()
	}
}

// opens reports whether the walk may collect beneath n.
func (s *Selector) opens(n ast.Node) bool {
	return s.priority > ast.PriorityOf(n)
}

// Visit returns the matches in the tree rooted at root, in document order.
// The result is empty, not an error, when nothing matches.
func (s *Selector) Visit(root ast.Node) []ast.Node {
	var out []ast.Node
	s.walk(root, &out)
	return out
}

// VisitHead returns the matches on the immediate frontier of root.
func (s *Selector) VisitHead(root ast.Node) []ast.Node {
	var out []ast.Node
	if root == nil {
		return out
	}
	for _, c := range root.Children() {
		s.walk(c, &out)
	}
	return out
}

// walk collects n and its open descendants. Once a barrier is hit nothing
// below it can be collected, so the subtree is not entered.
func (s *Selector) walk(n ast.Node, out *[]ast.Node) {
	if n == nil {
		return
	}
	if s.Match(n) {
		*out = append(*out, n)
	}
	if !s.opens(n) {
		return
	}
	for _, c := range n.Children() {
		s.walk(c, out)
	}
}
