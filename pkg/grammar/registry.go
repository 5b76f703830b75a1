package grammar

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/sqlwhat/pkg/ast"
)

var (
	modulesMu sync.RWMutex
	modules   = make(map[string]Module)
)

// Register registers a grammar in the global registry, replacing any
// grammar of the same name. Called by grammar packages in their init()
// functions.
func Register(m Module) {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	modules[strings.ToLower(m.Name())] = m
}

// Get returns a grammar by name.
func Get(name string) (Module, bool) {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	m, ok := modules[strings.ToLower(name)]
	return m, ok
}

// Lookup is Get with an error for unknown names.
func Lookup(name string) (Module, error) {
	m, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownGrammar, name, strings.Join(List(), ", "))
	}
	return m, nil
}

// List returns all registered grammar names (sorted).
func List() []string {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse parses text with the named grammar.
func Parse(name, text, start string) (ast.Node, error) {
	m, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return m.Parse(text, start)
}
