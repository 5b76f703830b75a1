package ast

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Kind identifies the concrete construct a Node represents.
//
// Kinds come in two flavours. Static kinds are registered once by a grammar
// package (typically at init time) and exported as package-level values,
// one per construct. Synthesized kinds are created on demand beneath an
// abstract base kind, one per grammar rule name, for grammars that have no
// static handle per rule.
type Kind int32

// InvalidKind is the zero Kind. It never identifies a node.
const InvalidKind Kind = 0

// DefaultPriority is the priority of a kind that declares none.
const DefaultPriority = 0

// Sentinel errors for kind registration.
var (
	ErrNotAbstract = errors.New("kind does not offer dynamic names")
	ErrEmptyName   = errors.New("kind name is empty")
)

// KindSpec declares a kind.
type KindSpec struct {
	// Name is the runtime kind name reported by NameOf.
	Name string
	// Priority is the declared barrier strength of the kind.
	Priority int
	// Abstract marks a supertype beneath which per-rule kinds may be
	// synthesized and matched by name.
	Abstract bool
	// Base is the supertype, or InvalidKind for a root kind.
	Base Kind
}

type synthKey struct {
	base Kind
	name string
}

var (
	kindsMu     sync.RWMutex
	kinds       = []KindSpec{{Name: "Invalid"}}
	synthesized = make(map[synthKey]Kind)
	dynamic     = make(map[Kind]bool)
)

// Register registers a new static kind and returns its identity. Each call
// yields a distinct Kind, even when names repeat: two grammars may both
// declare an "Identifier" kind and strict selection tells them apart.
func Register(spec KindSpec) Kind {
	if spec.Name == "" {
		panic(ErrEmptyName)
	}
	kindsMu.Lock()
	defer kindsMu.Unlock()
	return registerLocked(spec)
}

func registerLocked(spec KindSpec) Kind {
	if spec.Base != InvalidKind && int(spec.Base) >= len(kinds) {
		panic(fmt.Sprintf("ast: unknown base kind %d for %q", spec.Base, spec.Name))
	}
	k := Kind(len(kinds))
	kinds = append(kinds, spec)
	return k
}

// Synthesize returns the kind for rule name beneath the abstract base,
// registering it on first use with the given priority. Later calls return
// the same Kind and ignore priority.
func Synthesize(base Kind, name string, priority int) (Kind, error) {
	if name == "" {
		return InvalidKind, ErrEmptyName
	}
	if !base.Abstract() {
		return InvalidKind, fmt.Errorf("synthesize %q under %s: %w", name, base, ErrNotAbstract)
	}

	key := synthKey{base: base, name: name}

	kindsMu.RLock()
	k, ok := synthesized[key]
	kindsMu.RUnlock()
	if ok {
		return k, nil
	}

	kindsMu.Lock()
	defer kindsMu.Unlock()
	if k, ok := synthesized[key]; ok {
		return k, nil
	}
	k = registerLocked(KindSpec{Name: name, Priority: priority, Base: base})
	synthesized[key] = k
	dynamic[k] = true
	return k, nil
}

// Lookup returns the synthesized kind for name beneath base, if any.
func Lookup(base Kind, name string) (Kind, bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	k, ok := synthesized[synthKey{base: base, name: name}]
	return k, ok
}

// Synthesized returns the names of all kinds synthesized beneath base,
// sorted.
func Synthesized(base Kind) []string {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	var names []string
	for key := range synthesized {
		if key.base == base {
			names = append(names, key.name)
		}
	}
	sort.Strings(names)
	return names
}

// Spec returns the declaration of k. An unknown kind yields the spec of
// InvalidKind.
func (k Kind) Spec() KindSpec {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	if k <= InvalidKind || int(k) >= len(kinds) {
		return kinds[InvalidKind]
	}
	return kinds[k]
}

// Valid reports whether k was registered.
func (k Kind) Valid() bool {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	return k > InvalidKind && int(k) < len(kinds)
}

// String returns the kind name.
func (k Kind) String() string {
	return k.Spec().Name
}

// Priority returns the declared default priority of k.
func (k Kind) Priority() int {
	return k.Spec().Priority
}

// Abstract reports whether rule kinds can be synthesized beneath k.
func (k Kind) Abstract() bool {
	return k.Spec().Abstract
}

// Base returns the supertype of k.
func (k Kind) Base() Kind {
	return k.Spec().Base
}

// Dynamic reports whether k was synthesized rather than statically
// registered.
func (k Kind) Dynamic() bool {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	return dynamic[k]
}

// IsA reports whether k is super or descends from it.
func (k Kind) IsA(super Kind) bool {
	if super == InvalidKind {
		return false
	}
	for cur := k; cur != InvalidKind; cur = cur.Base() {
		if cur == super {
			return true
		}
	}
	return false
}
