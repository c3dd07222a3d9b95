package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/u2takey/go-utils/sets"
)

var (
	ErrDuplicateKind = fmt.Errorf("duplicate kind")
	ErrUnknownKind   = fmt.Errorf("unknown kind")
)

// RegisteredKind is a Kind plus the path index built at registration:
// field lookup by path and each path's declaration position.
type RegisteredKind struct {
	Kind
	byPath map[string]FieldDef
	pos    map[string]int
	known  sets.String
	gates  sets.String
}

// FieldAt returns the field declared at path.
func (k *RegisteredKind) FieldAt(path string) (FieldDef, bool) {
	f, ok := k.byPath[path]
	return f, ok
}

// Knows reports whether path is declared by this kind.
func (k *RegisteredKind) Knows(path string) bool {
	return k.known.Has(path)
}

// Position returns the declaration index of path, or -1 for unknown paths.
func (k *RegisteredKind) Position(path string) int {
	if p, ok := k.pos[path]; ok {
		return p
	}
	return -1
}

// IsGate reports whether path gates some conditional section. A falsy gate
// is omitted from canonical records together with the fields it gates, so
// disabled sections leave no key behind.
func (k *RegisteredKind) IsGate(path string) bool {
	return k.gates.Has(path)
}

// Registry holds the kind definitions for the process lifetime. Writes
// happen at startup only; reads are safe for concurrent callers.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*RegisteredKind
}

func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]*RegisteredKind)}
}

func (r *Registry) Register(kind Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[kind.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind.ID)
	}

	entry := &RegisteredKind{
		Kind:   kind,
		byPath: make(map[string]FieldDef, len(kind.Fields)),
		pos:    make(map[string]int, len(kind.Fields)),
		known:  sets.NewString(),
		gates:  sets.NewString(),
	}
	for i, f := range kind.Fields {
		if entry.known.Has(f.Path) {
			return fmt.Errorf("kind %s declares field %s twice", kind.ID, f.Path)
		}
		entry.byPath[f.Path] = f
		entry.pos[f.Path] = i
		entry.known.Insert(f.Path)
	}
	for _, f := range kind.Fields {
		if f.EnabledBy == "" {
			continue
		}
		if !entry.known.Has(f.EnabledBy) {
			return fmt.Errorf("kind %s field %s gated by undeclared field %s", kind.ID, f.Path, f.EnabledBy)
		}
		entry.gates.Insert(f.EnabledBy)
	}

	r.kinds[kind.ID] = entry
	return nil
}

func (r *Registry) Lookup(id string) (*RegisteredKind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, exists := r.kinds[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, id)
	}
	return kind, nil
}

// Kinds returns the registered kind ids, sorted for deterministic output.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.kinds))
	for id := range r.kinds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
