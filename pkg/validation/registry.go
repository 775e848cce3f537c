package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrPredicateExists is returned when a predicate name is registered twice.
var ErrPredicateExists = errors.New("validation: predicate already registered")

// Predicate checks a value and returns an error carrying the message to show,
// or nil when the value is acceptable.
type Predicate func(value string) error

// Registry holds named predicates that schema documents reference through
// Rules.Custom. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{predicates: make(map[string]Predicate)}
}

// Register adds a predicate under name. Names are trimmed; empty names, nil
// predicates and duplicates are rejected.
func (r *Registry) Register(name string, fn Predicate) error {
	if r == nil {
		return errors.New("validation: registry is nil")
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("validation: predicate name is required")
	}
	if fn == nil {
		return fmt.Errorf("validation: predicate %q is nil", trimmed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.predicates[trimmed]; exists {
		return fmt.Errorf("%w: %q", ErrPredicateExists, trimmed)
	}
	r.predicates[trimmed] = fn
	return nil
}

// MustRegister is Register that panics on error, for init-time wiring.
func (r *Registry) MustRegister(name string, fn Predicate) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the predicate registered under name.
func (r *Registry) Lookup(name string) (Predicate, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.predicates[strings.TrimSpace(name)]
	return fn, ok
}

// Names lists registered predicate names in lexical order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.predicates))
	for name := range r.predicates {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
