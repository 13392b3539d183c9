package runtime

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnbound reports a name missing from every consulted environment.
	ErrUnbound = errors.New("unbound name")
	// ErrAlreadyBound reports a second binding of the same name in one environment.
	ErrAlreadyBound = errors.New("name already bound")
)

// Environment is a flat name to value table. Environments never chain; the
// two tiers of a call are paired by Scope.
type Environment struct {
	values map[string]Value
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{values: make(map[string]Value)}
}

// Snapshot returns a copy of the current bindings.
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Define binds a new name; rebinding an existing name fails.
func (e *Environment) Define(name string, value Value) error {
	if _, ok := e.values[name]; ok {
		return fmt.Errorf("%w: '%s'", ErrAlreadyBound, name)
	}
	e.values[name] = value
	return nil
}

// Assign updates an existing binding in place.
func (e *Environment) Assign(name string, value Value) error {
	if _, ok := e.values[name]; !ok {
		return fmt.Errorf("%w: '%s'", ErrUnbound, name)
	}
	e.values[name] = value
	return nil
}

// Get retrieves a binding.
func (e *Environment) Get(name string) (Value, error) {
	if v, ok := e.values[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: '%s'", ErrUnbound, name)
}

// Has reports whether name is bound here.
func (e *Environment) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// Len returns the number of bindings.
func (e *Environment) Len() int {
	return len(e.values)
}

// Keys returns the bindings in sorted order (useful for determinism in tests).
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Scope pairs the local environment of one call with the shared global
// environment. Lookups and assignments consult the local tier first.
type Scope struct {
	Local  *Environment
	Global *Environment
}

// NewScope builds a scope with a fresh local tier over global.
func NewScope(global *Environment) Scope {
	return Scope{Local: NewEnvironment(), Global: global}
}

// Lookup resolves name locally, then globally.
func (s Scope) Lookup(name string) (Value, error) {
	if s.Local != nil {
		if v, ok := s.Local.values[name]; ok {
			return v, nil
		}
	}
	return s.Global.Get(name)
}

// Bind adds name to the local tier.
func (s Scope) Bind(name string, value Value) error {
	return s.Local.Define(name, value)
}

// Assign updates name in the local tier when bound there, else in the global
// tier. It never creates a binding.
func (s Scope) Assign(name string, value Value) error {
	if s.Local != nil && s.Local.Has(name) {
		return s.Local.Assign(name, value)
	}
	return s.Global.Assign(name, value)
}
