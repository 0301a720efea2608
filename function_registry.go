package settings

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a helper callable from rule expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry stores rule helpers keyed by lower-cased name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]registeredFunction),
	}
}

// DefaultFunctions returns a registry holding the settings helpers:
// blank(v) reports nil, empty strings and empty lists; hasRole(roles, name)
// reports membership in a role list.
func DefaultFunctions() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.Register("blank", blankFunction)
	_ = registry.Register("hasRole", hasRoleFunction)
	return registry
}

// Register stores fn under name. Names are case-insensitive and unique.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("settings: function %q is nil", name)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("settings: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("settings: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]registeredFunction, len(r.functions)),
	}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("settings: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("settings: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Names returns registered function names, as registered, sorted
// alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry configures the rules to use a copy of registry.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *rulesConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the rules.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *rulesConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

func blankFunction(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("blank expects 1 arg, got %d", len(args))
	}
	switch v := args[0].(type) {
	case nil:
		return true, nil
	case string:
		return strings.TrimSpace(v) == "", nil
	case []any:
		return len(v) == 0, nil
	case []string:
		return len(v) == 0, nil
	case map[string]any:
		return len(v) == 0, nil
	default:
		return false, nil
	}
}

func hasRoleFunction(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("hasRole expects 2 args, got %d", len(args))
	}
	role, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("hasRole role must be string")
	}
	switch roles := args[0].(type) {
	case nil:
		return false, nil
	case []string:
		for _, r := range roles {
			if strings.EqualFold(r, role) {
				return true, nil
			}
		}
	case []any:
		for _, r := range roles {
			if s, ok := r.(string); ok && strings.EqualFold(s, role) {
				return true, nil
			}
		}
	default:
		return nil, fmt.Errorf("hasRole roles must be a list")
	}
	return false, nil
}
