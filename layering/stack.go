package layering

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Scope models a named precedence bucket. Higher priority values represent
// stronger layers.
type Scope struct {
	Name     string         `json:"name"`
	Label    string         `json:"label,omitempty"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*Scope)

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(s *Scope) {
		s.Label = label
	}
}

// WithScopeMetadata attaches metadata to the scope. The map is copied so the
// resulting Scope is not affected by later caller mutations.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(s *Scope) {
		s.Metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope. Validation is deferred to NewStack.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	scope := Scope{Name: name, Priority: priority}
	for _, opt := range opts {
		if opt != nil {
			opt(&scope)
		}
	}
	return scope
}

func (s Scope) clone() Scope {
	s.Metadata = copyMetadata(s.Metadata)
	return s
}

// Layer pairs a scope with the snapshot captured for it.
type Layer[T any] struct {
	Scope      Scope
	Snapshot   T
	SnapshotID string
}

// LayerOption configures optional metadata for a layer.
type LayerOption[T any] func(*Layer[T])

// WithSnapshotID sets the snapshot identifier used for provenance.
func WithSnapshotID[T any](id string) LayerOption[T] {
	return func(layer *Layer[T]) {
		layer.SnapshotID = id
	}
}

// NewLayer constructs a Layer holding private copies of scope and snapshot.
func NewLayer[T any](scope Scope, snapshot T, opts ...LayerOption[T]) Layer[T] {
	layer := Layer[T]{
		Scope:    scope.clone(),
		Snapshot: Clone(snapshot),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&layer)
		}
	}
	return layer
}

var (
	// ErrScopeNameRequired indicates a missing scope name.
	ErrScopeNameRequired = errors.New("layering: scope name must be provided")
	// ErrDuplicateScopeName indicates multiple layers share a scope name.
	ErrDuplicateScopeName = errors.New("layering: scope names must be unique")
	// ErrPriorityOrder indicates two layers share a priority.
	ErrPriorityOrder = errors.New("layering: priorities must be strictly ordered")
	// ErrEmptyStack is returned when merging a stack without layers.
	ErrEmptyStack = errors.New("layering: stack must include at least one layer")
)

// Stack is an immutable layering configuration ordered strongest first.
type Stack[T any] struct {
	layers []Layer[T]
}

// NewStack validates and sorts layers so the highest priority comes first.
func NewStack[T any](layers ...Layer[T]) (*Stack[T], error) {
	if len(layers) == 0 {
		return &Stack[T]{}, nil
	}

	seen := make(map[string]struct{}, len(layers))
	copied := make([]Layer[T], len(layers))
	for i, layer := range layers {
		layer = cloneLayer(layer)
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seen[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seen[layer.Scope.Name] = struct{}{}
		copied[i] = layer
	}

	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority == copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}

	return &Stack[T]{layers: copied}, nil
}

// Layers returns copies of the layers, strongest first.
func (s *Stack[T]) Layers() []Layer[T] {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer[T], len(s.layers))
	for i := range s.layers {
		out[i] = cloneLayer(s.layers[i])
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Merge resolves the stack into a single value, keeping the contributing
// layers around for provenance lookups.
func (s *Stack[T]) Merge() (Merged[T], error) {
	if s == nil || len(s.layers) == 0 {
		return Merged[T]{}, ErrEmptyStack
	}
	snapshots := make([]T, len(s.layers))
	for i := range s.layers {
		snapshots[i] = s.layers[i].Snapshot
	}
	return Merged[T]{
		Value:  MergeLayers(snapshots...),
		layers: s.Layers(),
	}, nil
}

// Merged is the result of a stack merge.
type Merged[T any] struct {
	Value  T
	layers []Layer[T]
}

// Layers returns the contributing layers, strongest first.
func (m Merged[T]) Layers() []Layer[T] {
	out := make([]Layer[T], len(m.layers))
	for i := range m.layers {
		out[i] = cloneLayer(m.layers[i])
	}
	return out
}

// Trace reports, strongest first, which layers define path. Paths use dots to
// descend into nested maps ("profile_image.image_url_full").
func (m Merged[T]) Trace(path string) Trace {
	trace := Trace{Path: path, Layers: make([]Provenance, 0, len(m.layers))}
	for _, layer := range m.layers {
		value, found := lookupPath(reflect.ValueOf(layer.Snapshot), path)
		trace.Layers = append(trace.Layers, Provenance{
			Scope:      layer.Scope.clone(),
			SnapshotID: layer.SnapshotID,
			Path:       path,
			Value:      value,
			Found:      found,
		})
	}
	return trace
}

// Source returns the name of the strongest scope defining path.
func (m Merged[T]) Source(path string) (string, bool) {
	for _, layer := range m.Trace(path).Layers {
		if layer.Found {
			return layer.Scope.Name, true
		}
	}
	return "", false
}

// Trace captures provenance for one path across the merged layers.
type Trace struct {
	Path   string       `json:"path"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how a scope contributed to a traced path.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Path       string `json:"path"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
}

// ToJSON serialises the trace for logging.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

func lookupPath(value reflect.Value, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	current := value
	for _, segment := range strings.Split(path, ".") {
		for current.IsValid() && (current.Kind() == reflect.Interface || current.Kind() == reflect.Pointer) {
			if current.IsNil() {
				return nil, false
			}
			current = current.Elem()
		}
		if !current.IsValid() || current.Kind() != reflect.Map || current.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		next := current.MapIndex(reflect.ValueOf(segment).Convert(current.Type().Key()))
		if !next.IsValid() {
			return nil, false
		}
		current = next
	}
	if current.Kind() == reflect.Interface && current.IsNil() {
		return nil, true
	}
	return current.Interface(), true
}

func cloneLayer[T any](layer Layer[T]) Layer[T] {
	return Layer[T]{
		Scope:      layer.Scope.clone(),
		Snapshot:   Clone(layer.Snapshot),
		SnapshotID: layer.SnapshotID,
	}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
