package layering

import (
	"errors"
	"testing"
)

func TestNewScopeCopiesMetadata(t *testing.T) {
	meta := map[string]any{"resource": "account"}
	scope := NewScope("account", 100, WithScopeLabel("Account API"), WithScopeMetadata(meta))

	meta["resource"] = "mutated"

	if got := scope.Metadata["resource"]; got != "account" {
		t.Fatalf("expected metadata copy to remain 'account', got %q", got)
	}
	if scope.Label != "Account API" {
		t.Fatalf("label not set, got %q", scope.Label)
	}
}

func TestNewStackOrdersAndValidates(t *testing.T) {
	account := NewLayer(NewScope("account", 100), map[string]any{"name": "a"})
	prefs := NewLayer(NewScope("preferences", 200), map[string]any{"time_zone": "UTC"})

	stack, err := NewStack(account, prefs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	layers := stack.Layers()
	if layers[0].Scope.Name != "preferences" || layers[1].Scope.Name != "account" {
		t.Fatalf("expected preferences before account, got %q, %q", layers[0].Scope.Name, layers[1].Scope.Name)
	}

	if _, err := NewStack(account, NewLayer(NewScope("account", 50), map[string]any{})); !errors.Is(err, ErrDuplicateScopeName) {
		t.Fatalf("expected duplicate scope name error, got %v", err)
	}
	if _, err := NewStack(account, NewLayer(NewScope("other", 100), map[string]any{})); !errors.Is(err, ErrPriorityOrder) {
		t.Fatalf("expected priority order error, got %v", err)
	}
	if _, err := NewStack(NewLayer(Scope{}, map[string]any{})); !errors.Is(err, ErrScopeNameRequired) {
		t.Fatalf("expected scope name error, got %v", err)
	}
}

func TestStackMergeTracesProvenance(t *testing.T) {
	account := NewLayer(NewScope("account", 100), map[string]any{"name": "Jane", "time_zone": "America/Lima"}, WithSnapshotID[map[string]any]("acct-1"))
	prefs := NewLayer(NewScope("preferences", 200), map[string]any{"time_zone": "UTC"})

	stack, err := NewStack(account, prefs)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	if merged.Value["time_zone"] != "UTC" {
		t.Fatalf("expected preferences time_zone to win, got %v", merged.Value["time_zone"])
	}
	if source, ok := merged.Source("time_zone"); !ok || source != "preferences" {
		t.Fatalf("expected preferences source, got %q (%v)", source, ok)
	}
	if source, ok := merged.Source("name"); !ok || source != "account" {
		t.Fatalf("expected account source, got %q (%v)", source, ok)
	}
	if _, ok := merged.Source("missing"); ok {
		t.Fatalf("expected missing field to have no source")
	}

	trace := merged.Trace("name")
	if len(trace.Layers) != 2 || trace.Layers[1].SnapshotID != "acct-1" || !trace.Layers[1].Found {
		t.Fatalf("unexpected trace: %+v", trace)
	}
	if _, err := trace.ToJSON(); err != nil {
		t.Fatalf("trace json: %v", err)
	}
}

func TestMergeEmptyStack(t *testing.T) {
	stack, err := NewStack[map[string]any]()
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	if _, err := stack.Merge(); !errors.Is(err, ErrEmptyStack) {
		t.Fatalf("expected ErrEmptyStack, got %v", err)
	}
}
