package state_test

import (
	"sync"
	"testing"

	"github.com/goliatone/go-account-settings/pkg/state"
	"github.com/goliatone/go-account-settings/translate"
)

func TestStoreSnapshotIsIsolated(t *testing.T) {
	store := state.NewStore()
	store.Dispatch(state.FetchSuccess{Values: translate.Unified{"name": "Ann"}})

	snap := store.Snapshot()
	snap.Values["name"] = "mutated"
	snap.Errors["name"] = "mutated"

	again := store.Snapshot()
	if again.Values["name"] != "Ann" {
		t.Fatalf("snapshot mutation leaked into store: %#v", again.Values)
	}
	if len(again.Errors) != 0 {
		t.Fatalf("snapshot mutation leaked into errors: %#v", again.Errors)
	}
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	store := state.NewStore()
	var seen []string
	unsubscribe := store.Subscribe(func(prev, next state.State, evt state.Event) {
		seen = append(seen, evt.Type())
		if evt.Type() == (state.FetchBegin{}).Type() {
			if prev.LoadStatus != state.LoadIdle || next.LoadStatus != state.LoadLoading {
				t.Errorf("unexpected transition %s -> %s", prev.LoadStatus, next.LoadStatus)
			}
		}
	})

	store.Dispatch(state.FetchBegin{})
	store.Dispatch(state.FetchFailure{Message: "x"})
	unsubscribe()
	unsubscribe()
	store.Dispatch(state.FetchReset{})

	if len(seen) != 2 {
		t.Fatalf("expected two notifications, got %v", seen)
	}
}

func TestStoreListenerMayDispatch(t *testing.T) {
	store := state.NewStore()
	store.Subscribe(func(_, next state.State, evt state.Event) {
		if _, ok := evt.(state.FetchBegin); ok {
			store.Dispatch(state.FetchFailure{Message: "nested"})
		}
	})

	store.Dispatch(state.FetchBegin{})
	if got := store.Snapshot(); got.LoadStatus != state.LoadError || got.LoadError != "nested" {
		t.Fatalf("nested dispatch not applied: %s %q", got.LoadStatus, got.LoadError)
	}
}

func TestStoreSerialisesConcurrentDispatch(t *testing.T) {
	store := state.NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Dispatch(state.UpdateDraft{Name: string(rune('a' + i%26)), Value: i})
		}(i)
	}
	wg.Wait()

	if got := len(store.Snapshot().Drafts); got != 26 {
		t.Fatalf("expected 26 draft keys, got %d", got)
	}
}

func TestStoreNotifiesInReductionOrder(t *testing.T) {
	store := state.NewStore()
	var (
		last      any
		delivered int
		outOfSeq  int
	)
	store.Subscribe(func(prev, next state.State, _ state.Event) {
		if prev.Drafts["n"] != last {
			outOfSeq++
		}
		last = next.Drafts["n"]
		delivered++
	})

	const writers = 100
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Dispatch(state.UpdateDraft{Name: "n", Value: i})
		}(i)
	}
	wg.Wait()

	if delivered != writers {
		t.Fatalf("expected %d notifications, got %d", writers, delivered)
	}
	if outOfSeq != 0 {
		t.Fatalf("%d notifications did not follow the previous transition", outOfSeq)
	}
	if last != store.Snapshot().Drafts["n"] {
		t.Fatalf("last notification %v does not match the stored draft %v", last, store.Snapshot().Drafts["n"])
	}
}

func TestNewStoreWithCopiesInitial(t *testing.T) {
	initial := state.New()
	initial.Values["name"] = "Ann"
	store := state.NewStoreWith(initial)
	initial.Values["name"] = "changed"

	if store.Snapshot().Values["name"] != "Ann" {
		t.Fatalf("store must copy the initial state")
	}
}
