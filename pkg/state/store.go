package state

import "sync"

// Listener observes a transition. prev and next are deep copies.
type Listener func(prev, next State, evt Event)

// Store is the mutex guarded owner of State.
type Store struct {
	mu         sync.RWMutex
	state      State
	listeners  map[int]Listener
	nextID     int
	pending    []notification
	delivering bool
}

type notification struct {
	listeners  []Listener
	prev, next State
	evt        Event
}

// NewStore returns a Store starting from New().
func NewStore() *Store {
	return NewStoreWith(New())
}

// NewStoreWith returns a Store starting from a copy of initial.
func NewStoreWith(initial State) *Store {
	return &Store{
		state:     initial.Clone(),
		listeners: map[int]Listener{},
	}
}

// Dispatch applies evt and returns a copy of the resulting state.
//
// Listeners see transitions in the order they were reduced. They run outside
// the lock, so they may dispatch further events; those are delivered after
// the current listener returns. When another goroutine is already delivering,
// Dispatch queues its notification for that goroutine and returns without
// waiting for listeners.
func (s *Store) Dispatch(evt Event) State {
	if evt == nil {
		return s.Snapshot()
	}

	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, evt)
	s.state = next
	if len(s.listeners) > 0 {
		listeners := make([]Listener, 0, len(s.listeners))
		for id := 0; id < s.nextID; id++ {
			if l, ok := s.listeners[id]; ok {
				listeners = append(listeners, l)
			}
		}
		s.pending = append(s.pending, notification{listeners: listeners, prev: prev, next: next, evt: evt})
	}
	deliver := !s.delivering && len(s.pending) > 0
	if deliver {
		s.delivering = true
	}
	s.mu.Unlock()

	if deliver {
		s.deliver()
	}
	return next.Clone()
}

// deliver drains pending notifications in order. Only one goroutine delivers
// at a time.
func (s *Store) deliver() {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.delivering = false
			s.mu.Unlock()
			panic(r)
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.delivering = false
			s.mu.Unlock()
			return
		}
		n := s.pending[0]
		s.pending[0] = notification{}
		s.pending = s.pending[1:]
		s.mu.Unlock()

		for _, l := range n.listeners {
			l(n.prev.Clone(), n.next.Clone(), n.evt)
		}
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	if l == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
