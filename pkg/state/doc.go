// Package state owns the account settings UI state.
//
// Reduce is a pure transition function: it never mutates its input and
// copies any map it changes. Store wraps Reduce with a mutex so that
// transitions are serialised and callers only ever see deep copies.
//
// Data flow:
//
//	coordinator -> Store.Dispatch(event) -> Reduce(state, event) -> listeners
//
// The delete account, password reset and site language sub-flows live in
// their own packages. Reduce forwards an event to a sub-flow only when the
// event implements that sub-flow's Event interface, and replaces only that
// slice of State.
package state
