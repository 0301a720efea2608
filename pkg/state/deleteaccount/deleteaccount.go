// Package deleteaccount is the account deletion sub-flow:
// idle -> confirming -> pending -> deleted | failed.
package deleteaccount

// Status is the deletion flow position.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConfirming Status = "confirming"
	StatusPending    Status = "pending"
	StatusDeleted    Status = "deleted"
	StatusFailed     Status = "failed"
)

// State is the deletion slice of the settings state.
type State struct {
	Status Status `json:"status"`
	// Reason explains the last failure, e.g. "invalid-password".
	Reason string `json:"reason,omitempty"`
}

// New returns the initial state.
func New() State {
	return State{Status: StatusIdle}
}

// Event is implemented only by the events of this package.
type Event interface {
	Type() string
	deleteAccountEvent()
}

// Confirm opens the confirmation step.
type Confirm struct{}

// Begin marks the deletion request as sent.
type Begin struct{}

// Success marks the account as deleted.
type Success struct{}

// Failure records why deletion failed.
type Failure struct {
	Reason string
}

// Reset returns a failed flow to the confirmation step.
type Reset struct{}

// Cancel abandons the flow.
type Cancel struct{}

func (Confirm) Type() string { return "delete_account/confirm" }
func (Begin) Type() string   { return "delete_account/begin" }
func (Success) Type() string { return "delete_account/success" }
func (Failure) Type() string { return "delete_account/failure" }
func (Reset) Type() string   { return "delete_account/reset" }
func (Cancel) Type() string  { return "delete_account/cancel" }

func (Confirm) deleteAccountEvent() {}
func (Begin) deleteAccountEvent()   {}
func (Success) deleteAccountEvent() {}
func (Failure) deleteAccountEvent() {}
func (Reset) deleteAccountEvent()   {}
func (Cancel) deleteAccountEvent()  {}

// Reduce computes the next state.
func Reduce(s State, evt Event) State {
	switch e := evt.(type) {
	case Confirm:
		return State{Status: StatusConfirming}
	case Begin:
		return State{Status: StatusPending}
	case Success:
		return State{Status: StatusDeleted}
	case Failure:
		return State{Status: StatusFailed, Reason: e.Reason}
	case Reset:
		return State{Status: StatusConfirming}
	case Cancel:
		return New()
	default:
		return s
	}
}
