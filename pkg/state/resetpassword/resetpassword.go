// Package resetpassword is the password reset sub-flow.
package resetpassword

// Status is the reset request position.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// State is the password reset slice of the settings state.
type State struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// New returns the initial state.
func New() State {
	return State{Status: StatusIdle}
}

// Event is implemented only by the events of this package.
type Event interface {
	Type() string
	resetPasswordEvent()
}

// Begin marks the reset email as requested.
type Begin struct{}

// Success marks the reset email as sent.
type Success struct{}

// Failure records a failed request.
type Failure struct {
	Message string
}

// Reset returns to idle.
type Reset struct{}

func (Begin) Type() string   { return "reset_password/begin" }
func (Success) Type() string { return "reset_password/success" }
func (Failure) Type() string { return "reset_password/failure" }
func (Reset) Type() string   { return "reset_password/reset" }

func (Begin) resetPasswordEvent()   {}
func (Success) resetPasswordEvent() {}
func (Failure) resetPasswordEvent() {}
func (Reset) resetPasswordEvent()   {}

// Reduce computes the next state.
func Reduce(s State, evt Event) State {
	switch e := evt.(type) {
	case Begin:
		return State{Status: StatusPending}
	case Success:
		return State{Status: StatusComplete}
	case Failure:
		return State{Status: StatusError, Error: e.Message}
	case Reset:
		return New()
	default:
		return s
	}
}
