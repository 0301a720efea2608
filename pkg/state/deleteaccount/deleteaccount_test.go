package deleteaccount

import "testing"

func TestDeleteAccountFlow(t *testing.T) {
	cases := []struct {
		name   string
		events []Event
		want   State
	}{
		{name: "initial", want: State{Status: StatusIdle}},
		{name: "confirm", events: []Event{Confirm{}}, want: State{Status: StatusConfirming}},
		{name: "pending", events: []Event{Confirm{}, Begin{}}, want: State{Status: StatusPending}},
		{name: "deleted", events: []Event{Confirm{}, Begin{}, Success{}}, want: State{Status: StatusDeleted}},
		{
			name:   "failed",
			events: []Event{Confirm{}, Begin{}, Failure{Reason: "invalid-password"}},
			want:   State{Status: StatusFailed, Reason: "invalid-password"},
		},
		{
			name:   "reset clears reason",
			events: []Event{Confirm{}, Begin{}, Failure{Reason: "server"}, Reset{}},
			want:   State{Status: StatusConfirming},
		},
		{
			name:   "cancel",
			events: []Event{Confirm{}, Begin{}, Failure{Reason: "server"}, Cancel{}},
			want:   State{Status: StatusIdle},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New()
			for _, evt := range tc.events {
				s = Reduce(s, evt)
			}
			if s != tc.want {
				t.Fatalf("expected %#v, got %#v", tc.want, s)
			}
		})
	}
}
