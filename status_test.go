package daybook

import "testing"

func TestUserTransition(t *testing.T) {
	tests := []struct {
		status  Status
		want    Transition
		wantErr bool
	}{
		{StatusCompleted, TransitionComplete, false},
		{StatusCancelled, TransitionCancel, false},
		{StatusActive, Transition{}, true},
		{StatusMissed, Transition{}, true},
		{StatusUpcoming, Transition{}, true},
		{Status("done"), Transition{}, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got, err := UserTransition(tt.status)
			if tt.wantErr {
				if !IsValidation(err) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTransitionsTable(t *testing.T) {
	for _, tr := range Transitions {
		if tr.From().IsTerminal() {
			t.Errorf("%s leaves a terminal status", tr)
		}
		if !tr.To().Valid() || !tr.From().Valid() {
			t.Errorf("%s uses an unknown status", tr)
		}
		if tr.By() == ActorSweeper && tr.To().IsTerminal() {
			t.Errorf("%s lets the sweeper finish a task", tr)
		}
	}
}

func TestFieldsMerge(t *testing.T) {
	f := Fields{Description: "call mom", Duration: "20"}
	f.Merge(Fields{StartTime: "2025-11-17T19:00", Duration: ""})

	want := Fields{Description: "call mom", StartTime: "2025-11-17T19:00", Duration: "20"}
	if f != want {
		t.Errorf("got %+v, want %+v", f, want)
	}
}
