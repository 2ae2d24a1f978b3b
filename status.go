package daybook

import "fmt"

// Actor is who may apply a Transition.
type Actor int

const (
	_ Actor = iota
	ActorSweeper
	ActorUser
)

func (a Actor) String() string {
	switch a {
	case ActorSweeper:
		return "sweeper"
	case ActorUser:
		return "user"
	default:
		return "unknown"
	}
}

// Transition is one edge of the task lifecycle. Its fields are unexported so
// the values declared below are the only transitions that exist.
type Transition struct {
	name string
	from Status
	to   Status
	by   Actor
}

var (
	TransitionStart    = Transition{name: "start", from: StatusUpcoming, to: StatusActive, by: ActorSweeper}
	TransitionMiss     = Transition{name: "miss", from: StatusActive, to: StatusMissed, by: ActorSweeper}
	TransitionComplete = Transition{name: "complete", from: StatusActive, to: StatusCompleted, by: ActorUser}
	TransitionCancel   = Transition{name: "cancel", from: StatusActive, to: StatusCancelled, by: ActorUser}
)

// Transitions is the full lifecycle table.
var Transitions = []Transition{
	TransitionStart,
	TransitionMiss,
	TransitionComplete,
	TransitionCancel,
}

func (t Transition) From() Status { return t.from }
func (t Transition) To() Status   { return t.to }
func (t Transition) By() Actor    { return t.by }

func (t Transition) String() string {
	return fmt.Sprintf("%s (%s -> %s by %s)", t.name, t.from, t.to, t.by)
}

// UserTransition returns the transition a user triggers by requesting status.
func UserTransition(status Status) (Transition, error) {
	for _, t := range Transitions {
		if t.by == ActorUser && t.to == status {
			return t, nil
		}
	}
	return Transition{}, &ValidationError{
		Field:  "status",
		Reason: fmt.Sprintf("status %q cannot be set by a user; use %q or %q", status, StatusCompleted, StatusCancelled),
	}
}

// TimeField selects which task timestamp a bulk transition compares against.
type TimeField int

const (
	_ TimeField = iota
	ByStartTime
	ByEndTime
)
