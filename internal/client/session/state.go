// Package session owns the signed-in state of the client: the persisted
// token and profile, the Loading/Authenticated/Anonymous state machine, the
// in-process event bus and the watcher that adopts changes made by other
// gatelog processes sharing the same state database.
package session

import (
	"errors"
	"fmt"
)

type State string

const (
	// StateAnonymous: no session; gated actions are refused.
	StateAnonymous State = "anonymous"
	// StateLoading: a persisted token is being verified; gated actions are
	// refused until verification settles.
	StateLoading State = "loading"
	// StateAuthenticated: token and profile present and verified.
	StateAuthenticated State = "authenticated"
)

var ErrInvalidTransition = errors.New("invalid session state transition")

// validTransitions lists, per state, the states it may move to.
// Authenticated -> Authenticated is a profile refresh or account switch.
var validTransitions = map[State]map[State]bool{
	StateAnonymous:     {StateLoading: true, StateAuthenticated: true, StateAnonymous: true},
	StateLoading:       {StateAuthenticated: true, StateAnonymous: true},
	StateAuthenticated: {StateAuthenticated: true, StateAnonymous: true},
}

func checkTransition(from, to State) error {
	if !validTransitions[from][to] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
