package gomessagebus

import (
	"sync/atomic"
)

// StateRepresentation represents the current state of the poll loop as a
// string
type StateRepresentation string

const (
	idle int32 = iota
	waiting
	polling
	stopped
)

const (
	idleRepr    StateRepresentation = "IDLE"
	waitingRepr StateRepresentation = "WAITING"
	pollingRepr StateRepresentation = "POLLING"
	stoppedRepr StateRepresentation = "STOPPED"
)

var stateNames = []StateRepresentation{idleRepr, waitingRepr, pollingRepr, stoppedRepr}

func stateName(state int32) string {
	s := int(state)
	if s < 0 || s >= len(stateNames) {
		return "unknown"
	}

	return string(stateNames[s])
}

// Event represents and event that can change the state of a state machine
type Event string

const (
	pollSent        Event = "poll request sent"
	pollCompleted   Event = "poll response handled"
	pollAborted     Event = "poll request aborted"
	noSubscriptions Event = "no subscriptions"
	shutdown        Event = "start context done"
)

// PollStateMachine tracks the state of the poll loop:
//
//	IDLE    no subscriptions, re-checked periodically
//	WAITING backoff timer armed
//	POLLING one request in flight
//	STOPPED the context given to Start is done
type PollStateMachine struct {
	currentState *int32
}

// NewPollStateMachine creates a new PollStateMachine in the IDLE state
func NewPollStateMachine() *PollStateMachine {
	defaultState := idle
	return &PollStateMachine{&defaultState}
}

// IsPolling reflects whether a poll request is in flight
func (psm *PollStateMachine) IsPolling() bool {
	return atomic.LoadInt32(psm.currentState) == polling
}

// CurrentState provides a string representation of the current state of the
// state machine
func (psm *PollStateMachine) CurrentState() StateRepresentation {
	switch atomic.LoadInt32(psm.currentState) {
	case waiting:
		return waitingRepr
	case polling:
		return pollingRepr
	case stopped:
		return stoppedRepr
	default:
		return idleRepr
	}
}

// ProcessEvent handles an event
func (psm *PollStateMachine) ProcessEvent(e Event) error {
	switch e {
	case pollSent:
		if !atomic.CompareAndSwapInt32(psm.currentState, idle, polling) &&
			!atomic.CompareAndSwapInt32(psm.currentState, waiting, polling) {
			return BadStateError{atomic.LoadInt32(psm.currentState), e}
		}
	case pollCompleted, pollAborted:
		if !atomic.CompareAndSwapInt32(psm.currentState, polling, waiting) {
			return BadStateError{atomic.LoadInt32(psm.currentState), e}
		}
	case noSubscriptions:
		if !atomic.CompareAndSwapInt32(psm.currentState, waiting, idle) &&
			atomic.LoadInt32(psm.currentState) != idle {
			return BadStateError{atomic.LoadInt32(psm.currentState), e}
		}
	case shutdown:
		atomic.StoreInt32(psm.currentState, stopped)
	default:
		return UnknownEventTypeError{e}
	}
	return nil
}
