package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

type transition struct {
	toState State
	guard   GuardFunc
}

// Machine tracks the current submission state and validates transitions
// against a fixed transition table.
type Machine struct {
	currentState State
	transitions  map[State]map[Trigger]transition
}

// NewMachine creates a machine with the given initial state and an empty
// transition table.
func NewMachine(initial State) *Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}
	return &Machine{
		currentState: initial,
		transitions:  make(map[State]map[Trigger]transition),
	}
}

// Permit allows trigger to move the machine from one state to another.
func (m *Machine) Permit(from State, trigger Trigger, to State) *Machine {
	return m.PermitIf(from, trigger, to, nil)
}

// PermitIf allows the transition only when the guard passes at fire time.
func (m *Machine) PermitIf(from State, trigger Trigger, to State, guard GuardFunc) *Machine {
	if !from.IsValid() || !to.IsValid() {
		panic(fmt.Sprintf("invalid transition %s -> %s", from, to))
	}
	if m.transitions[from] == nil {
		m.transitions[from] = make(map[Trigger]transition)
	}
	m.transitions[from][trigger] = transition{toState: to, guard: guard}
	return m
}

// State returns the current state
func (m *Machine) State() State {
	return m.currentState
}

// CanFire returns true if the trigger is permitted in the current state
func (m *Machine) CanFire(trigger Trigger) bool {
	_, ok := m.transitions[m.currentState][trigger]
	return ok
}

// Fire attempts to execute the trigger, transitioning to the new state if allowed
func (m *Machine) Fire(ctx context.Context, trigger Trigger) error {
	t, ok := m.transitions[m.currentState][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.currentState)
	}
	if t.guard != nil && !t.guard(ctx) {
		return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.currentState)
	}
	m.currentState = t.toState
	return nil
}

// PermittedTriggers returns all triggers that can be fired in the current state
func (m *Machine) PermittedTriggers() []Trigger {
	config := m.transitions[m.currentState]
	triggers := make([]Trigger, 0, len(config))
	for trigger := range config {
		triggers = append(triggers, trigger)
	}
	return triggers
}

// NewSubmissionMachine builds the machine for one form submission:
//
//	Idle -> Collecting on page load
//	Collecting -> Validating on submit
//	Validating -> Collecting when validation rejects
//	Validating -> Persisting when validation accepts
//	Persisting -> Rendering always, regardless of the spreadsheet outcome
//	Rendering -> Complete on artifact production
//	Rendering -> Failed on template or render failure
//	Complete/Failed -> Collecting on reset
func NewSubmissionMachine() *Machine {
	m := NewMachine(StateIdle)
	m.Permit(StateIdle, TriggerLoad, StateCollecting)
	m.Permit(StateCollecting, TriggerSubmit, StateValidating)
	m.Permit(StateValidating, TriggerReject, StateCollecting)
	m.Permit(StateValidating, TriggerAccept, StatePersisting)
	m.Permit(StatePersisting, TriggerPersisted, StateRendering)
	m.Permit(StateRendering, TriggerRendered, StateComplete)
	m.Permit(StateRendering, TriggerRenderFailed, StateFailed)
	m.Permit(StateComplete, TriggerReset, StateCollecting)
	m.Permit(StateFailed, TriggerReset, StateCollecting)
	return m
}
