// Package transition decides how a relationship row changes in response to an action.
//
// Every relationship kind is described by the same Machine type: a table keyed by
// (current state, action) whose entries name the storage operation, the next state
// and the outcome reported to the caller. Counter deltas are never written in the
// table; they are derived from per-state weights, so a transition can only move a
// counter by the difference between the states it leaves and enters.
package transition

import (
	"fmt"

	"github.com/totegamma/collabfund/internal/domain"
)

// Op is the storage operation a transition requires.
type Op int

const (
	OpNone Op = iota
	OpCreate
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpNone:
		return "none"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Step is one entry of a transition table.
type Step struct {
	Op      Op
	To      domain.State
	Outcome domain.Outcome
	// Role is the side of the relationship allowed to take this step.
	Role domain.Role
	// Err rejects the action outright.
	Err error
}

// Input is the current state plus what the caller asks for.
type Input struct {
	From   domain.State
	Action domain.Action
	Role   domain.Role
	// Self is set when the caller is also the owner of the target.
	Self bool
}

// Result is a decided transition.
type Result struct {
	Op      Op
	From    domain.State
	To      domain.State
	Outcome domain.Outcome
	Delta   domain.Counters
}

type key struct {
	from   domain.State
	action domain.Action
}

// Machine is the transition table of one relationship kind.
type Machine struct {
	kind       domain.Kind
	steps      map[key]Step
	weights    map[domain.State]domain.Counters
	selfBanned map[domain.Action]string
}

func newMachine(kind domain.Kind) *Machine {
	return &Machine{
		kind:       kind,
		steps:      make(map[key]Step),
		weights:    make(map[domain.State]domain.Counters),
		selfBanned: make(map[domain.Action]string),
	}
}

func (m *Machine) on(from domain.State, action domain.Action, step Step) *Machine {
	m.steps[key{from: from, action: action}] = step
	return m
}

func (m *Machine) weigh(state domain.State, counters domain.Counters) *Machine {
	m.weights[state] = counters
	return m
}

func (m *Machine) banSelf(action domain.Action, reason string) *Machine {
	m.selfBanned[action] = reason
	return m
}

func (m *Machine) Kind() domain.Kind {
	return m.kind
}

// Apply decides the transition for the given input. It never touches storage.
func (m *Machine) Apply(in Input) (Result, error) {
	if reason, banned := m.selfBanned[in.Action]; banned && in.Self {
		return Result{}, domain.InvalidOperationError{Reason: reason}
	}

	step, ok := m.steps[key{from: in.From, action: in.Action}]
	if !ok {
		return Result{}, domain.InvalidOperationError{
			Reason: fmt.Sprintf("%s: action %q is not allowed in state %q", m.kind, in.Action, stateName(in.From)),
		}
	}
	if step.Role != in.Role {
		return Result{}, domain.ForbiddenError{
			Reason: fmt.Sprintf("%s: not allowed to %s", m.kind, in.Action),
		}
	}
	if step.Err != nil {
		return Result{}, step.Err
	}

	return Result{
		Op:      step.Op,
		From:    in.From,
		To:      step.To,
		Outcome: step.Outcome,
		Delta:   m.delta(in.From, step.To),
	}, nil
}

// Weights returns the counter contribution of a single row in the given state.
func (m *Machine) Weights(state domain.State) domain.Counters {
	out := domain.Counters{}
	for name, w := range m.weights[state] {
		out[name] = w
	}
	return out
}

// Counters lists every counter this kind contributes to.
func (m *Machine) Counters() []string {
	seen := map[string]bool{}
	var names []string
	for _, counters := range m.weights {
		for name := range counters {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func (m *Machine) delta(from, to domain.State) domain.Counters {
	delta := domain.Counters{}
	for name, w := range m.weights[to] {
		delta[name] += w
	}
	for name, w := range m.weights[from] {
		delta[name] -= w
	}
	for name, d := range delta {
		if d == 0 {
			delete(delta, name)
		}
	}
	return delta
}

func stateName(s domain.State) string {
	if s == domain.StateAbsent {
		return "absent"
	}
	return string(s)
}
