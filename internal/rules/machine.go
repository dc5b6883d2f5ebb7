package rules

import (
	"fmt"
	"slices"
)

// Machine is a closed state set with a static transition table. Forced edges are
// reserved for cascades and are never accepted by Check.
type Machine[S ~string] struct {
	field  string
	states map[S]struct{}
	edges  map[S]map[S]struct{}
	forced map[S]map[S]struct{}
}

// NewMachine builds a machine for field. Every state must appear as a key of edges,
// with a nil or empty slice for terminal states.
func NewMachine[S ~string](field string, edges map[S][]S) *Machine[S] {
	m := &Machine[S]{
		field:  field,
		states: make(map[S]struct{}, len(edges)),
		edges:  make(map[S]map[S]struct{}, len(edges)),
		forced: map[S]map[S]struct{}{},
	}
	for from := range edges {
		m.states[from] = struct{}{}
	}
	for from, targets := range edges {
		set := make(map[S]struct{}, len(targets))
		for _, to := range targets {
			if _, ok := m.states[to]; !ok {
				panic(fmt.Sprintf("rules: %s edge %s -> %s targets unknown state", field, from, to))
			}
			set[to] = struct{}{}
		}
		m.edges[from] = set
	}
	return m
}

// WithForced declares cascade-only edges from each of froms into to.
func (m *Machine[S]) WithForced(to S, froms ...S) *Machine[S] {
	if _, ok := m.states[to]; !ok {
		panic(fmt.Sprintf("rules: %s forced edge targets unknown state %s", m.field, to))
	}
	for _, from := range froms {
		if m.forced[from] == nil {
			m.forced[from] = map[S]struct{}{}
		}
		m.forced[from][to] = struct{}{}
	}
	return m
}

func (m *Machine[S]) Field() string {
	return m.field
}

func (m *Machine[S]) Valid(s S) bool {
	_, ok := m.states[s]
	return ok
}

// Validate rejects values outside the closed state set.
func (m *Machine[S]) Validate(s S) error {
	if m.Valid(s) {
		return nil
	}
	return Constraint("chk_"+m.field, fmt.Sprintf("%s must be one of %v, got %q", m.field, m.States(), s))
}

// Check allows no-op updates and edges of the transition table.
func (m *Machine[S]) Check(from, to S) error {
	if err := m.Validate(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if _, ok := m.edges[from][to]; ok {
		return nil
	}
	return IllegalTransition(m.field, string(from), string(to))
}

// Force additionally accepts the declared cascade-only edges.
func (m *Machine[S]) Force(from, to S) error {
	if err := m.Check(from, to); err == nil {
		return nil
	}
	if _, ok := m.forced[from][to]; ok {
		return nil
	}
	return IllegalTransition(m.field, string(from), string(to))
}

// Next lists the states reachable in one regular step, sorted.
func (m *Machine[S]) Next(from S) []S {
	out := make([]S, 0, len(m.edges[from]))
	for to := range m.edges[from] {
		out = append(out, to)
	}
	slices.Sort(out)
	return out
}

func (m *Machine[S]) Terminal(s S) bool {
	return m.Valid(s) && len(m.edges[s]) == 0
}

func (m *Machine[S]) States() []S {
	out := make([]S, 0, len(m.states))
	for s := range m.states {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
