// Package timemachine keeps the undo and redo history of a diagram.
package timemachine

import (
	"sync"
	"time"

	"github.com/OFFIS-RIT/annograph/backend/pkg/flow"
)

// DefaultMaxSize bounds the undo history.
const DefaultMaxSize = 50

// Option configures a TimeMachine.
type Option func(*TimeMachine)

// WithMaxSize bounds the undo history to n entries. Values below one keep the default.
func WithMaxSize(n int) Option {
	return func(m *TimeMachine) {
		if n > 0 {
			m.maxSize = n
		}
	}
}

// WithTransitionDuration sets the duration sent with undo and redo.
func WithTransitionDuration(d time.Duration) Option {
	return func(m *TimeMachine) {
		m.transition = d
	}
}

// TimeMachine records graph snapshots and travels between them. Every
// stored graph is a deep copy.
//
// Undo and Redo mark the machine as traveling: the next Record is expected
// to be the re-publish of the graph they returned and is skipped.
type TimeMachine struct {
	mu sync.Mutex

	past    []flow.Graph
	present flow.Graph
	future  []flow.Graph

	traveling  bool
	maxSize    int
	transition time.Duration
}

// New returns a time machine whose present is the given graph.
func New(present flow.Graph, opts ...Option) *TimeMachine {
	m := &TimeMachine{
		present:    present.Clone(),
		maxSize:    DefaultMaxSize,
		transition: flow.TransitionDuration,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record adopts g as the present when its content differs from the current
// present. It reports whether a history entry was added.
func (m *TimeMachine) Record(g flow.Graph) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.traveling {
		m.traveling = false
		return false
	}
	if flow.EqualAcrossTime(g, m.present) {
		return false
	}

	m.past = append(m.past, m.present)
	if len(m.past) > m.maxSize {
		m.past = m.past[len(m.past)-m.maxSize:]
	}
	m.present = g.Clone()
	m.future = nil
	return true
}

// Undo steps back one entry. It returns the graph to apply and the
// transition to animate it with, or false when there is nothing to undo.
func (m *TimeMachine) Undo() (flow.Graph, flow.Transition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.past) == 0 {
		return flow.Graph{}, flow.Transition{}, false
	}

	last := len(m.past) - 1
	prev := m.past[last]
	m.past = m.past[:last:last]
	m.future = append([]flow.Graph{m.present}, m.future...)
	m.present = prev
	m.traveling = true

	return prev.Clone(), flow.NewTransition(m.transition), true
}

// Redo steps forward one entry.
func (m *TimeMachine) Redo() (flow.Graph, flow.Transition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.future) == 0 {
		return flow.Graph{}, flow.Transition{}, false
	}

	next := m.future[0]
	m.future = m.future[1:]
	m.past = append(m.past, m.present)
	m.present = next
	m.traveling = true

	return next.Clone(), flow.NewTransition(m.transition), true
}

// Present returns a copy of the current graph.
func (m *TimeMachine) Present() flow.Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present.Clone()
}

func (m *TimeMachine) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past) > 0
}

func (m *TimeMachine) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future) > 0
}
