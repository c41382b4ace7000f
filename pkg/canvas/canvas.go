// Package canvas holds the client-side diagram state of each question:
// node positions moved by the user, selection, viewport and history.
package canvas

import (
	"sync"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/flow"
	"github.com/OFFIS-RIT/annograph/backend/pkg/timemachine"
)

// Canvas is the diagram of one question. Structure comes from the question,
// positions from the layout unless the user moved a node.
type Canvas struct {
	mu sync.Mutex

	qa        common.QuestionAndAnswer
	graph     flow.Graph
	positions map[string]flow.Position
	selected  map[string]bool
	viewport  flow.Viewport

	machine *timemachine.TimeMachine
	opts    []timemachine.Option
	// streaming is set while syncs come from a running model request.
	streaming bool
}

// New returns an empty canvas.
func New(opts ...timemachine.Option) *Canvas {
	g := flow.Empty()
	return &Canvas{
		graph:     g,
		positions: map[string]flow.Position{},
		selected:  map[string]bool{},
		viewport:  g.Viewport,
		machine:   timemachine.New(g, opts...),
		opts:      opts,
	}
}

// Graph returns the current diagram.
func (c *Canvas) Graph() flow.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph.Clone()
}

// Sync rebuilds the diagram from qa and records it. It reports whether the
// change entered the history.
//
// While a model request runs on qa the diagram follows it without being
// recorded. Once the request settles its result is recorded as one entry,
// or becomes the present of a history that has nothing to undo yet.
func (c *Canvas) Sync(qa common.QuestionAndAnswer) (flow.Graph, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.qa = qa.Clone()
	if qa.ModelStatus.Busy() {
		c.streaming = true
		return c.build().Clone(), false
	}
	if c.streaming {
		c.streaming = false
		if !c.machine.CanUndo() && len(c.machine.Present().Nodes) == 0 {
			g := c.build()
			c.machine = timemachine.New(g, c.opts...)
			return g.Clone(), false
		}
	}
	return c.commit()
}

// Load rebuilds the diagram from a saved question and starts a new history
// with it as the present.
func (c *Canvas) Load(qa common.QuestionAndAnswer) flow.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.qa = qa.Clone()
	c.streaming = false
	g := c.build()
	c.machine = timemachine.New(g, c.opts...)
	return g.Clone()
}

// MoveNode pins a node to a position chosen by the user.
func (c *Canvas) MoveNode(nodeID string, pos flow.Position) (flow.Graph, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.graph.Node(nodeID); !ok {
		return c.graph.Clone(), false
	}
	c.positions[nodeID] = pos
	return c.commit()
}

// SelectNode changes the selection of a node. Selection is not part of the history.
func (c *Canvas) SelectNode(nodeID string, selected bool) flow.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()

	if selected {
		c.selected[nodeID] = true
	} else {
		delete(c.selected, nodeID)
	}
	g, _ := c.commit()
	return g
}

// SetViewport stores the visible area of the client.
func (c *Canvas) SetViewport(v flow.Viewport) flow.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.viewport = v
	c.graph.Viewport = v
	return c.graph.Clone()
}

// Undo restores the previous diagram.
func (c *Canvas) Undo() (flow.Graph, flow.Transition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, tr, ok := c.machine.Undo()
	if !ok {
		return c.graph.Clone(), tr, false
	}
	c.apply(g)
	return c.graph.Clone(), tr, true
}

// Redo restores the diagram undone last.
func (c *Canvas) Redo() (flow.Graph, flow.Transition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, tr, ok := c.machine.Redo()
	if !ok {
		return c.graph.Clone(), tr, false
	}
	c.apply(g)
	return c.graph.Clone(), tr, true
}

func (c *Canvas) CanUndo() bool { return c.machine.CanUndo() }

func (c *Canvas) CanRedo() bool { return c.machine.CanRedo() }

// commit builds the diagram and records it.
func (c *Canvas) commit() (flow.Graph, bool) {
	g := c.build()
	return g.Clone(), c.machine.Record(g)
}

// build lays out the question with the user's positions and selection.
func (c *Canvas) build() flow.Graph {
	g := flow.Build(c.qa)
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if pos, ok := c.positions[n.ID]; ok {
			n.Position = pos
		}
		n.Selected = c.selected[n.ID]
	}
	g.Viewport = c.viewport

	c.graph = g
	return g
}

// apply adopts a graph from the history. Positions that differ from the
// layout become user positions so later syncs keep them. The graph is
// re-published through the time machine, which skips it.
func (c *Canvas) apply(g flow.Graph) {
	layout := flow.Build(c.qa)
	positions := map[string]flow.Position{}
	for _, n := range g.Nodes {
		if ln, ok := layout.Node(n.ID); !ok || ln.Position != n.Position {
			positions[n.ID] = n.Position
		}
	}
	c.positions = positions

	for i := range g.Nodes {
		g.Nodes[i].Selected = c.selected[g.Nodes[i].ID]
	}
	g.Viewport = c.viewport
	c.graph = g
	c.machine.Record(g)
}

// Manager keeps one canvas per question.
type Manager struct {
	mu       sync.Mutex
	canvases map[string]*Canvas
	opts     []timemachine.Option
}

// NewManager returns a manager whose canvases use opts for their history.
func NewManager(opts ...timemachine.Option) *Manager {
	return &Manager{
		canvases: map[string]*Canvas{},
		opts:     opts,
	}
}

// Get returns the canvas of a question, creating it on first use.
func (m *Manager) Get(qaID string) *Canvas {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.canvases[qaID]
	if !ok {
		c = New(m.opts...)
		m.canvases[qaID] = c
	}
	return c
}

// Remove drops the canvas of a question.
func (m *Manager) Remove(qaID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.canvases, qaID)
}
