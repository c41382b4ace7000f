// Package flow builds the node-link diagram shown next to an answer.
package flow

import (
	"fmt"
	"slices"
	"time"

	"github.com/OFFIS-RIT/annograph/backend/pkg/annotation"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
)

// Fixed size of a rendered node.
const (
	NodeWidth  = 160
	NodeHeight = 43
)

// TransitionDuration is how long clients animate a structural change.
const TransitionDuration = 500 * time.Millisecond

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// NodeData is the content of a node. Editing and MetaPressed are transient
// client flags.
type NodeData struct {
	Label         string   `json:"label"`
	AnswerObjects []string `json:"answer_objects"`
	Editing       bool     `json:"editing"`
	MetaPressed   bool     `json:"meta_pressed"`
}

// Node is one entity of the diagram. Selected, Width and Height are set by
// the client.
type Node struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
	Selected bool     `json:"selected"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
}

// Edge is one edge pair of the diagram.
type Edge struct {
	ID             string          `json:"id"`
	Source         string          `json:"source"`
	Target         string          `json:"target"`
	Label          string          `json:"label"`
	Saliency       common.Saliency `json:"saliency"`
	AnswerObjectID string          `json:"answer_object_id"`
	Selected       bool            `json:"selected"`
}

// Graph is a snapshot of the diagram.
type Graph struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Viewport Viewport `json:"viewport"`
}

// Transition tells clients to animate to a new graph.
type Transition struct {
	DurationMs int64 `json:"duration_ms"`
}

// NewTransition returns a transition of the given duration.
func NewTransition(d time.Duration) Transition {
	return Transition{DurationMs: d.Milliseconds()}
}

// Empty returns a graph without nodes at the default viewport.
func Empty() Graph {
	return Graph{
		Nodes:    []Node{},
		Edges:    []Edge{},
		Viewport: Viewport{Zoom: 1},
	}
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := Graph{Viewport: g.Viewport}
	if g.Nodes != nil {
		out.Nodes = make([]Node, len(g.Nodes))
		for i, n := range g.Nodes {
			n.Data.AnswerObjects = slices.Clone(n.Data.AnswerObjects)
			out.Nodes[i] = n
		}
	}
	out.Edges = slices.Clone(g.Edges)
	return out
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// EdgeID identifies an edge pair of one relationship.
func EdgeID(source, target, label string) string {
	return fmt.Sprintf("%s->%s:%s", source, target, label)
}

// Build derives the diagram of a question.
//
// Entities of all visible answer objects are merged by id. Objects that show
// their summary contribute the summary graph. Low saliency edges are dropped
// when the question or the object filters for high saliency. Dangling pairs
// are never drawn and everything below a collapsed node is hidden. Nodes are
// placed with a layered layout.
func Build(qa common.QuestionAndAnswer) Graph {
	g := Empty()
	index := map[string]int{}
	edgeSeen := map[string]bool{}
	collapsed := []string{}

	for _, obj := range qa.AnswerObjects {
		if slices.Contains(qa.Synced.AnswerObjectIDsHidden, obj.ID) {
			continue
		}

		text := obj.OriginText
		if obj.Synced.ListDisplay == common.ListDisplaySummary && len(obj.Summary.NodeEntities) > 0 {
			text = obj.Summary
		}
		highOnly := qa.Synced.SaliencyFilter == common.SaliencyHigh || obj.Synced.SaliencyFilter == common.SaliencyHigh

		for _, n := range text.NodeEntities {
			if i, ok := index[n.ID]; ok {
				g.Nodes[i].Data.AnswerObjects = common.AddID(g.Nodes[i].Data.AnswerObjects, obj.ID)
				continue
			}
			index[n.ID] = len(g.Nodes)
			g.Nodes = append(g.Nodes, Node{
				ID: n.ID,
				Data: NodeData{
					Label:         n.DisplayLabel,
					AnswerObjects: []string{obj.ID},
				},
				Width:  NodeWidth,
				Height: NodeHeight,
			})
		}

		for _, e := range text.EdgeEntities {
			for _, p := range e.EdgePairs {
				if highOnly && p.Saliency != common.SaliencyHigh {
					continue
				}
				if annotation.IsDangling(p, text.NodeEntities) {
					continue
				}
				id := EdgeID(p.SourceID, p.TargetID, e.EdgeLabel)
				if edgeSeen[id] {
					continue
				}
				edgeSeen[id] = true
				g.Edges = append(g.Edges, Edge{
					ID:             id,
					Source:         p.SourceID,
					Target:         p.TargetID,
					Label:          e.EdgeLabel,
					Saliency:       p.Saliency,
					AnswerObjectID: obj.ID,
				})
			}
		}

		for _, id := range obj.Synced.CollapsedNodes {
			collapsed = common.AddID(collapsed, id)
		}
	}

	g = hideCollapsed(g, collapsed)
	layout(g.Nodes, g.Edges)
	return g
}

// hideCollapsed removes every node reachable from a collapsed node and the
// edges touching them. Collapsed nodes stay visible.
func hideCollapsed(g Graph, collapsed []string) Graph {
	if len(collapsed) == 0 {
		return g
	}

	children := map[string][]string{}
	for _, e := range g.Edges {
		children[e.Source] = append(children[e.Source], e.Target)
	}

	hidden := map[string]bool{}
	queue := slices.Clone(collapsed)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range children[id] {
			if hidden[c] || slices.Contains(collapsed, c) {
				continue
			}
			hidden[c] = true
			queue = append(queue, c)
		}
	}

	g.Nodes = slices.DeleteFunc(g.Nodes, func(n Node) bool { return hidden[n.ID] })
	g.Edges = slices.DeleteFunc(g.Edges, func(e Edge) bool { return hidden[e.Source] || hidden[e.Target] })
	return g
}
