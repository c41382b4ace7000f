package flow

import "reflect"

type nodeContent struct {
	ID            string
	Position      Position
	Label         string
	AnswerObjects []string
}

type edgeContent struct {
	ID             string
	Source         string
	Target         string
	Label          string
	Saliency       string
	AnswerObjectID string
}

// EqualAcrossTime reports whether two graphs have the same content. Client
// state (selection, measured size, editing and meta key flags) and the
// viewport are ignored.
func EqualAcrossTime(a, b Graph) bool {
	return reflect.DeepEqual(nodeContents(a.Nodes), nodeContents(b.Nodes)) &&
		reflect.DeepEqual(edgeContents(a.Edges), edgeContents(b.Edges))
}

func nodeContents(nodes []Node) []nodeContent {
	out := make([]nodeContent, len(nodes))
	for i, n := range nodes {
		objects := n.Data.AnswerObjects
		if objects == nil {
			objects = []string{}
		}
		out[i] = nodeContent{
			ID:            n.ID,
			Position:      n.Position,
			Label:         n.Data.Label,
			AnswerObjects: objects,
		}
	}
	return out
}

func edgeContents(edges []Edge) []edgeContent {
	out := make([]edgeContent, len(edges))
	for i, e := range edges {
		out[i] = edgeContent{
			ID:             e.ID,
			Source:         e.Source,
			Target:         e.Target,
			Label:          e.Label,
			Saliency:       string(e.Saliency),
			AnswerObjectID: e.AnswerObjectID,
		}
	}
	return out
}
