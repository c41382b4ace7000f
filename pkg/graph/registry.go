// Package graph edits the entity/edge graph of answer objects.
//
// Every operation works on a copy of the given object and returns the new
// value. Stale ids are not an error: the object is returned unchanged.
package graph

import (
	"fmt"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
)

// Target selects which annotated text of an answer object an operation edits.
type Target int

const (
	TargetOriginText Target = iota
	TargetSummary
)

func (t Target) String() string {
	switch t {
	case TargetSummary:
		return "summary"
	default:
		return "origin_text"
	}
}

// ParseTarget converts the wire name of a target.
func ParseTarget(s string) (Target, error) {
	switch s {
	case "", "origin_text", "originText":
		return TargetOriginText, nil
	case "summary":
		return TargetSummary, nil
	}
	return TargetOriginText, fmt.Errorf("unknown target %q", s)
}

func annotated(obj *common.AnswerObject, target Target) *common.AnnotatedText {
	if target == TargetSummary {
		return &obj.Summary
	}
	return &obj.OriginText
}

// RemoveNode deletes the entity nodeID, every edge pair touching it and every
// edge left without pairs. Touching edges are not bridged.
func RemoveNode(obj common.AnswerObject, target Target, nodeID string) common.AnswerObject {
	obj = obj.Clone()
	text := annotated(&obj, target)

	idx := indexOf(text.NodeEntities, nodeID)
	if idx < 0 {
		return obj
	}

	text.NodeEntities = append(text.NodeEntities[:idx], text.NodeEntities[idx+1:]...)
	text.EdgeEntities = rewriteEdges(text.EdgeEntities, func(p common.EdgePair) (common.EdgePair, bool) {
		return p, p.SourceID != nodeID && p.TargetID != nodeID
	})
	obj.Synced.CollapsedNodes = common.RemoveID(obj.Synced.CollapsedNodes, nodeID)

	return obj
}

// MergeNode folds the entity fromID into toID. The individuals of fromID are
// retagged and moved to toID, pairs between both are dropped and the
// remaining pairs are rewritten to toID. It returns the origin ranges of all
// individuals of toID after the merge.
//
// Missing ids or fromID == toID leave the object unchanged.
func MergeNode(obj common.AnswerObject, target Target, fromID, toID string) (common.AnswerObject, []common.OriginRange) {
	obj = obj.Clone()
	if fromID == toID {
		return obj, nil
	}

	text := annotated(&obj, target)
	fromIdx := indexOf(text.NodeEntities, fromID)
	toIdx := indexOf(text.NodeEntities, toID)
	if fromIdx < 0 || toIdx < 0 {
		return obj, nil
	}

	to := &text.NodeEntities[toIdx]
	for _, ind := range text.NodeEntities[fromIdx].Individuals {
		ind.ID = toID
		to.Individuals = append(to.Individuals, ind)
	}

	ranges := make([]common.OriginRange, 0, len(to.Individuals))
	for _, ind := range to.Individuals {
		ranges = append(ranges, ind.OriginRange)
	}

	text.NodeEntities = append(text.NodeEntities[:fromIdx], text.NodeEntities[fromIdx+1:]...)

	text.EdgeEntities = rewriteEdges(text.EdgeEntities, func(p common.EdgePair) (common.EdgePair, bool) {
		if (p.SourceID == fromID && p.TargetID == toID) || (p.SourceID == toID && p.TargetID == fromID) {
			return p, false
		}
		if p.SourceID == fromID {
			p.SourceID = toID
		}
		if p.TargetID == fromID {
			p.TargetID = toID
		}
		return p, true
	})
	obj.Synced.CollapsedNodes = common.RemoveID(obj.Synced.CollapsedNodes, fromID)

	return obj, ranges
}

// ToggleCollapse adds nodeID to the collapsed nodes or removes it.
func ToggleCollapse(obj common.AnswerObject, nodeID string) common.AnswerObject {
	obj = obj.Clone()
	for _, id := range obj.Synced.CollapsedNodes {
		if id == nodeID {
			obj.Synced.CollapsedNodes = common.RemoveID(obj.Synced.CollapsedNodes, nodeID)
			return obj
		}
	}
	obj.Synced.CollapsedNodes = append(obj.Synced.CollapsedNodes, nodeID)
	return obj
}

// FindEntity returns the first origin text entity with the given id across objects.
func FindEntity(objects []common.AnswerObject, entityID string) (common.NodeEntity, bool) {
	for _, o := range objects {
		if n, ok := o.OriginText.FindNode(entityID); ok {
			return n.Clone(), true
		}
	}
	return common.NodeEntity{}, false
}

func indexOf(nodes []common.NodeEntity, id string) int {
	for i, n := range nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// rewriteEdges maps every pair through fn, drops pairs fn rejects and
// duplicates inside one edge, and drops edges without pairs.
func rewriteEdges(edges []common.EdgeEntity, fn func(common.EdgePair) (common.EdgePair, bool)) []common.EdgeEntity {
	out := make([]common.EdgeEntity, 0, len(edges))
	for _, e := range edges {
		pairs := make([]common.EdgePair, 0, len(e.EdgePairs))
		seen := map[common.EdgePair]bool{}
		for _, p := range e.EdgePairs {
			p, keep := fn(p)
			if !keep || seen[p] {
				continue
			}
			seen[p] = true
			pairs = append(pairs, p)
		}
		if len(pairs) == 0 {
			continue
		}
		e.EdgePairs = pairs
		out = append(out, e)
	}
	return out
}
