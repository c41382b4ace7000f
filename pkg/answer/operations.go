package answer

import (
	"slices"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/graph"
)

// RemoveNode removes an entity from one answer object.
func (r *Repository) RemoveNode(qaID, objectID string, target graph.Target, nodeID string) bool {
	_, ok := r.UpdateObject(qaID, objectID, func(obj *common.AnswerObject) {
		*obj = graph.RemoveNode(*obj, target, nodeID)
	})
	return ok
}

// MergeNode merges entity fromID into toID inside one answer object and
// highlights the coreferences of the merged entity.
func (r *Repository) MergeNode(qaID, objectID string, target graph.Target, fromID, toID string) ([]common.OriginRange, bool) {
	var ranges []common.OriginRange
	ok := false
	r.update(qaID, func(qa *common.QuestionAndAnswer) bool {
		i := qa.ObjectIndex(objectID)
		if i < 0 {
			return false
		}
		qa.AnswerObjects[i], ranges = graph.MergeNode(qa.AnswerObjects[i], target, fromID, toID)
		if ranges == nil {
			return false
		}
		setCoreferences(qa, objectID, target, slices.Clone(ranges))
		ok = true
		return true
	})
	return ranges, ok
}

// ToggleCollapse collapses or expands the subtree below an entity.
func (r *Repository) ToggleCollapse(qaID, objectID, nodeID string) bool {
	_, ok := r.UpdateObject(qaID, objectID, func(obj *common.AnswerObject) {
		*obj = graph.ToggleCollapse(*obj, nodeID)
	})
	return ok
}

// HighlightCoreferences highlights all mentions of an entity.
func (r *Repository) HighlightCoreferences(qaID, objectID, nodeID string) ([]common.OriginRange, bool) {
	var ranges []common.OriginRange
	_, ok := r.update(qaID, func(qa *common.QuestionAndAnswer) bool {
		obj, ok := qa.Object(objectID)
		if !ok {
			return false
		}
		node, ok := obj.OriginText.FindNode(nodeID)
		if !ok {
			return false
		}
		ranges = make([]common.OriginRange, 0, len(node.Individuals))
		for _, ind := range node.Individuals {
			ranges = append(ranges, ind.OriginRange)
		}
		setCoreferences(qa, objectID, graph.TargetOriginText, ranges)
		return true
	})
	return ranges, ok
}

// ClearCoreferences removes all coreference highlights.
func (r *Repository) ClearCoreferences(qaID string) bool {
	_, ok := r.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		setCoreferences(qa, "", graph.TargetOriginText, []common.OriginRange{})
		qa.Synced.HighlightedCoReferenceTarget = ""
	})
	return ok
}

func setCoreferences(qa *common.QuestionAndAnswer, objectID string, target graph.Target, ranges []common.OriginRange) {
	qa.Synced.HighlightedCoReferenceOriginRanges = ranges
	qa.Synced.HighlightedCoReferenceObjectID = objectID
	qa.Synced.HighlightedCoReferenceTarget = target.String()
}

// SetListDisplay selects the representation shown for an answer object.
func (r *Repository) SetListDisplay(qaID, objectID string, display common.ListDisplay) bool {
	_, ok := r.UpdateObject(qaID, objectID, func(obj *common.AnswerObject) {
		obj.Synced.ListDisplay = display
	})
	return ok
}

// SetObjectSaliencyFilter sets the saliency filter of one answer object.
func (r *Repository) SetObjectSaliencyFilter(qaID, objectID string, saliency common.Saliency) bool {
	_, ok := r.UpdateObject(qaID, objectID, func(obj *common.AnswerObject) {
		obj.Synced.SaliencyFilter = saliency
	})
	return ok
}

// SetSaliencyFilter sets the saliency filter of the whole question.
func (r *Repository) SetSaliencyFilter(qaID string, saliency common.Saliency) bool {
	_, ok := r.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		qa.Synced.SaliencyFilter = saliency
	})
	return ok
}

// SetObjectHighlighted adds or removes an answer object from the highlight set.
func (r *Repository) SetObjectHighlighted(qaID, objectID string, highlighted bool) bool {
	_, ok := r.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		if highlighted {
			qa.Synced.AnswerObjectIDsHighlighted = common.AddID(qa.Synced.AnswerObjectIDsHighlighted, objectID)
			return
		}
		qa.Synced.AnswerObjectIDsHighlighted = common.RemoveID(qa.Synced.AnswerObjectIDsHighlighted, objectID)
	})
	return ok
}

// SetObjectHidden hides or shows the graph of an answer object.
func (r *Repository) SetObjectHidden(qaID, objectID string, hidden bool) bool {
	_, ok := r.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		if hidden {
			qa.Synced.AnswerObjectIDsHidden = common.AddID(qa.Synced.AnswerObjectIDsHidden, objectID)
			return
		}
		qa.Synced.AnswerObjectIDsHidden = common.RemoveID(qa.Synced.AnswerObjectIDsHidden, objectID)
	})
	return ok
}

// RemoveObject deletes an answer object. Requests still running for it are
// not interrupted and may publish it again.
func (r *Repository) RemoveObject(qaID, objectID string) bool {
	_, ok := r.update(qaID, func(qa *common.QuestionAndAnswer) bool {
		i := qa.ObjectIndex(objectID)
		if i < 0 {
			return false
		}
		qa.AnswerObjects = slices.Delete(qa.AnswerObjects, i, i+1)
		qa.Synced.AnswerObjectIDsHighlighted = common.RemoveID(qa.Synced.AnswerObjectIDsHighlighted, objectID)
		qa.Synced.AnswerObjectIDsHidden = common.RemoveID(qa.Synced.AnswerObjectIDsHidden, objectID)
		return true
	})
	return ok
}

// ClearModelError resets the sticky model error of a question.
func (r *Repository) ClearModelError(qaID string) bool {
	_, ok := r.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		qa.ModelStatus.ModelError = false
	})
	return ok
}
