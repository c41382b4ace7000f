package annotation

import "github.com/OFFIS-RIT/annograph/backend/pkg/common"

// Issues lists annotation problems that self-correction tries to fix.
//
// Orphans are entities that no edge pair touches. Dangling are relationship
// annotations with at least one pair that references an unknown entity id.
type Issues struct {
	Orphans  []common.NodeEntity
	Dangling []common.EdgeEntity
}

// Empty reports whether no issue was found.
func (i Issues) Empty() bool {
	return len(i.Orphans) == 0 && len(i.Dangling) == 0
}

// OrphanLabels returns the display labels of all orphan entities.
func (i Issues) OrphanLabels() []string {
	labels := make([]string, 0, len(i.Orphans))
	for _, n := range i.Orphans {
		labels = append(labels, n.DisplayLabel)
	}
	return labels
}

// DanglingAnnotations returns the markup of all dangling relationships.
func (i Issues) DanglingAnnotations() []string {
	out := make([]string, 0, len(i.Dangling))
	for _, e := range i.Dangling {
		out = append(out, e.OriginText)
	}
	return out
}

// Analyze finds orphan entities and dangling relationships.
func Analyze(nodes []common.NodeEntity, edges []common.EdgeEntity) Issues {
	return analyze(nodes, edges, nodes, edges)
}

// AnalyzeSentence reports the issues of the annotations inside one sentence.
// Ids are resolved against all nodes and edges of the text the sentence
// belongs to, so an entity connected in another sentence is not an orphan.
func AnalyzeSentence(sentence Sentence, nodes []common.NodeEntity, edges []common.EdgeEntity) Issues {
	var scopedNodes []common.NodeEntity
	for _, n := range nodes {
		for _, ind := range n.Individuals {
			if ind.OriginRange.Within(sentence.Range) {
				scopedNodes = append(scopedNodes, n)
				break
			}
		}
	}

	var scopedEdges []common.EdgeEntity
	for _, e := range edges {
		if e.OriginRange.Within(sentence.Range) {
			scopedEdges = append(scopedEdges, e)
		}
	}

	return analyze(scopedNodes, scopedEdges, nodes, edges)
}

func analyze(scopedNodes []common.NodeEntity, scopedEdges []common.EdgeEntity, allNodes []common.NodeEntity, allEdges []common.EdgeEntity) Issues {
	touched := map[string]bool{}
	for _, e := range allEdges {
		for _, p := range e.EdgePairs {
			touched[p.SourceID] = true
			touched[p.TargetID] = true
		}
	}

	var issues Issues
	for _, n := range scopedNodes {
		if !touched[n.ID] {
			issues.Orphans = append(issues.Orphans, n)
		}
	}
	for _, e := range scopedEdges {
		for _, p := range e.EdgePairs {
			if IsDangling(p, allNodes) {
				issues.Dangling = append(issues.Dangling, e)
				break
			}
		}
	}
	return issues
}
