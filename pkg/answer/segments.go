package answer

import (
	"slices"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/graph"
)

// Segment is a piece of text that is either highlighted or not.
type Segment struct {
	Text        string             `json:"text"`
	Range       common.OriginRange `json:"range"`
	Highlighted bool               `json:"highlighted"`
}

// SliceHighlighted cuts the slicing range of text into ordered segments.
// Highlighted ranges are clipped to the slicing range and overlapping ranges
// are clipped to the end of the previous one.
func SliceHighlighted(text string, highlighted []common.OriginRange, slicing common.OriginRange) []Segment {
	ranges := make([]common.OriginRange, 0, len(highlighted))
	for _, r := range highlighted {
		if r.Start > r.End {
			continue
		}
		if c, ok := r.Intersect(slicing); ok {
			ranges = append(ranges, c)
		}
	}
	slices.SortStableFunc(ranges, func(a, b common.OriginRange) int {
		return a.Start - b.Start
	})

	var segments []Segment
	add := func(r common.OriginRange, hl bool) {
		segments = append(segments, Segment{Text: r.Slice(text), Range: r, Highlighted: hl})
	}

	cursor := slicing.Start
	for _, r := range ranges {
		if r.End < cursor {
			continue
		}
		if r.Start < cursor {
			r.Start = cursor
		}
		if r.Start > cursor {
			add(common.OriginRange{Start: cursor, End: r.Start - 1}, false)
		}
		add(r, true)
		cursor = r.End + 1
	}
	if cursor <= slicing.End {
		add(common.OriginRange{Start: cursor, End: slicing.End}, false)
	}

	return segments
}

// Segments slices the target text of an answer object by the coreference
// highlights of its question. Highlights made in another object or target
// are not applied.
func (r *Repository) Segments(qaID, objectID string, target graph.Target) ([]Segment, bool) {
	qa, ok := r.Get(qaID)
	if !ok {
		return nil, false
	}
	obj, ok := qa.Object(objectID)
	if !ok {
		return nil, false
	}
	content := obj.OriginText.Content
	if target == graph.TargetSummary {
		content = obj.Summary.Content
	}
	if content == "" {
		return []Segment{}, true
	}

	var highlighted []common.OriginRange
	if qa.Synced.HighlightedCoReferenceObjectID == objectID && qa.Synced.HighlightedCoReferenceTarget == target.String() {
		highlighted = qa.Synced.HighlightedCoReferenceOriginRanges
	}
	return SliceHighlighted(content, highlighted, common.OriginRange{Start: 0, End: len(content) - 1}), true
}
