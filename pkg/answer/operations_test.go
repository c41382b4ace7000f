package answer

import (
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/annograph/backend/pkg/annotation"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/graph"
)

const opsText = "[Cats ($N1)] [chase ($H, $N1, $N2)] [mice ($N2)]. [Felines ($N3)] [hunt ($L, $N3, $N2)] at night."

func seedRepository(t *testing.T) *Repository {
	t.Helper()

	repo := NewRepository()
	qa := common.NewQuestionAndAnswer("qa", "q")
	obj := common.NewAnswerObject("obj")
	obj.OriginText = annotation.Parse(opsText, obj.ID)
	qa.AnswerObjects = append(qa.AnswerObjects, obj)
	repo.Add(qa)
	return repo
}

func object(t *testing.T, repo *Repository) common.AnswerObject {
	t.Helper()
	qa, _ := repo.Get("qa")
	obj, ok := qa.Object("obj")
	if !ok {
		t.Fatalf("object not found")
	}
	return obj
}

func TestRepository_MergeNodeHighlightsCoreferences(t *testing.T) {
	repo := seedRepository(t)

	ranges, ok := repo.MergeNode("qa", "obj", graph.TargetOriginText, "$N3", "$N1")
	if !ok {
		t.Fatalf("MergeNode() = false")
	}

	want := []common.OriginRange{{Start: 0, End: 11}, {Start: 50, End: 64}}
	if !reflect.DeepEqual(ranges, want) {
		t.Fatalf("ranges = %+v, want %+v", ranges, want)
	}

	qa, _ := repo.Get("qa")
	if !reflect.DeepEqual(qa.Synced.HighlightedCoReferenceOriginRanges, want) {
		t.Fatalf("highlighted = %+v, want %+v", qa.Synced.HighlightedCoReferenceOriginRanges, want)
	}
	if len(object(t, repo).OriginText.NodeEntities) != 2 {
		t.Fatalf("merged node still present")
	}

	if _, ok := repo.MergeNode("qa", "obj", graph.TargetOriginText, "$N9", "$N1"); ok {
		t.Fatalf("MergeNode() with unknown id = true")
	}
}

func TestRepository_RemoveNode(t *testing.T) {
	repo := seedRepository(t)

	if !repo.RemoveNode("qa", "obj", graph.TargetOriginText, "$N2") {
		t.Fatalf("RemoveNode() = false")
	}
	obj := object(t, repo)
	if len(obj.OriginText.NodeEntities) != 2 || len(obj.OriginText.EdgeEntities) != 0 {
		t.Fatalf("graph = %+v", obj.OriginText)
	}
	if repo.RemoveNode("missing", "obj", graph.TargetOriginText, "$N1") {
		t.Fatalf("RemoveNode() on unknown question = true")
	}
}

func TestRepository_HighlightCoreferences(t *testing.T) {
	repo := seedRepository(t)

	ranges, ok := repo.HighlightCoreferences("qa", "obj", "$N2")
	if !ok {
		t.Fatalf("HighlightCoreferences() = false")
	}
	want := []common.OriginRange{{Start: 36, End: 47}}
	if !reflect.DeepEqual(ranges, want) {
		t.Fatalf("ranges = %+v, want %+v", ranges, want)
	}

	segments, _ := repo.Segments("qa", "obj", graph.TargetOriginText)
	if len(segments) != 3 || !segments[1].Highlighted || segments[1].Text != "[mice ($N2)]" {
		t.Fatalf("segments = %+v", segments)
	}

	if !repo.ClearCoreferences("qa") {
		t.Fatalf("ClearCoreferences() = false")
	}
	qa, _ := repo.Get("qa")
	if len(qa.Synced.HighlightedCoReferenceOriginRanges) != 0 {
		t.Fatalf("highlights not cleared")
	}
}

func TestRepository_CoreferencesStayInTheirObject(t *testing.T) {
	repo := seedRepository(t)
	other := common.NewAnswerObject("other")
	other.OriginText = annotation.Parse("Dogs are loyal pets and bark.", other.ID)
	other.Summary = annotation.Parse("[Dogs ($N1)] and [hounds ($N2)] bark.", other.ID)
	repo.UpsertObject("qa", other)

	if _, ok := repo.HighlightCoreferences("qa", "obj", "$N1"); !ok {
		t.Fatalf("HighlightCoreferences() = false")
	}

	tests := []struct {
		name     string
		objectID string
		target   graph.Target
		want     []bool
	}{
		{"highlighted object", "obj", graph.TargetOriginText, []bool{true, false}},
		{"other object", "other", graph.TargetOriginText, []bool{false}},
		{"other target", "obj", graph.TargetSummary, []bool{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, ok := repo.Segments("qa", tt.objectID, tt.target)
			if !ok {
				t.Fatalf("Segments() = false")
			}
			got := make([]bool, 0, len(segments))
			for _, s := range segments {
				got = append(got, s.Highlighted)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("highlighted = %v, want %v (segments %+v)", got, tt.want, segments)
			}
		})
	}

	if _, ok := repo.MergeNode("qa", "other", graph.TargetSummary, "$N2", "$N1"); !ok {
		t.Fatalf("MergeNode() = false")
	}
	segments, _ := repo.Segments("qa", "other", graph.TargetSummary)
	if len(segments) != 4 || !segments[0].Highlighted || segments[0].Text != "[Dogs ($N1)]" || !segments[2].Highlighted {
		t.Fatalf("summary segments = %+v", segments)
	}
	for _, id := range []string{"obj", "other"} {
		segments, _ := repo.Segments("qa", id, graph.TargetOriginText)
		for _, seg := range segments {
			if seg.Highlighted {
				t.Fatalf("origin text of %s highlighted after a summary merge: %+v", id, segments)
			}
		}
	}

	repo.ClearCoreferences("qa")
	segments, _ = repo.Segments("qa", "other", graph.TargetSummary)
	if len(segments) != 1 || segments[0].Highlighted {
		t.Fatalf("segments after clear = %+v", segments)
	}
}

func TestRepository_SyncedState(t *testing.T) {
	repo := seedRepository(t)

	repo.ToggleCollapse("qa", "obj", "$N1")
	repo.SetListDisplay("qa", "obj", common.ListDisplaySummary)
	repo.SetObjectSaliencyFilter("qa", "obj", common.SaliencyHigh)
	repo.SetSaliencyFilter("qa", common.SaliencyHigh)
	repo.SetObjectHighlighted("qa", "obj", true)
	repo.SetObjectHidden("qa", "obj", true)
	repo.SetObjectHidden("qa", "obj", true)

	qa, _ := repo.Get("qa")
	obj := qa.AnswerObjects[0]
	if !reflect.DeepEqual(obj.Synced.CollapsedNodes, []string{"$N1"}) {
		t.Fatalf("collapsed = %v", obj.Synced.CollapsedNodes)
	}
	if obj.Synced.ListDisplay != common.ListDisplaySummary || obj.Synced.SaliencyFilter != common.SaliencyHigh {
		t.Fatalf("object synced = %+v", obj.Synced)
	}
	if qa.Synced.SaliencyFilter != common.SaliencyHigh {
		t.Fatalf("saliency filter = %q", qa.Synced.SaliencyFilter)
	}
	if !reflect.DeepEqual(qa.Synced.AnswerObjectIDsHidden, []string{"obj"}) ||
		!reflect.DeepEqual(qa.Synced.AnswerObjectIDsHighlighted, []string{"obj"}) {
		t.Fatalf("synced = %+v", qa.Synced)
	}

	repo.SetObjectHidden("qa", "obj", false)
	if !repo.RemoveObject("qa", "obj") {
		t.Fatalf("RemoveObject() = false")
	}
	qa, _ = repo.Get("qa")
	if len(qa.AnswerObjects) != 0 || len(qa.Synced.AnswerObjectIDsHighlighted) != 0 || len(qa.Synced.AnswerObjectIDsHidden) != 0 {
		t.Fatalf("qa after RemoveObject = %+v", qa)
	}
	if repo.RemoveObject("qa", "obj") {
		t.Fatalf("second RemoveObject() = true")
	}
}
