package common

import (
	"reflect"
	"testing"
)

func sampleQA() QuestionAndAnswer {
	qa := NewQuestionAndAnswer("qa1", "What is AI?")
	obj := NewAnswerObject("o1")
	obj.OriginText = AnnotatedText{
		Content: "[AI ($N1)]",
		NodeEntities: []NodeEntity{{
			ID:           "$N1",
			DisplayLabel: "AI",
			Individuals: []NodeIndividual{{
				ID: "$N1", AnswerObjectID: "o1", DisplayLabel: "AI",
				OriginText: "[AI ($N1)]", OriginRange: OriginRange{Start: 0, End: 9},
			}},
		}},
		EdgeEntities: []EdgeEntity{{
			EdgeLabel: "is",
			EdgePairs: []EdgePair{{Saliency: SaliencyHigh, SourceID: "$N1", TargetID: "$N2"}},
		}},
	}
	obj.Synced.CollapsedNodes = []string{"$N1"}
	qa.AnswerObjects = append(qa.AnswerObjects, obj)
	qa.Synced.AnswerObjectIDsHighlighted = []string{"o1"}
	return qa
}

func TestQuestionAndAnswerCloneIsDeep(t *testing.T) {
	qa := sampleQA()
	cp := qa.Clone()

	if !reflect.DeepEqual(qa, cp) {
		t.Fatalf("clone differs from original")
	}

	cp.AnswerObjects[0].OriginText.NodeEntities[0].Individuals[0].DisplayLabel = "changed"
	cp.AnswerObjects[0].OriginText.EdgeEntities[0].EdgePairs[0].TargetID = "$N9"
	cp.AnswerObjects[0].Synced.CollapsedNodes[0] = "$N9"
	cp.Synced.AnswerObjectIDsHighlighted[0] = "o9"

	orig := sampleQA()
	if !reflect.DeepEqual(qa, orig) {
		t.Fatalf("mutating the clone changed the original")
	}
}

func TestOriginRange(t *testing.T) {
	r := OriginRange{Start: 2, End: 4}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	if got := r.Slice("abcdefg"); got != "cde" {
		t.Fatalf("Slice() = %q, want %q", got, "cde")
	}
	if got := (OriginRange{Start: 5, End: 20}).Slice("abcdefg"); got != "fg" {
		t.Fatalf("Slice() clamped = %q, want %q", got, "fg")
	}
	if !r.Within(OriginRange{Start: 0, End: 4}) || r.Within(OriginRange{Start: 3, End: 10}) {
		t.Fatalf("Within() mismatch")
	}
}

func TestUpsertObject(t *testing.T) {
	qa := sampleQA()
	updated := qa.AnswerObjects[0].Clone()
	updated.Complete = true
	qa.UpsertObject(updated)
	if len(qa.AnswerObjects) != 1 || !qa.AnswerObjects[0].Complete {
		t.Fatalf("expected in-place update, got %+v", qa.AnswerObjects)
	}

	qa.UpsertObject(NewAnswerObject("o2"))
	if len(qa.AnswerObjects) != 2 || qa.AnswerObjects[1].ID != "o2" {
		t.Fatalf("expected append, got %d objects", len(qa.AnswerObjects))
	}
}

func TestIDSets(t *testing.T) {
	ids := AddID([]string{"a"}, "b")
	ids = AddID(ids, "a")
	if !reflect.DeepEqual(ids, []string{"a", "b"}) {
		t.Fatalf("AddID() = %v", ids)
	}
	ids = RemoveID(ids, "a")
	if !reflect.DeepEqual(ids, []string{"b"}) {
		t.Fatalf("RemoveID() = %v", ids)
	}
}
