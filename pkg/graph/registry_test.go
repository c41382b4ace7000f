package graph

import (
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/annograph/backend/pkg/annotation"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
)

func newObject(content string) common.AnswerObject {
	obj := common.NewAnswerObject("o1")
	obj.OriginText = annotation.Parse(content, "o1")
	obj.Summary = annotation.Parse(content, "o1")
	return obj
}

func referencedIDs(obj common.AnswerObject, target Target) map[string]bool {
	ids := map[string]bool{}
	for _, e := range annotated(&obj, target).EdgeEntities {
		for _, p := range e.EdgePairs {
			ids[p.SourceID] = true
			ids[p.TargetID] = true
		}
	}
	return ids
}

func TestRemoveNode(t *testing.T) {
	content := "[A ($N1)] [likes ($H, $N1, $N2; $H, $N1, $N3)] [B ($N2)] and [C ($N3)]. [B ($N2)] [knows ($L, $N2, $N3)] [C ($N3)]."

	for _, target := range []Target{TargetOriginText, TargetSummary} {
		t.Run(target.String(), func(t *testing.T) {
			obj := newObject(content)
			obj.Synced.CollapsedNodes = []string{"$N2"}

			got := RemoveNode(obj, target, "$N2")
			text := annotated(&got, target)

			if _, ok := text.FindNode("$N2"); ok {
				t.Fatalf("node still present")
			}
			if referencedIDs(got, target)["$N2"] {
				t.Fatalf("edge pair still references removed node")
			}
			if len(text.EdgeEntities) != 1 {
				t.Fatalf("expected 1 remaining edge, got %d", len(text.EdgeEntities))
			}
			wantPairs := []common.EdgePair{{Saliency: common.SaliencyHigh, SourceID: "$N1", TargetID: "$N3"}}
			if !reflect.DeepEqual(text.EdgeEntities[0].EdgePairs, wantPairs) {
				t.Fatalf("pairs = %+v", text.EdgeEntities[0].EdgePairs)
			}
			if len(got.Synced.CollapsedNodes) != 0 {
				t.Fatalf("removed node still collapsed")
			}

			if _, ok := annotated(&obj, target).FindNode("$N2"); !ok {
				t.Fatalf("input object was mutated")
			}
		})
	}
}

func TestRemoveNode_Missing(t *testing.T) {
	obj := newObject("[A ($N1)] [likes ($H, $N1, $N2)] [B ($N2)].")
	got := RemoveNode(obj, TargetOriginText, "$N9")
	if !reflect.DeepEqual(got, obj) {
		t.Fatalf("removing a missing node must not change the object")
	}
}

func TestMergeNode(t *testing.T) {
	obj := newObject("[Fruits ($N1)] [such as ($H, $N1, $N3)] [apples ($N3)] are [Produce ($N2)] [like ($L, $N2, $N1; $H, $N2, $N4)] [kale ($N4)].")
	obj.Synced.CollapsedNodes = []string{"$N1"}

	got, ranges := MergeNode(obj, TargetOriginText, "$N1", "$N2")

	if _, ok := got.OriginText.FindNode("$N1"); ok {
		t.Fatalf("merged node still present")
	}
	to, ok := got.OriginText.FindNode("$N2")
	if !ok {
		t.Fatalf("target node missing")
	}
	if len(to.Individuals) != 2 {
		t.Fatalf("expected 2 individuals, got %d", len(to.Individuals))
	}
	for _, ind := range to.Individuals {
		if ind.ID != "$N2" {
			t.Fatalf("individual not retagged: %+v", ind)
		}
	}
	if len(ranges) != 2 || ranges[0] != to.Individuals[0].OriginRange || ranges[1] != to.Individuals[1].OriginRange {
		t.Fatalf("ranges = %+v", ranges)
	}
	if referencedIDs(got, TargetOriginText)["$N1"] {
		t.Fatalf("pair still references merged node")
	}

	var pairs []common.EdgePair
	for _, e := range got.OriginText.EdgeEntities {
		pairs = append(pairs, e.EdgePairs...)
	}
	wantPairs := []common.EdgePair{
		{Saliency: common.SaliencyHigh, SourceID: "$N2", TargetID: "$N3"},
		{Saliency: common.SaliencyHigh, SourceID: "$N2", TargetID: "$N4"},
	}
	if !reflect.DeepEqual(pairs, wantPairs) {
		t.Fatalf("pairs = %+v, want %+v", pairs, wantPairs)
	}
	if len(got.Synced.CollapsedNodes) != 0 {
		t.Fatalf("merged node still collapsed")
	}
}

func TestMergeNode_Idempotent(t *testing.T) {
	obj := newObject("[Fruits ($N1)] [are ($H, $N1, $N2)] [Produce ($N2)].")
	once, _ := MergeNode(obj, TargetOriginText, "$N1", "$N2")
	twice, ranges := MergeNode(once, TargetOriginText, "$N1", "$N2")

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second merge changed the object")
	}
	if ranges != nil {
		t.Fatalf("no-op merge returned ranges %+v", ranges)
	}
}

func TestMergeNode_NoOps(t *testing.T) {
	obj := newObject("[Fruits ($N1)] [are ($H, $N1, $N2)] [Produce ($N2)].")
	tests := []struct {
		name     string
		from, to string
	}{
		{name: "same id", from: "$N1", to: "$N1"},
		{name: "missing from", from: "$N8", to: "$N1"},
		{name: "missing to", from: "$N1", to: "$N9"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := MergeNode(obj, TargetOriginText, tc.from, tc.to)
			if !reflect.DeepEqual(got, obj) {
				t.Fatalf("expected unchanged object")
			}
		})
	}
}

func TestMergeThenRemove(t *testing.T) {
	obj := newObject("[Fruits ($N1)] [are ($H, $N1, $N2)] [Produce ($N2)] and [Fruits ($N1)] [contain ($H, $N1, $N3)] [vitamins ($N3)]. [Produce ($N2)] [needs ($L, $N2, $N4)] [water ($N4)].")

	merged, _ := MergeNode(obj, TargetOriginText, "$N1", "$N2")
	removed := RemoveNode(merged, TargetOriginText, "$N2")

	ids := referencedIDs(removed, TargetOriginText)
	if ids["$N1"] || ids["$N2"] {
		t.Fatalf("edge pairs still reference merged or removed ids: %v", ids)
	}
	if len(removed.OriginText.EdgeEntities) != 0 {
		t.Fatalf("expected no edges left, got %+v", removed.OriginText.EdgeEntities)
	}
}

func TestToggleCollapse(t *testing.T) {
	obj := common.NewAnswerObject("o1")
	obj = ToggleCollapse(obj, "$N1")
	if !reflect.DeepEqual(obj.Synced.CollapsedNodes, []string{"$N1"}) {
		t.Fatalf("collapsed = %v", obj.Synced.CollapsedNodes)
	}
	obj = ToggleCollapse(obj, "$N1")
	if len(obj.Synced.CollapsedNodes) != 0 {
		t.Fatalf("collapsed = %v", obj.Synced.CollapsedNodes)
	}
}

func TestFindEntity(t *testing.T) {
	a := newObject("[A ($N1)].")
	b := common.NewAnswerObject("o2")
	b.OriginText = annotation.Parse("[Other A ($N1)] and [B ($N2)].", "o2")

	n, ok := FindEntity([]common.AnswerObject{a, b}, "$N2")
	if !ok || n.DisplayLabel != "B" {
		t.Fatalf("FindEntity($N2) = %+v, %v", n, ok)
	}
	n, ok = FindEntity([]common.AnswerObject{a, b}, "$N1")
	if !ok || n.DisplayLabel != "A" {
		t.Fatalf("FindEntity must return the first match, got %+v", n)
	}
	if _, ok := FindEntity([]common.AnswerObject{a, b}, "$N7"); ok {
		t.Fatalf("expected no match")
	}
}

func TestParseTarget(t *testing.T) {
	if tgt, err := ParseTarget("summary"); err != nil || tgt != TargetSummary {
		t.Fatalf("ParseTarget(summary) = %v, %v", tgt, err)
	}
	if tgt, err := ParseTarget(""); err != nil || tgt != TargetOriginText {
		t.Fatalf("ParseTarget(\"\") = %v, %v", tgt, err)
	}
	if _, err := ParseTarget("slide"); err == nil {
		t.Fatalf("expected error for unknown target")
	}
}
