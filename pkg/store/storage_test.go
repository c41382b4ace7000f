package store

import (
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
)

func TestEncodeDecode_Lossless(t *testing.T) {
	qa := common.NewQuestionAndAnswer("qa", "What do cats do?")
	qa.Answer = "[Cats ($N1)] [chase ($H, $N1, $N2)] [mice ($N2)]."
	qa.ModelStatus.ModelInitialPrompts = ai.InitialAskPrompts(qa.Question)
	qa.ModelStatus.ModelError = true
	qa.Synced.HighlightedCoReferenceOriginRanges = []common.OriginRange{{Start: 0, End: 11}}
	qa.Synced.AnswerObjectIDsHidden = []string{"o"}

	obj := common.NewAnswerObject("o")
	obj.OriginText = common.AnnotatedText{
		Content: qa.Answer,
		NodeEntities: []common.NodeEntity{{
			ID: "$N1", DisplayLabel: "Cats",
			Individuals: []common.NodeIndividual{{
				ID: "$N1", AnswerObjectID: "o", DisplayLabel: "Cats",
				OriginText: "[Cats ($N1)]", OriginRange: common.OriginRange{Start: 0, End: 11},
			}},
		}},
		EdgeEntities: []common.EdgeEntity{{
			EdgeLabel: "chase",
			EdgePairs: []common.EdgePair{{Saliency: common.SaliencyHigh, SourceID: "$N1", TargetID: "$N2"}},
			OriginRange: common.OriginRange{Start: 13, End: 34}, OriginText: "[chase ($H, $N1, $N2)]",
			AnswerObjectID: "o",
		}},
	}
	obj.Slide = common.Slide{Content: "# Cats"}
	obj.Synced.CollapsedNodes = []string{"$N1"}
	obj.Complete = true
	qa.AnswerObjects = append(qa.AnswerObjects, obj)

	data, err := Encode([]common.QuestionAndAnswer{qa})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(got, []common.QuestionAndAnswer{qa}) {
		t.Fatalf("round trip changed the session:\n got %+v\nwant %+v", got, qa)
	}
}

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(nil)
	if err != nil || string(data) != "[]" {
		t.Fatalf("Encode(nil) = %s, %v", data, err)
	}
	if _, err := Decode([]byte("{")); err == nil {
		t.Fatalf("Decode() of invalid data succeeded")
	}
}

func TestHandle(t *testing.T) {
	if got := Handle("42"); got != "__annograph__42" {
		t.Fatalf("Handle() = %q", got)
	}
}
