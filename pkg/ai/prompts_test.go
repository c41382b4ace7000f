package ai

import (
	"strings"
	"testing"
)

func TestSelfCorrectionPrompts(t *testing.T) {
	prev := InitialAskPrompts("What is AI?")
	got := SelfCorrectionPrompts(prev, "  [AI ($N1)] is smart.", []string{"AI"}, nil)

	if len(got) != len(prev)+2 {
		t.Fatalf("expected %d prompts, got %d", len(prev)+2, len(got))
	}
	if len(prev) != 2 {
		t.Fatalf("previous conversation was modified: %d prompts", len(prev))
	}

	system := got[len(got)-2]
	if system.Role != RoleSystem {
		t.Fatalf("expected system role, got %q", system.Role)
	}
	if !strings.Contains(system.Content, `"AI" are mentioned but not connected`) {
		t.Fatalf("orphan issue missing from prompt: %s", system.Content)
	}
	if strings.Contains(system.Content, "connect entity ids that are not mentioned") {
		t.Fatalf("dangling issue must be omitted when there is none")
	}

	user := got[len(got)-1]
	if user.Content != "Please re-annotate this sentence: [AI ($N1)] is smart." {
		t.Fatalf("unexpected user prompt %q", user.Content)
	}
}

func TestFollowupPromptsKeepConversation(t *testing.T) {
	prev := InitialAskPrompts("q")
	tests := []struct {
		name string
		got  []Prompt
	}{
		{name: "expand", got: NodeExpandPrompts(prev, "s", "n", 0)},
		{name: "examples", got: NodeExamplesPrompts(prev, "s", "n", 0)},
		{name: "sentences", got: MoreSentencesPrompts(prev, "p", 0)},
		{name: "paragraph", got: MoreParagraphPrompts(prev)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if len(tc.got) != 3 {
				t.Fatalf("expected 3 prompts, got %d", len(tc.got))
			}
			if tc.got[0] != prev[0] || tc.got[1] != prev[1] {
				t.Fatalf("previous conversation not preserved")
			}
			if tc.got[2].Role != RoleUser {
				t.Fatalf("expected user role, got %q", tc.got[2].Role)
			}
			if strings.Contains(tc.got[2].Content, "%!") {
				t.Fatalf("format verbs not filled: %s", tc.got[2].Content)
			}
		})
	}
}

func TestFollowupPromptsNumberingHint(t *testing.T) {
	prev := InitialAskPrompts("q")
	tests := []struct {
		name string
		got  []Prompt
		want bool
	}{
		{name: "expand", got: NodeExpandPrompts(prev, "s", "n", 4), want: true},
		{name: "examples", got: NodeExamplesPrompts(prev, "s", "n", 13), want: true},
		{name: "sentences", got: MoreSentencesPrompts(prev, "p", 2), want: true},
		{name: "no entities yet", got: MoreSentencesPrompts(prev, "p", 1), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			last := tc.got[len(tc.got)-1].Content
			if got := strings.Contains(last, "The next new entity id is"); got != tc.want {
				t.Fatalf("hint present = %v, want %v: %s", got, tc.want, last)
			}
		})
	}
	if last := NodeExamplesPrompts(prev, "s", "n", 13)[2].Content; !strings.Contains(last, `"$N13"`) {
		t.Fatalf("hint does not name $N13: %s", last)
	}
}
