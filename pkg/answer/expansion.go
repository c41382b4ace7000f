package answer

import (
	"strings"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
)

// Phase is the state of one expansion request.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStreaming
	PhaseParsingFollowups
	PhaseComplete
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseStreaming:
		return "streaming"
	case PhaseParsingFollowups:
		return "parsing_followups"
	case PhaseComplete:
		return "complete"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// Kind tells what an expansion adds to the answer.
type Kind int

const (
	// KindParagraph streams new paragraphs into new answer objects.
	KindParagraph Kind = iota
	// KindTellMore continues an existing answer object.
	KindTellMore
	// KindNodeExpand explains one entity inside an existing answer object.
	KindNodeExpand
	// KindNodeExamples lists examples of one entity inside an existing answer object.
	KindNodeExamples
)

func (k Kind) String() string {
	switch k {
	case KindTellMore:
		return "tell_more"
	case KindNodeExpand:
		return "node_expand"
	case KindNodeExamples:
		return "node_examples"
	default:
		return "paragraph"
	}
}

// Fresh reports whether the expansion writes new paragraphs.
func (k Kind) Fresh() bool {
	return k == KindParagraph
}

// Expansion is the working state of one expansion request. It is owned by
// the goroutine running the request and never shared with other requests.
type Expansion struct {
	ID    string
	QAID  string
	Kind  Kind
	Phase Phase

	// Draft is the answer object being written.
	Draft common.AnswerObject
	// PreAnswer is the answer text before the current draft started.
	PreAnswer string
	// PreContent is the draft content before streaming started.
	PreContent string
	// NodeID is the entity being expanded, if any.
	NodeID string

	Err error
}

// begin moves the expansion to streaming with draft as working copy.
func (e *Expansion) begin(draft common.AnswerObject, answer string) {
	e.Draft = draft.Clone()
	e.Draft.Complete = false
	e.PreAnswer = answer
	e.PreContent = draft.OriginText.Content
	e.Phase = PhaseStreaming
}

// answerText returns the full answer with the current draft content in place.
//
// Fresh drafts are the last paragraph of current: prevContent, the draft
// content published before, is replaced or the draft is appended as a new
// paragraph. Other drafts replace their pre-expansion content inside the
// remembered answer.
func (e *Expansion) answerText(current, prevContent string) string {
	content := e.Draft.OriginText.Content
	if !e.Kind.Fresh() {
		return strings.Replace(e.PreAnswer, e.PreContent, content, 1)
	}
	if prevContent != "" && strings.HasSuffix(current, prevContent) {
		return current[:len(current)-len(prevContent)] + content
	}
	if current == "" {
		return content
	}
	return current + paragraphSeparator + content
}

const paragraphSeparator = "\n\n"
