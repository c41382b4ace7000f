package answer

import (
	"strings"

	"github.com/OFFIS-RIT/annograph/backend/pkg/annotation"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
)

// applyDelta appends one stream delta to the expansion and publishes the
// draft. For fresh streams a line break closes the current paragraph: the
// finished draft is passed to onParagraph and a new draft is started.
func (o *Orchestrator) applyDelta(exp *Expansion, delta string, onParagraph func(common.AnswerObject)) error {
	if !exp.Kind.Fresh() {
		o.appendDelta(exp, delta)
		return nil
	}

	parts := strings.Split(delta, "\n")
	for i, part := range parts {
		if i > 0 && strings.TrimSpace(exp.Draft.OriginText.Content) != "" {
			finished := exp.Draft.Clone()
			if err := o.startParagraph(exp); err != nil {
				return err
			}
			onParagraph(finished)
		}
		o.appendDelta(exp, part)
	}
	return nil
}

func (o *Orchestrator) appendDelta(exp *Expansion, delta string) {
	if delta == "" {
		return
	}
	if exp.Kind.Fresh() && exp.Draft.OriginText.Content == "" {
		delta = strings.TrimLeft(delta, " \t\r")
		if delta == "" {
			return
		}
	}
	if !exp.Kind.Fresh() && exp.Draft.OriginText.Content == exp.PreContent {
		delta = " " + delta
	}

	content := exp.Draft.OriginText.Content + delta
	exp.Draft.OriginText = annotation.Parse(content, exp.Draft.ID)

	draft := exp.Draft.Clone()
	o.repo.UpdateByID(exp.QAID, func(qa *common.QuestionAndAnswer) {
		prevContent := ""
		if prev, ok := qa.Object(draft.ID); ok {
			prevContent = prev.OriginText.Content
		}
		qa.Answer = exp.answerText(qa.Answer, prevContent)
		qa.UpsertObject(draft)
	})

	if o.onDelta != nil {
		o.onDelta(exp.QAID, draft.ID, delta)
	}
}

// startParagraph allocates a new draft for a fresh stream and marks it as
// being processed.
func (o *Orchestrator) startParagraph(exp *Expansion) error {
	id, err := o.newID()
	if err != nil {
		return err
	}

	qa, _ := o.repo.UpdateByID(exp.QAID, func(qa *common.QuestionAndAnswer) {
		qa.Synced.AnswerObjectIDsHighlightedTemp = common.AddID(qa.Synced.AnswerObjectIDsHighlightedTemp, id)
	})

	exp.begin(common.NewAnswerObject(id), qa.Answer)
	return nil
}
