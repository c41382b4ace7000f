package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"
	"github.com/OFFIS-RIT/annograph/backend/pkg/annotation"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

type faultySentence struct {
	sentence annotation.Sentence
	issues   annotation.Issues
}

// HandleSelfCorrection re-annotates the faulty sentences of one answer
// object and publishes the corrected object.
func (o *Orchestrator) HandleSelfCorrection(ctx context.Context, qaID, objectID string) error {
	qa, ok, err := o.guard(qaID)
	if err != nil || !ok {
		return err
	}
	obj, ok := qa.Object(objectID)
	if !ok {
		return nil
	}

	o.repo.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		qa.Synced.AnswerObjectIDsHighlightedTemp = common.AddID(qa.Synced.AnswerObjectIDsHighlightedTemp, objectID)
	})

	prevContent := obj.OriginText.Content
	corrected, err := o.selfCorrect(ctx, qaID, obj)
	if err != nil {
		return o.failObject(qaID, objectID, fmt.Errorf("self-correction: %w", err))
	}
	newContent := corrected.OriginText.Content

	o.repo.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		qa.UpsertObject(corrected)
		if newContent != prevContent {
			qa.Answer = replaceLast(qa.Answer, prevContent, newContent)
		}
		qa.Synced.AnswerObjectIDsHighlightedTemp = common.RemoveID(qa.Synced.AnswerObjectIDsHighlightedTemp, objectID)
	})
	return nil
}

// selfCorrect runs one correction pass over obj. Every sentence with orphan
// entities or dangling relationships is re-annotated by the model in
// parallel; clean sentences are left alone. The returned object is
// re-parsed from the spliced content.
func (o *Orchestrator) selfCorrect(ctx context.Context, qaID string, obj common.AnswerObject) (common.AnswerObject, error) {
	content := obj.OriginText.Content

	var faulty []faultySentence
	for _, s := range annotation.SplitSentences(content) {
		issues := annotation.AnalyzeSentence(s, obj.OriginText.NodeEntities, obj.OriginText.EdgeEntities)
		if !issues.Empty() {
			faulty = append(faulty, faultySentence{sentence: s, issues: issues})
		}
	}
	if len(faulty) == 0 {
		return obj, nil
	}

	texts := make([]string, len(faulty))
	for i, f := range faulty {
		texts[i] = f.sentence.Text
	}
	o.setSentencesBeingCorrected(qaID, obj, texts)

	qa, _ := o.repo.Get(qaID)
	prev := conversation(qa)

	corrections := make([]string, len(faulty))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.ParallelRequests)
	for i, f := range faulty {
		g.Go(func() error {
			var res ai.CorrectionResponse
			err := o.client.GenerateCompletionWithFormat(
				gctx,
				"sentence_correction",
				"The re-annotated sentence",
				ai.SelfCorrectionPrompts(prev, f.sentence.Text, f.issues.OrphanLabels(), f.issues.DanglingAnnotations()),
				&res,
				ai.WithModel(o.cfg.ParsingModel),
				ai.WithTemperature(parsingTemperature),
				ai.WithMaxTokens(completionMaxTokens),
			)
			if err != nil {
				return err
			}
			corrections[i] = strings.TrimSpace(res.Sentence)
			return nil
		})
	}
	err := g.Wait()

	obj.Synced.SentencesBeingCorrected = []string{}
	if err != nil {
		return obj, err
	}

	// sentences are in text order, so splicing from the end keeps the
	// ranges of the remaining ones valid
	for i := len(faulty) - 1; i >= 0; i-- {
		if corrections[i] == "" {
			continue
		}
		r := faulty[i].sentence.Range
		content = content[:r.Start] + corrections[i] + content[r.End+1:]
	}
	logger.Debug("[Answer] sentences corrected", "qa", qaID, "object", obj.ID, "count", len(faulty))

	obj.OriginText = annotation.Parse(annotation.Normalize(content), obj.ID)
	return obj, nil
}

func (o *Orchestrator) setSentencesBeingCorrected(qaID string, obj common.AnswerObject, texts []string) {
	obj.Synced.SentencesBeingCorrected = texts
	o.repo.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		if i := qa.ObjectIndex(obj.ID); i >= 0 {
			qa.AnswerObjects[i].Synced.SentencesBeingCorrected = texts
			return
		}
		qa.UpsertObject(obj)
	})
}
