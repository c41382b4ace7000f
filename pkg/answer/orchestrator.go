package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"
	"github.com/OFFIS-RIT/annograph/backend/pkg/annotation"
	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

// ErrModelError is returned by every expansion while the question carries
// a model error. ClearModelError resets it.
var ErrModelError = errors.New("question has a pending model error")

const (
	responseTemperature = 0.7
	parsingTemperature  = 0.3
	streamMaxTokens     = 2048
	parsingMaxTokens    = 2048
	completionMaxTokens = 1024
)

// ExpandMode selects what ExpandNode asks the model for.
type ExpandMode string

const (
	ExpandExplain  ExpandMode = "explain"
	ExpandExamples ExpandMode = "examples"
)

// Config configures an Orchestrator.
type Config struct {
	// ResponseModel streams answers, empty uses the client default.
	ResponseModel string
	// ParsingModel writes summaries, slides and corrections.
	ParsingModel string
	// SelfCorrection re-annotates faulty sentences before summarizing.
	SelfCorrection bool
	// ParallelRequests bounds concurrent correction requests per object.
	ParallelRequests int
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithOnComplete registers fn to run after an expansion finished successfully.
func WithOnComplete(fn func(qaID string)) Option {
	return func(o *Orchestrator) {
		o.onComplete = fn
	}
}

// WithOnDelta registers fn to receive every stream delta applied to an answer object.
func WithOnDelta(fn func(qaID, objectID, delta string)) Option {
	return func(o *Orchestrator) {
		o.onDelta = fn
	}
}

// WithIDGenerator replaces the id generator for questions and answer objects.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(o *Orchestrator) {
		o.newID = fn
	}
}

// Orchestrator runs expansion requests against the model and publishes
// their results to the repository.
type Orchestrator struct {
	repo   *Repository
	client ai.ModelClient
	cfg    Config

	newID      func() (string, error)
	onComplete func(qaID string)
	onDelta    func(qaID, objectID, delta string)

	wg sync.WaitGroup
}

// NewOrchestrator creates an Orchestrator publishing to repo.
func NewOrchestrator(repo *Repository, client ai.ModelClient, cfg Config, opts ...Option) *Orchestrator {
	if cfg.ParallelRequests <= 0 {
		cfg.ParallelRequests = 4
	}
	o := &Orchestrator{
		repo:   repo,
		client: client,
		cfg:    cfg,
		newID: func() (string, error) {
			return gonanoid.New()
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Repository returns the repository results are published to.
func (o *Orchestrator) Repository() *Repository {
	return o.repo
}

// Go runs fn in the background. Errors are logged; Wait blocks until all
// background requests returned.
func (o *Orchestrator) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := fn(ctx); err != nil {
			logger.Error("[Answer] request failed", "request", name, "err", err)
		}
	}()
}

// Wait blocks until every request started with Go returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// CreateQuestion adds a new question without answering it.
func (o *Orchestrator) CreateQuestion(question string) (common.QuestionAndAnswer, error) {
	id, err := o.newID()
	if err != nil {
		return common.QuestionAndAnswer{}, fmt.Errorf("failed to generate id: %w", err)
	}

	qa := common.NewQuestionAndAnswer(id, question)
	qa.ModelStatus.ModelInitialPrompts = ai.InitialAskPrompts(question)
	o.repo.Add(qa)

	return qa, nil
}

// Ask adds a new question and streams its answer.
func (o *Orchestrator) Ask(ctx context.Context, question string) (string, error) {
	qa, err := o.CreateQuestion(question)
	if err != nil {
		return "", err
	}
	return qa.ID, o.Answer(ctx, qa.ID)
}

// Answer streams the answer of a question created with CreateQuestion.
func (o *Orchestrator) Answer(ctx context.Context, qaID string) error {
	qa, ok, err := o.guard(qaID)
	if err != nil || !ok {
		return err
	}
	return o.runFresh(ctx, qaID, qa.ModelStatus.ModelInitialPrompts)
}

// AddParagraph asks the model for one more paragraph.
func (o *Orchestrator) AddParagraph(ctx context.Context, qaID string) error {
	qa, ok, err := o.guard(qaID)
	if err != nil || !ok {
		return err
	}
	return o.runFresh(ctx, qaID, ai.MoreParagraphPrompts(conversation(qa)))
}

// TellMore asks the model to continue one answer object.
func (o *Orchestrator) TellMore(ctx context.Context, qaID, objectID string) error {
	qa, ok, err := o.guard(qaID)
	if err != nil || !ok {
		return err
	}
	obj, ok := qa.Object(objectID)
	if !ok {
		return nil
	}

	next := annotation.MaxEntityNumber(obj.OriginText.Content) + 1
	prompts := ai.MoreSentencesPrompts(conversation(qa), obj.OriginText.Content, next)
	return o.runExisting(ctx, qa, obj, KindTellMore, "", prompts)
}

// ExpandNode asks the model to explain an entity or to give examples of it.
// The result is appended to the answer object the entity belongs to.
func (o *Orchestrator) ExpandNode(ctx context.Context, qaID, objectID, nodeID string, mode ExpandMode) error {
	qa, ok, err := o.guard(qaID)
	if err != nil || !ok {
		return err
	}
	obj, ok := qa.Object(objectID)
	if !ok {
		return nil
	}
	node, ok := obj.OriginText.FindNode(nodeID)
	if !ok {
		return nil
	}

	sentence := sentenceOf(obj.OriginText.Content, node)
	prev := conversation(qa)
	next := annotation.MaxEntityNumber(obj.OriginText.Content) + 1

	switch mode {
	case ExpandExamples:
		return o.runExisting(ctx, qa, obj, KindNodeExamples, nodeID, ai.NodeExamplesPrompts(prev, sentence, node.DisplayLabel, next))
	case ExpandExplain, "":
		return o.runExisting(ctx, qa, obj, KindNodeExpand, nodeID, ai.NodeExpandPrompts(prev, sentence, node.DisplayLabel, next))
	}
	return fmt.Errorf("unknown expand mode %q", mode)
}

// ClearModelError resets the model error of a question.
func (o *Orchestrator) ClearModelError(qaID string) bool {
	return o.repo.ClearModelError(qaID)
}

func (o *Orchestrator) guard(qaID string) (common.QuestionAndAnswer, bool, error) {
	qa, ok := o.repo.Get(qaID)
	if !ok {
		logger.Debug("[Answer] question not found", "qa", qaID)
		return qa, false, nil
	}
	if qa.ModelStatus.ModelError {
		return qa, true, ErrModelError
	}
	return qa, true, nil
}

func (o *Orchestrator) runFresh(ctx context.Context, qaID string, prompts []ai.Prompt) error {
	id, err := o.newID()
	if err != nil {
		return fmt.Errorf("failed to generate id: %w", err)
	}
	exp := &Expansion{ID: id, QAID: qaID, Kind: KindParagraph}
	if err := o.startParagraph(exp); err != nil {
		return err
	}
	return o.run(ctx, exp, prompts)
}

func (o *Orchestrator) runExisting(
	ctx context.Context,
	qa common.QuestionAndAnswer,
	obj common.AnswerObject,
	kind Kind,
	nodeID string,
	prompts []ai.Prompt,
) error {
	id, err := o.newID()
	if err != nil {
		return fmt.Errorf("failed to generate id: %w", err)
	}

	exp := &Expansion{ID: id, QAID: qa.ID, Kind: kind, NodeID: nodeID}
	exp.begin(obj, qa.Answer)

	o.repo.UpdateByID(qa.ID, func(qa *common.QuestionAndAnswer) {
		qa.Synced.AnswerObjectIDsHighlightedTemp = common.AddID(qa.Synced.AnswerObjectIDsHighlightedTemp, obj.ID)
		if nodeID != "" {
			qa.Synced.HighlightedNodeIDsProcessing = common.AddID(qa.Synced.HighlightedNodeIDsProcessing, nodeID)
		}
	})

	return o.run(ctx, exp, prompts)
}

// run drives one expansion from streaming to complete or error.
func (o *Orchestrator) run(ctx context.Context, exp *Expansion, prompts []ai.Prompt) error {
	logger.Info("[Answer] expansion started", "qa", exp.QAID, "expansion", exp.ID, "kind", exp.Kind)

	if exp.NodeID != "" {
		defer o.repo.UpdateByID(exp.QAID, func(qa *common.QuestionAndAnswer) {
			qa.Synced.HighlightedNodeIDsProcessing = common.RemoveID(qa.Synced.HighlightedNodeIDsProcessing, exp.NodeID)
		})
	}

	o.setStatus(exp.QAID, func(s *common.ModelStatus) {
		s.ModelAnswering = true
		s.ModelAnsweringComplete = false
		s.ModelParsingComplete = false
	})

	events, err := o.client.GenerateStream(
		ctx,
		prompts,
		ai.WithModel(o.cfg.ResponseModel),
		ai.WithTemperature(responseTemperature),
		ai.WithMaxTokens(streamMaxTokens),
	)
	if err != nil {
		return o.fail(exp, err)
	}

	var followups errgroup.Group
	onParagraph := func(draft common.AnswerObject) {
		followups.Go(func() error {
			return o.followups(ctx, exp.QAID, draft)
		})
	}

	var streamErr error
	for ev := range events {
		if streamErr != nil {
			continue
		}
		switch ev.Type {
		case ai.StreamEventError:
			streamErr = ev.Err
		case ai.StreamEventContent:
			streamErr = o.applyDelta(exp, ev.Content, onParagraph)
		}
	}
	if streamErr == nil && ctx.Err() != nil {
		streamErr = ctx.Err()
	}
	if streamErr != nil {
		_ = followups.Wait()
		return o.fail(exp, streamErr)
	}

	hasDraft := strings.TrimSpace(exp.Draft.OriginText.Content) != ""
	o.setStatus(exp.QAID, func(s *common.ModelStatus) {
		s.ModelAnswering = false
		s.ModelAnsweringComplete = true
		if hasDraft {
			s.ModelParsing = true
		}
	})

	exp.Phase = PhaseParsingFollowups
	if hasDraft {
		onParagraph(exp.Draft.Clone())
	} else {
		o.repo.UpdateByID(exp.QAID, func(qa *common.QuestionAndAnswer) {
			qa.Synced.AnswerObjectIDsHighlightedTemp = common.RemoveID(qa.Synced.AnswerObjectIDsHighlightedTemp, exp.Draft.ID)
			if len(qa.Synced.AnswerObjectIDsHighlightedTemp) == 0 {
				qa.ModelStatus.ModelParsingComplete = true
			}
		})
	}

	if err := followups.Wait(); err != nil {
		exp.Phase = PhaseError
		exp.Err = err
		return err
	}

	exp.Phase = PhaseComplete
	logger.Info("[Answer] expansion complete", "qa", exp.QAID, "expansion", exp.ID)
	if o.onComplete != nil {
		o.onComplete(exp.QAID)
	}
	return nil
}

// followups normalizes, optionally corrects, summarizes and finalizes one
// finished draft.
func (o *Orchestrator) followups(ctx context.Context, qaID string, draft common.AnswerObject) error {
	o.setStatus(qaID, func(s *common.ModelStatus) {
		s.ModelParsing = true
		s.ModelParsingComplete = false
	})

	prevContent := draft.OriginText.Content
	draft.OriginText = annotation.Parse(annotation.Normalize(prevContent), draft.ID)

	if o.cfg.SelfCorrection {
		corrected, err := o.selfCorrect(ctx, qaID, draft)
		if err != nil {
			return o.failObject(qaID, draft.ID, fmt.Errorf("self-correction: %w", err))
		}
		draft = corrected
	}

	summary, slide, err := o.summarize(ctx, draft)
	if err != nil {
		return o.failObject(qaID, draft.ID, err)
	}

	draft.Summary = summary
	draft.Slide = slide
	draft.Complete = true
	draft.Synced.SentencesBeingCorrected = []string{}
	newContent := draft.OriginText.Content

	o.repo.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		qa.UpsertObject(draft)
		if newContent != prevContent {
			qa.Answer = replaceLast(qa.Answer, prevContent, newContent)
		}
		qa.Synced.AnswerObjectIDsHighlightedTemp = common.RemoveID(qa.Synced.AnswerObjectIDsHighlightedTemp, draft.ID)
		if len(qa.Synced.AnswerObjectIDsHighlightedTemp) == 0 {
			qa.ModelStatus.ModelParsing = false
			qa.ModelStatus.ModelParsingComplete = true
		}
	})

	logger.Debug("[Answer] answer object complete", "qa", qaID, "object", draft.ID)
	return nil
}

// summarize requests the summary and the slide of a draft concurrently.
// Both must succeed.
func (o *Orchestrator) summarize(ctx context.Context, draft common.AnswerObject) (common.AnnotatedText, common.Slide, error) {
	content := draft.OriginText.Content

	var (
		summary common.AnnotatedText
		slide   common.Slide
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := o.client.GenerateCompletion(
			gctx,
			ai.SummarizeParagraphPrompts(content),
			ai.WithModel(o.cfg.ParsingModel),
			ai.WithTemperature(parsingTemperature),
			ai.WithMaxTokens(parsingMaxTokens),
		)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		summary = annotation.Parse(annotation.Normalize(strings.TrimSpace(text)), draft.ID)
		return nil
	})
	g.Go(func() error {
		text, err := o.client.GenerateCompletion(
			gctx,
			ai.SlideMarkdownPrompts(annotation.StripAnnotations(content)),
			ai.WithModel(o.cfg.ParsingModel),
			ai.WithTemperature(parsingTemperature),
			ai.WithMaxTokens(parsingMaxTokens),
		)
		if err != nil {
			return fmt.Errorf("slide: %w", err)
		}
		slide = common.Slide{Content: strings.TrimSpace(text)}
		return nil
	})

	if err := g.Wait(); err != nil {
		return common.AnnotatedText{}, common.Slide{}, err
	}
	return summary, slide, nil
}

// fail moves a streaming expansion to the error phase. Content received so
// far stays published.
func (o *Orchestrator) fail(exp *Expansion, err error) error {
	exp.Phase = PhaseError
	exp.Err = err
	logger.Error("[Answer] expansion failed", "qa", exp.QAID, "expansion", exp.ID, "err", err)

	o.repo.UpdateByID(exp.QAID, func(qa *common.QuestionAndAnswer) {
		qa.Synced.AnswerObjectIDsHighlightedTemp = common.RemoveID(qa.Synced.AnswerObjectIDsHighlightedTemp, exp.Draft.ID)
		qa.ModelStatus.ModelError = true
		qa.ModelStatus.ModelAnswering = false
		qa.ModelStatus.ModelParsing = false
	})
	return fmt.Errorf("expansion %s: %w", exp.Kind, err)
}

func (o *Orchestrator) failObject(qaID, objectID string, err error) error {
	logger.Error("[Answer] parsing failed", "qa", qaID, "object", objectID, "err", err)

	o.repo.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		qa.Synced.AnswerObjectIDsHighlightedTemp = common.RemoveID(qa.Synced.AnswerObjectIDsHighlightedTemp, objectID)
		if i := qa.ObjectIndex(objectID); i >= 0 {
			qa.AnswerObjects[i].Synced.SentencesBeingCorrected = []string{}
		}
		qa.ModelStatus.ModelError = true
		qa.ModelStatus.ModelParsing = false
	})
	return err
}

func (o *Orchestrator) setStatus(qaID string, fn func(s *common.ModelStatus)) {
	o.repo.UpdateByID(qaID, func(qa *common.QuestionAndAnswer) {
		fn(&qa.ModelStatus)
	})
}

func replaceLast(s, old, new string) string {
	i := strings.LastIndex(s, old)
	if i < 0 || old == "" {
		return s
	}
	return s[:i] + new + s[i+len(old):]
}

// conversation returns the prompts that produced the current answer
// followed by the answer itself.
func conversation(qa common.QuestionAndAnswer) []ai.Prompt {
	prev := make([]ai.Prompt, 0, len(qa.ModelStatus.ModelInitialPrompts)+1)
	prev = append(prev, qa.ModelStatus.ModelInitialPrompts...)
	if qa.Answer != "" {
		prev = append(prev, ai.AssistantPrompt(qa.Answer))
	}
	return prev
}

// sentenceOf returns the sentence containing the first mention of node.
func sentenceOf(content string, node common.NodeEntity) string {
	if len(node.Individuals) == 0 {
		return content
	}
	r := node.Individuals[0].OriginRange
	for _, s := range annotation.SplitSentences(content) {
		if r.Within(s.Range) {
			return s.Text
		}
	}
	return content
}
