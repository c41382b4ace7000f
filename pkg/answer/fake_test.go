package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"
)

// fakeClient replays a fixed stream and answers completions by prompt kind.
type fakeClient struct {
	mu sync.Mutex

	stream    []ai.StreamEvent
	streamErr error

	summary    string
	slide      string
	summaryErr error
	correction string

	streamPrompts     [][]ai.Prompt
	completionCalls   int
	corrections       []string
	correctionPrompts [][]ai.Prompt
}

func (f *fakeClient) GenerateCompletion(ctx context.Context, prompts []ai.Prompt, opts ...ai.GenerateOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completionCalls++

	switch prompts[0].Content {
	case ai.SummarizeParagraphPrompt:
		if f.summaryErr != nil {
			return "", f.summaryErr
		}
		return f.summary, nil
	case ai.SlideMarkdownPrompt:
		return f.slide, nil
	}
	return "", fmt.Errorf("unexpected prompt %q", prompts[0].Content)
}

func (f *fakeClient) GenerateCompletionWithFormat(ctx context.Context, name, description string, prompts []ai.Prompt, out any, opts ...ai.GenerateOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.correctionPrompts = append(f.correctionPrompts, prompts)
	f.corrections = append(f.corrections, prompts[len(prompts)-1].Content)

	b, err := json.Marshal(ai.CorrectionResponse{Sentence: f.correction})
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (f *fakeClient) GenerateStream(ctx context.Context, prompts []ai.Prompt, opts ...ai.GenerateOption) (<-chan ai.StreamEvent, error) {
	f.mu.Lock()
	f.streamPrompts = append(f.streamPrompts, prompts)
	events := f.stream
	err := f.streamErr
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}

	ch := make(chan ai.StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (f *fakeClient) ResetMetrics() {}

func (f *fakeClient) GetMetrics() ai.ModelMetrics {
	return ai.ModelMetrics{}
}

func content(deltas ...string) []ai.StreamEvent {
	events := make([]ai.StreamEvent, len(deltas))
	for i, d := range deltas {
		events[i] = ai.StreamEvent{Type: ai.StreamEventContent, Content: d}
	}
	return events
}

// sequentialIDs returns "id-1", "id-2", ...
func sequentialIDs() func() (string, error) {
	var n atomic.Int64
	return func() (string, error) {
		return fmt.Sprintf("id-%d", n.Add(1)), nil
	}
}

func newTestOrchestrator(client *fakeClient, cfg Config) *Orchestrator {
	return NewOrchestrator(NewRepository(), client, cfg, WithIDGenerator(sequentialIDs()))
}
