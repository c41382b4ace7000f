package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"

	"github.com/ollama/ollama/api"
)

func toMessages(prompts []ai.Prompt) []api.Message {
	msgs := make([]api.Message, 0, len(prompts))
	for _, p := range prompts {
		role := p.Role
		if role == "" {
			role = ai.RoleUser
		}
		msgs = append(msgs, api.Message{Role: role, Content: p.Content})
	}
	return msgs
}

func (c *Client) newRequest(prompts []ai.Prompt, options ai.GenerateOptions, stream bool) (*api.ChatRequest, error) {
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: toMessages(prompts),
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}
	if options.MaxTokens > 0 {
		req.Options["num_predict"] = options.MaxTokens
	}

	numCtx, err := ai.ContextSize(prompts, options.MaxTokens)
	if err != nil {
		return nil, err
	}
	if numCtx > ai.DefaultContextSize {
		req.Options["num_ctx"] = numCtx
	}
	return req, nil
}

func (c *Client) chat(ctx context.Context, req *api.ChatRequest) (string, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	c.record(final.Metrics)
	return final.Message.Content, nil
}

// GenerateCompletion sends the conversation and returns the assistant text.
func (c *Client) GenerateCompletion(
	ctx context.Context,
	prompts []ai.Prompt,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.parsingModel,
		Temperature: 0.3,
		MaxTokens:   1024,
	}, opts...)

	req, err := c.newRequest(prompts, options, false)
	if err != nil {
		return "", err
	}
	return c.chat(ctx, req)
}

// GenerateCompletionWithFormat enforces a JSON schema and unmarshals into out.
func (c *Client) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompts []ai.Prompt,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	formatBytes, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}

	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.parsingModel,
		Temperature: 0.3,
		MaxTokens:   1024,
	}, opts...)

	req, err := c.newRequest(prompts, options, false)
	if err != nil {
		return err
	}
	req.Format = json.RawMessage(formatBytes)

	content, err := c.chat(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return ai.UnmarshalFlexible(content, out)
}

// GenerateStream streams the assistant reply incrementally. A failure of the
// underlying request is delivered as the last event of the channel.
func (c *Client) GenerateStream(
	ctx context.Context,
	prompts []ai.Prompt,
	opts ...ai.GenerateOption,
) (<-chan ai.StreamEvent, error) {
	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.responseModel,
		Temperature: 0.7,
		MaxTokens:   2048,
	}, opts...)

	req, err := c.newRequest(prompts, options, true)
	if err != nil {
		return nil, err
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	out := make(chan ai.StreamEvent, 16)

	go func() {
		defer close(out)
		defer c.reqLock.Release(1)

		err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
			if s := cr.Message.Content; s != "" {
				select {
				case out <- ai.StreamEvent{Type: ai.StreamEventContent, Content: s}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if cr.Done {
				c.record(cr.Metrics)
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			out <- ai.StreamEvent{Type: ai.StreamEventError, Err: fmt.Errorf("ollama chat: %w", err)}
		}
	}()

	return out, nil
}
