package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"
	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"

	"github.com/openai/openai-go/v3"
)

func toMessages(prompts []ai.Prompt) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(prompts))
	for _, p := range prompts {
		switch p.Role {
		case ai.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(p.Content))
		case ai.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(p.Content))
		default:
			msgs = append(msgs, openai.UserMessage(p.Content))
		}
	}
	return msgs
}

func (c *Client) newParams(prompts []ai.Prompt, options ai.GenerateOptions) openai.ChatCompletionNewParams {
	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    toMessages(prompts),
		Temperature: openai.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		body.MaxCompletionTokens = openai.Int(int64(options.MaxTokens))
	}
	return body
}

// GenerateCompletion sends the conversation to the chat model and returns the
// generated completion as plain text.
//
// Example:
//
//	resp, err := client.GenerateCompletion(ctx, ai.SlideMarkdownPrompts(text))
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(resp)
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

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, c.newParams(prompts, options))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	duration := time.Since(start).Milliseconds()

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	if len(response.Choices) == 0 {
		return "", errors.New("no choices in response from model")
	}
	return response.Choices[0].Message.Content, nil
}

// GenerateCompletionWithFormat sends the conversation to the chat model and
// unmarshals the response into out, using a JSON schema derived from out to
// enforce structure.
//
// Example:
//
//	var out ai.CorrectionResponse
//	err := client.GenerateCompletionWithFormat(ctx, "correction", "Re-annotated sentence", prompts, &out)
func (c *Client) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompts []ai.Prompt,
	out any,
	opts ...ai.GenerateOption,
) error {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      ai.GenerateSchema(out),
		Strict:      openai.Bool(true),
	}

	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.parsingModel,
		Temperature: 0.3,
		MaxTokens:   1024,
	}, opts...)

	body := c.newParams(prompts, options)
	body.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: schemaParam,
		},
	}

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	duration := time.Since(start).Milliseconds()

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	})

	if len(response.Choices) == 0 {
		return errors.New("no choices in response from model")
	}
	message := response.Choices[0].Message.Content
	if message == "" {
		return fmt.Errorf("empty response from model (finish_reason: %s)", response.Choices[0].FinishReason)
	}
	return ai.UnmarshalFlexible(message, out)
}

// GenerateStream sends the conversation to the model and returns a channel
// that streams the reply incrementally.
//
// The returned channel is closed when the stream ends or the context is
// canceled. A transport failure is delivered as a final "error" event.
//
// Example:
//
//	stream, err := client.GenerateStream(ctx, ai.InitialAskPrompts(question))
//	if err != nil {
//		log.Fatal(err)
//	}
//	for ev := range stream {
//		fmt.Print(ev.Content)
//	}
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

	body := c.newParams(prompts, options)
	body.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	logger.Debug("[AI] streaming", "model", options.Model, "prompts", len(prompts))

	start := time.Now()
	stream := c.ChatClient.Chat.Completions.NewStreaming(ctx, body)
	contentChan := make(chan ai.StreamEvent, 10)

	go func() {
		defer close(contentChan)
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				select {
				case contentChan <- ai.StreamEvent{Type: ai.StreamEventContent, Content: chunk.Choices[0].Delta.Content}:
				case <-ctx.Done():
					return
				}
			}
		}

		c.modifyMetrics(ai.ModelMetrics{
			InputTokens:  int(acc.Usage.PromptTokens),
			OutputTokens: int(acc.Usage.CompletionTokens),
			TotalTokens:  int(acc.Usage.TotalTokens),
			DurationMs:   time.Since(start).Milliseconds(),
		})

		if err := stream.Err(); err != nil {
			logger.Error("[AI] stream failed", "model", options.Model, "err", err)
			select {
			case contentChan <- ai.StreamEvent{Type: ai.StreamEventError, Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return contentChan, nil
}
