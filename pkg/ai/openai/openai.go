package openai

import (
	"math"
	"sync"

	"github.com/OFFIS-RIT/annograph/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client implements ai.ModelClient on top of an OpenAI compatible chat
// completion endpoint.
//
// A Client should be created using NewClient.
type Client struct {
	responseModel string
	parsingModel  string

	chatURL string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewClientParams defines the configuration parameters for creating a new Client.
//
// ResponseModel answers questions and follow-ups (streamed).
// ParsingModel produces summaries, slides and corrections.
// ChatURL and ChatKey configure the chat/completion API endpoint; an empty
// ChatURL targets the public OpenAI API.
type NewClientParams struct {
	ResponseModel string
	ParsingModel  string

	ChatURL string
	ChatKey string
}

// NewClient creates and returns a new Client configured with the provided parameters.
//
// Example:
//
//	client := openai.NewClient(openai.NewClientParams{
//		ResponseModel: "gpt-4o",
//		ParsingModel:  "gpt-4o-mini",
//		ChatKey:       os.Getenv("AI_CHAT_KEY"),
//	})
func NewClient(params NewClientParams) *Client {
	parsing := params.ParsingModel
	if parsing == "" {
		parsing = params.ResponseModel
	}

	return &Client{
		responseModel: params.ResponseModel,
		parsingModel:  parsing,
		chatURL:       params.ChatURL,
		ChatClient:    newOpenaiClient(params.ChatURL, params.ChatKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (c *Client) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = ai.ModelMetrics{}
	c.metricsLock.Unlock()
}

// GetMetrics returns the accumulated token usage and timing metrics since the last reset.
func (c *Client) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *Client) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs

	if c.metrics.DurationMs > 0 {
		tokensPerSecond := (float64(c.metrics.TotalTokens) * 1000.0) / float64(c.metrics.DurationMs)
		c.metrics.TokenPerSecond = float32(math.Round(tokensPerSecond*100) / 100)
	}
}
