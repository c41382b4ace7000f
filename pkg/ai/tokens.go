package ai

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	tokenEncoding = "o200k_base"

	// Tokens reserved for role markers and message framing.
	promptOverheadTokens = 200

	// DefaultContextSize is the smallest context window requested from local models.
	DefaultContextSize = 4096
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(tokenEncoding)
	})
	return enc, encErr
}

// CountTokens returns the number of tokens of text.
func CountTokens(text string) (int, error) {
	e, err := encoding()
	if err != nil {
		return 0, err
	}
	return len(e.Encode(text, nil, nil)), nil
}

// CountPromptTokens estimates the prompt size of a conversation including framing overhead.
func CountPromptTokens(prompts []Prompt) (int, error) {
	total := promptOverheadTokens
	for _, p := range prompts {
		n, err := CountTokens(p.Content)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// ContextSize returns the context window needed for prompts plus maxTokens of output,
// never less than DefaultContextSize.
func ContextSize(prompts []Prompt, maxTokens int) (int, error) {
	n, err := CountPromptTokens(prompts)
	if err != nil {
		return 0, err
	}
	n += maxTokens
	if n < DefaultContextSize {
		return DefaultContextSize, nil
	}
	return n, nil
}
