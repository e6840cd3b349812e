package oracle

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sinavlab/grader/internal/oracle/prompts"
)

// Client scores answer pairs through an OpenAI-compatible chat completion
// endpoint, such as the one Ollama exposes.
type Client struct {
	api     *openai.Client
	model   string
	verbal  prompts.Variant
	timeout time.Duration
}

// New creates an API-backed oracle client. The verbal variant picks the
// banding guidance used for non-numeric questions.
func New(baseURL, apiKey, modelName string, verbal prompts.Variant) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		verbal:  verbal,
		timeout: DefaultTimeout,
	}
}

// Score judges the equivalence of a normalized correct/student answer pair,
// returning 0-100. Failures resolve to 0.
func (c *Client) Score(ctx context.Context, correct, student string, numeric bool) int {
	prompt, err := buildPrompt(c.verbal, correct, student, numeric)
	if err != nil {
		logFailure("api", err)
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		logFailure("api", err)
		return 0
	}
	if len(resp.Choices) == 0 {
		logFailure("api", errors.New("no choices in response"))
		return 0
	}

	return parseScore(resp.Choices[0].Message.Content)
}
