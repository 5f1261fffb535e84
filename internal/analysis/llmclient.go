package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"podtext/internal/ports"
)

// DefaultLLMTimeout is the per-call LLM timeout used when a caller
// doesn't override it.
const DefaultLLMTimeout = 60 * time.Second

// openaiLLMClient implements ports.LLMClient against an Anthropic-compatible
// chat completions endpoint via openai.NewClient(option.WithBaseURL(...))
// and client.Chat.Completions.New. Engine issues four independent calls
// per episode, so the timeout is applied per call rather than once for
// the whole command.
type openaiLLMClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient builds an LLMClient pointed at baseURL with apiKey and
// model, as resolved by the config package's api.anthropic_key /
// analysis.claude_model settings.
func NewOpenAIClient(baseURL, apiKey, model string) ports.LLMClient {
	opts := []option.RequestOption{option.WithBaseURL(baseURL)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &openaiLLMClient{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: DefaultLLMTimeout,
	}
}

func (c *openaiLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := c.client.Chat.Completions.New(timeoutCtx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: c.model,
	})
	if err != nil {
		return "", fmt.Errorf("llm completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("llm returned empty content")
	}
	return content, nil
}
