package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/hyperjump/lessonforge/pkg/utils"
)

// Settings configures the OpenAI-compatible client.
type Settings struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// OpenAIClient implements Client with the chat completions API.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewOpenAIClient validates s and returns a client. The SDK's own retries are
// disabled; callers decide whether to retry.
func NewOpenAIClient(s Settings, logger *zap.Logger) (*OpenAIClient, error) {
	if s.APIKey == "" {
		return nil, errors.New("openai api key missing; set completion.api_key or OPENAI_API_KEY")
	}
	if s.Model == "" {
		return nil, errors.New("completion model is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	if s.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(s.Timeout))
	}
	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		model:       s.Model,
		temperature: s.Temperature,
		logger:      utils.OrNop(logger),
	}, nil
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Err: fmt.Errorf("%w: no choices", ErrEmptyCompletion)}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &Error{Err: fmt.Errorf("%w: finish reason %q", ErrEmptyCompletion, resp.Choices[0].FinishReason)}
	}
	c.logger.Debug("completion received",
		zap.String("model", resp.Model),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("took", time.Since(start)),
	)
	return content, nil
}

func classify(ctx context.Context, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &Error{StatusCode: apiErr.StatusCode, Retryable: retryableStatus(apiErr.StatusCode), Err: err}
	}
	if ctx.Err() != nil {
		return &Error{Err: err}
	}
	return &Error{Retryable: true, Err: err}
}
