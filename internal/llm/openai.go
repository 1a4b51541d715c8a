package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// openAIInvoker goes through the official SDK rather than raw HTTP; the SDK
// carries its own request shaping and error envelope.
type openAIInvoker struct {
	attemptTimeout time.Duration
}

func newOpenAIInvoker(attemptTimeout time.Duration) *openAIInvoker {
	return &openAIInvoker{attemptTimeout: attemptTimeout}
}

func (o *openAIInvoker) Invoke(ctx context.Context, cfg ProviderConfig, prompt string) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	completion, err := client.Chat.Completions.New(attemptCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(chatTemperature),
		MaxTokens:   openai.Int(chatMaxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", classify(cfg.Provider, apiErr.StatusCode, err)
		}
		return "", classify(cfg.Provider, 0, err)
	}
	if len(completion.Choices) == 0 {
		return "", classify(cfg.Provider, 0, fmt.Errorf("response missing choices"))
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", classify(cfg.Provider, 0, fmt.Errorf("response empty content"))
	}
	return content, nil
}
