package translator

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
	openai "github.com/sashabaranov/go-openai"
)

const maxTokens = 500

type openAITranslator struct {
	client *openai.Client
	cfg    Config
	logger *slog.Logger
}

func newOpenAI(cfg Config, logger *slog.Logger) *openAITranslator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAITranslator{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}
}

// Generate asks the model for a query. Provider failures and unusable
// replies are *core.TranslatorError.
func (t *openAITranslator) Generate(ctx context.Context, question string, schema *core.ProjectSchema) (*core.Translation, error) {
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildPrompt(schema, t.cfg.Dialect)},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		// A zero temperature is dropped by omitempty.
		Temperature: math.SmallestNonzeroFloat32,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, &core.TranslatorError{Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &core.TranslatorError{Err: errors.New("LLM returned empty response")}
	}

	tr, err := ParseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if tr.Degraded {
		t.logger.Warn("translator reply was not JSON, using extracted SQL", slog.String("model", t.cfg.Model))
	}
	return tr, nil
}
