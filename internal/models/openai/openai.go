// Package openai adapts OpenAI chat models to the writer.Model interface.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

const maxOutputTokens = 4096

// Model implements writer.Model for OpenAI's GPT models.
type Model struct {
	client    *openai.Client
	modelName string
	log       logger.Logger
}

// New creates an OpenAI-backed model.
func New(apiKey, modelName string, log logger.Logger) (*Model, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}
	if modelName == "" {
		return nil, errors.New("model name is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &Model{
		client:    &client,
		modelName: modelName,
		log:       log.WithFields(logger.StringField("model", modelName)),
	}, nil
}

// Name returns the configured model name.
func (m *Model) Name() string {
	return m.modelName
}

// Generate runs one chat completion and returns the first choice's text.
func (m *Model) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	m.log.Debug("Sending request to openai",
		logger.IntField("prompt_chars", len(prompt)))

	completion, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     m.modelName,
		MaxTokens: openai.Int(maxOutputTokens),
		Messages:  messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	text := completion.Choices[0].Message.Content
	if text == "" {
		return "", errors.New("openai response contained no text")
	}
	return text, nil
}
