// Package anthropic adapts Anthropic Claude models to the writer.Model
// interface.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

const maxOutputTokens = 4000

// Model implements writer.Model for Anthropic Claude models.
type Model struct {
	client    anthropic.Client
	modelName string
	log       logger.Logger
}

// New creates a Claude-backed model. An empty model name selects a
// current Sonnet.
func New(apiKey, modelName string, log logger.Logger, opts ...option.RequestOption) (*Model, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if modelName == "" {
		modelName = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}

	client := anthropic.NewClient(
		append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...,
	)

	return &Model{
		client:    client,
		modelName: modelName,
		log:       log.WithFields(logger.StringField("model", modelName)),
	}, nil
}

// Name returns the configured model name.
func (m *Model) Name() string {
	return m.modelName
}

// Generate sends one user message under the system instruction and
// returns the concatenated text blocks of the reply.
func (m *Model) Generate(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.modelName),
		MaxTokens: maxOutputTokens,
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					{OfText: &anthropic.TextBlockParam{Text: prompt}},
				},
			},
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	m.log.Debug("Sending request to anthropic",
		logger.IntField("prompt_chars", len(prompt)))

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var parts []string
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, text.Text)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("claude response contained no text blocks")
	}
	return strings.Join(parts, "\n"), nil
}
