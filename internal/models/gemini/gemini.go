// Package gemini adapts Google Gemini models to the writer.Model
// interface.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/enviweather/envi-advisor/pkg/logger"
)

const defaultModel = "gemini-2.5-flash"

// Model implements writer.Model for Gemini models via the Gemini API.
type Model struct {
	client    *genai.Client
	modelName string
	log       logger.Logger
}

// New creates a Gemini-backed model. An empty model name selects the
// default flash model.
func New(ctx context.Context, apiKey, modelName string, log logger.Logger) (*Model, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	if modelName == "" {
		modelName = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

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

// Generate runs one content generation call and returns the reply text.
func (m *Model) Generate(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	m.log.Debug("Sending request to gemini",
		logger.IntField("prompt_chars", len(prompt)))

	resp, err := m.client.Models.GenerateContent(ctx, m.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini api error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini response contained no text")
	}
	return text, nil
}
