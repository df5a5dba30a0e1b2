// Package writer renders the structured advisory report into prose with a
// language model. Rendering is optional: callers fall back to the
// structured report whenever no model is configured or the call fails.
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/enviweather/envi-advisor/internal/report"
	"github.com/enviweather/envi-advisor/pkg/logger"
)

// DefaultTimeout bounds a single rendering call.
const DefaultTimeout = 30 * time.Second

// Model is one language model backend. Implementations live under
// internal/models.
type Model interface {
	// Name identifies the backend for logs.
	Name() string

	// Generate produces prose for the prompt under the system instruction.
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Config configures the report writer.
type Config struct {
	// Model is required.
	Model Model

	// Logger is required.
	Logger logger.Logger

	// Timeout is optional; DefaultTimeout applies when zero.
	Timeout time.Duration
}

// Writer turns report models into user-facing prose.
type Writer struct {
	config Config
}

// New validates the configuration and creates a writer.
func New(config Config) (*Writer, error) {
	if config.Model == nil {
		return nil, errors.New("model is required")
	}
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Writer{config: config}, nil
}

// Render produces the prose report. The prompt is built entirely from the
// report model, so identical reports yield identical prompts.
func (w *Writer) Render(ctx context.Context, rpt report.Model) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	start := time.Now()
	text, err := w.config.Model.Generate(ctx, systemInstruction, BuildPrompt(rpt))
	if err != nil {
		return "", fmt.Errorf("render report with %s: %w", w.config.Model.Name(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("render report with %s: empty completion", w.config.Model.Name())
	}

	w.config.Logger.Debug("Rendered advisory report",
		logger.StringField("model", w.config.Model.Name()),
		logger.DurationField("duration", time.Since(start)),
		logger.IntField("chars", len(text)))

	return text, nil
}
