// Package llm classifies user queries into intents with an OpenAI-compatible
// chat model driven through langchaingo.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/domain/intent"
	"github.com/kailas-cloud/fundsearch/internal/metrics"
)

// generator is the slice of llms.Model the classifier needs (ISP).
type generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Config holds the chat model settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// JSONMode asks the server for a JSON-only response. Not every
	// OpenAI-compatible server honours it.
	JSONMode bool
}

// Classifier turns free text into an intent.
type Classifier struct {
	model    generator
	name     string
	jsonMode bool
	logger   *zap.Logger
}

// NewClassifier creates a classifier backed by an OpenAI-compatible chat endpoint.
func NewClassifier(cfg Config, logger *zap.Logger) (*Classifier, error) {
	token := cfg.APIKey
	if token == "" {
		// Local OpenAI-compatible servers (Ollama) ignore the token but the client requires one.
		token = "none"
	}
	opts := []openai.Option{openai.WithToken(token), openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}
	return newClassifier(client, cfg.Model, cfg.JSONMode, logger), nil
}

func newClassifier(model generator, name string, jsonMode bool, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{model: model, name: name, jsonMode: jsonMode, logger: logger}
}

// Classify asks the model for an intent. Transport failures wrap
// domain.ErrClassifierUnavailable; unusable responses wrap domain.ErrInvalidIntent.
func (c *Classifier) Classify(ctx context.Context, text string) (intent.Intent, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}
	callOpts := []llms.CallOption{llms.WithTemperature(0)}
	if c.jsonMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		metrics.ClassifierRequestsTotal.WithLabelValues(c.name, "error").Inc()
		return intent.Intent{}, fmt.Errorf("generate: %v: %w", err, domain.ErrClassifierUnavailable)
	}
	if len(resp.Choices) == 0 {
		metrics.ClassifierRequestsTotal.WithLabelValues(c.name, "invalid").Inc()
		return intent.Intent{}, fmt.Errorf("no choices returned: %w", domain.ErrInvalidIntent)
	}

	raw := resp.Choices[0].Content
	in, err := intent.Extract(raw)
	if err != nil {
		metrics.ClassifierRequestsTotal.WithLabelValues(c.name, "invalid").Inc()
		c.logger.Warn("Unusable classifier response", zap.String("response", raw), zap.Error(err))
		return intent.Intent{}, fmt.Errorf("extract intent: %w", err)
	}

	metrics.ClassifierRequestsTotal.WithLabelValues(c.name, "success").Inc()
	c.logger.Debug("Query classified",
		zap.String("type", string(in.Type)),
		zap.Int("filters", len(in.Filters)),
		zap.Duration("duration", time.Since(start)),
	)
	return in, nil
}
