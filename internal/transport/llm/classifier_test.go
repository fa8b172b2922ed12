package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/domain/filter"
	"github.com/kailas-cloud/fundsearch/internal/domain/intent"
)

type stubModel struct {
	content  string
	choices  int
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (s *stubModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = messages
	for _, o := range options {
		o(&s.opts)
	}
	if s.err != nil {
		return nil, s.err
	}
	resp := &llms.ContentResponse{}
	for range s.choices {
		resp.Choices = append(resp.Choices, &llms.ContentChoice{Content: s.content})
	}
	return resp, nil
}

func TestClassify_NoisyResponse(t *testing.T) {
	m := &stubModel{
		choices: 1,
		content: "<think>\nlooks like tax\n</think>\nSure! {\"type\": \"tax_query\",\n \"filters\": {\"category\": \"tax\"}} hope that helps",
	}
	c := newClassifier(m, "mistral", true, nil)

	got, err := c.Classify(context.Background(), "best tax saving funds")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != intent.TaxQuery {
		t.Errorf("type = %s", got.Type)
	}
	if len(got.Filters) != 1 || got.Filters[0].Op() != filter.Contains || got.Filters[0].Field() != "category" {
		t.Errorf("filters = %+v", got.Filters)
	}

	if len(m.messages) != 2 || m.messages[0].Role != llms.ChatMessageTypeSystem || m.messages[1].Role != llms.ChatMessageTypeHuman {
		t.Fatalf("unexpected messages: %+v", m.messages)
	}
	if part, ok := m.messages[1].Parts[0].(llms.TextContent); !ok || part.Text != "best tax saving funds" {
		t.Errorf("user message = %+v", m.messages[1].Parts)
	}
	if m.opts.Temperature != 0 || !m.opts.JSONMode {
		t.Errorf("call options = %+v", m.opts)
	}
}

func TestClassify_Entity(t *testing.T) {
	m := &stubModel{choices: 1, content: `{"type": "entity_query", "entity": "hdfc", "filters": {}}`}
	got, err := newClassifier(m, "mistral", false, nil).Classify(context.Background(), "hdfc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != intent.EntityQuery || got.Entity != "hdfc" {
		t.Errorf("intent = %+v", got)
	}
	if m.opts.JSONMode {
		t.Error("json mode requested when disabled")
	}
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name  string
		model *stubModel
		want  error
	}{
		{"transport failure", &stubModel{err: errors.New("connection refused")}, domain.ErrClassifierUnavailable},
		{"no choices", &stubModel{}, domain.ErrInvalidIntent},
		{"no json", &stubModel{choices: 1, content: "I cannot help with that"}, domain.ErrInvalidIntent},
		{"missing type", &stubModel{choices: 1, content: `{"entity": "hdfc"}`}, domain.ErrInvalidIntent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newClassifier(tc.model, "mistral", false, nil).Classify(context.Background(), "q")
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewClassifier(t *testing.T) {
	c, err := NewClassifier(Config{BaseURL: "http://localhost:11434/v1", Model: "mistral"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.name != "mistral" {
		t.Errorf("name = %q", c.name)
	}
}
