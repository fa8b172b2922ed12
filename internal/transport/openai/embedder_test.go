package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingItem `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// fakeProvider answers /embeddings with vec and the given token usage.
func fakeProvider(t *testing.T, vec []float32, tokens int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" || len(req.Input) != 1 {
			t.Errorf("unexpected request: %+v", req)
		}

		resp := embeddingResponse{Object: "list", Model: req.Model}
		if vec != nil {
			resp.Data = []embeddingItem{{Object: "embedding", Embedding: vec}}
		}
		resp.Usage.PromptTokens = tokens
		resp.Usage.TotalTokens = tokens
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestEmbedder(url string) *Embedder {
	return NewEmbedder(&Config{
		APIKey:   "test-key",
		BaseURL:  url,
		Model:    "nomic-embed-text",
		Provider: "ollama",
	})
}

func TestEmbedder_Embed(t *testing.T) {
	want := []float32{0.1, 0.2, 0.3, 0.4}
	srv := fakeProvider(t, want, 42)

	before := testutil.ToFloat64(metrics.EmbeddingTokensTotal.WithLabelValues("ollama", "nomic-embed-text", "total"))

	result, err := newTestEmbedder(srv.URL).Embed(context.Background(), "hdfc top 100")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(result.Embedding) != len(want) {
		t.Fatalf("expected %d dimensions, got %d", len(want), len(result.Embedding))
	}
	for i, v := range result.Embedding {
		if v != want[i] {
			t.Errorf("vec[%d] = %f, expected %f", i, v, want[i])
		}
	}
	if result.PromptTokens != 42 || result.TotalTokens != 42 {
		t.Errorf("usage = %d/%d, expected 42/42", result.PromptTokens, result.TotalTokens)
	}

	after := testutil.ToFloat64(metrics.EmbeddingTokensTotal.WithLabelValues("ollama", "nomic-embed-text", "total"))
	if after-before != 42 {
		t.Errorf("token counter advanced by %f, expected 42", after-before)
	}
}

func TestEmbedder_EmptyResponse(t *testing.T) {
	srv := fakeProvider(t, nil, 0)

	_, err := newTestEmbedder(srv.URL).Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_Unreachable(t *testing.T) {
	_, err := newTestEmbedder("http://127.0.0.1:1").Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_HealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"nomic-embed-text","object":"model"}]}`))
	}))
	defer srv.Close()

	if err := newTestEmbedder(srv.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		body, want string
	}{
		{`{"detail":"model not found"}`, "model not found"},
		{`{"error":"model \"x\" not found, try pulling it first"}`, `model "x" not found, try pulling it first`},
		{`{"error":{"message":"nested"}}`, ""},
		{`not json`, ""},
	}
	for _, tc := range tests {
		if got := extractDetail([]byte(tc.body)); got != tc.want {
			t.Errorf("extractDetail(%s) = %q, want %q", tc.body, got, tc.want)
		}
	}
}
