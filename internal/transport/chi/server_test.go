package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/domain/record"
	"github.com/kailas-cloud/fundsearch/internal/domain/rerank"
	healthuc "github.com/kailas-cloud/fundsearch/internal/usecase/health"
	"github.com/kailas-cloud/fundsearch/internal/usecase/registry"
)

// --- Stubs ---

type stubResolver struct {
	got     string
	results []rerank.Scored
	panic   bool
}

func (s *stubResolver) Resolve(_ context.Context, text string) []rerank.Scored {
	if s.panic {
		panic("boom")
	}
	s.got = text
	return s.results
}

type stubDatasets struct {
	status   []registry.Status
	buildErr error
}

func (s *stubDatasets) Status() []registry.Status { return s.status }

func (s *stubDatasets) BuildIndexFor(_ context.Context, id string) (registry.Status, error) {
	if s.buildErr != nil {
		return registry.Status{ID: id, State: registry.StateFailed}, s.buildErr
	}
	return registry.Status{ID: id, State: registry.StateReady, Rows: 3, Dim: 4}, nil
}

type stubHealth struct{ report healthuc.Report }

func (s stubHealth) Check(context.Context) healthuc.Report { return s.report }

func newTestRouter(res *stubResolver, ds *stubDatasets, h stubHealth, keys ...string) http.Handler {
	return NewRouter(NewServer(res, ds, h, zap.NewNop()), keys, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func scored(name string, score float64) rerank.Scored {
	return rerank.Scored{
		Record: record.Record{
			record.FieldName: record.String(name),
			"category":       record.String("Equity"),
			"source":         record.String("mutual_funds"),
		},
		Score: score,
	}
}

// --- Query ---

func TestPostQuery_Results(t *testing.T) {
	res := &stubResolver{results: []rerank.Scored{scored("HDFC Top 100 Fund", 0.58)}}
	rr := do(t, newTestRouter(res, &stubDatasets{}, stubHealth{}), "POST", "/query", `{"query": "  hdfc "}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if res.got != "hdfc" {
		t.Errorf("resolver got %q, want trimmed query", res.got)
	}

	var body struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Results) != 1 {
		t.Fatalf("got %d results", len(body.Results))
	}
	r := body.Results[0]
	if r["name"] != "HDFC Top 100 Fund" || r["category"] != "Equity" || r["sector"] != "N/A" {
		t.Errorf("unexpected result %v", r)
	}
	if r["score"] != 0.58 {
		t.Errorf("score = %v", r["score"])
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestPostQuery_EmptyResultsIsList(t *testing.T) {
	rr := do(t, newTestRouter(&stubResolver{}, &stubDatasets{}, stubHealth{}), "POST", "/query", `{"query": "xyz"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"results":[]}` {
		t.Errorf("body = %s", got)
	}
}

func TestPostQuery_BadRequests(t *testing.T) {
	router := newTestRouter(&stubResolver{}, &stubDatasets{}, stubHealth{})
	for name, body := range map[string]string{
		"missing query": `{}`,
		"blank query":   `{"query": "   "}`,
		"invalid json":  `{"query":`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := do(t, router, "POST", "/query", body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status %d, want 400", rr.Code)
			}
			var e ErrorResponse
			_ = json.NewDecoder(rr.Body).Decode(&e)
			if e.Code != ErrorCodeBadRequest {
				t.Errorf("code %q", e.Code)
			}
		})
	}
}

func TestGetQuery(t *testing.T) {
	res := &stubResolver{results: []rerank.Scored{scored("SBI Bluechip", 0.3)}}
	router := newTestRouter(res, &stubDatasets{}, stubHealth{})

	rr := do(t, router, "GET", "/query?q=sbi+bluechip", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if res.got != "sbi bluechip" {
		t.Errorf("resolver got %q", res.got)
	}

	if rr := do(t, router, "GET", "/query", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("missing q: status %d, want 400", rr.Code)
	}
}

func TestQuery_PanicRecovered(t *testing.T) {
	rr := do(t, newTestRouter(&stubResolver{panic: true}, &stubDatasets{}, stubHealth{}), "POST", "/query", `{"query": "x"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rr.Code)
	}
	var e ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil || e.Code != ErrorCodeInternalError {
		t.Errorf("body %q err %v", rr.Body.String(), err)
	}
}

func TestQuery_RequiresAuth(t *testing.T) {
	router := newTestRouter(&stubResolver{}, &stubDatasets{}, stubHealth{report: healthuc.Report{Status: healthuc.Healthy}}, "secret")

	if rr := do(t, router, "POST", "/query", `{"query": "x"}`); rr.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", rr.Code)
	}
	if rr := do(t, router, "GET", "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("health status %d, want 200", rr.Code)
	}
}

// --- Datasets ---

func TestListDatasets(t *testing.T) {
	ds := &stubDatasets{status: []registry.Status{
		{ID: "stocks", State: registry.StateReady, Rows: 2, Dim: 4},
		{ID: "etfs", State: registry.StateFailed, Error: "source missing"},
	}}
	rr := do(t, newTestRouter(&stubResolver{}, ds, stubHealth{}), "GET", "/datasets", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var body DatasetListResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Items) != 2 || body.Items[1].State != registry.StateFailed {
		t.Errorf("unexpected items %+v", body.Items)
	}
}

func TestBuildDataset(t *testing.T) {
	rr := do(t, newTestRouter(&stubResolver{}, &stubDatasets{}, stubHealth{}), "POST", "/datasets/stocks/build", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var st registry.Status
	if err := json.NewDecoder(rr.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.ID != "stocks" || st.State != registry.StateReady {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestBuildDataset_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"unknown", domain.ErrDatasetNotFound, http.StatusNotFound, ErrorCodeDatasetNotFound},
		{"missing source", domain.NewBuildError("etfs", domain.ErrSourceMissing), http.StatusUnprocessableEntity, ErrorCodeSourceInvalid},
		{"provider", domain.NewBuildError("etfs", domain.ErrEmbeddingProviderError), http.StatusBadGateway, ErrorCodeEmbeddingFailed},
		{"other", domain.NewBuildError("etfs", context.Canceled), http.StatusInternalServerError, ErrorCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubResolver{}, &stubDatasets{buildErr: tt.err}, stubHealth{})
			rr := do(t, router, "POST", "/datasets/etfs/build", "")
			if rr.Code != tt.status {
				t.Fatalf("status %d, want %d", rr.Code, tt.status)
			}
			var e ErrorResponse
			_ = json.NewDecoder(rr.Body).Decode(&e)
			if e.Code != tt.code {
				t.Errorf("code %q, want %q", e.Code, tt.code)
			}
			if strings.Contains(e.Message, "etfs") {
				t.Errorf("internal detail leaked: %q", e.Message)
			}
		})
	}
}

// --- Health ---

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		report healthuc.Report
		status int
	}{
		{"healthy", healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"datasets": healthuc.CheckOK}}, http.StatusOK},
		{"degraded", healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{"cache": healthuc.CheckError}}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, newTestRouter(&stubResolver{}, &stubDatasets{}, stubHealth{report: tt.report}), "GET", "/health", "")
			if rr.Code != tt.status {
				t.Fatalf("status %d, want %d", rr.Code, tt.status)
			}
			var body HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Status != string(tt.report.Status) {
				t.Errorf("status field %q", body.Status)
			}
		})
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	rr := do(t, newTestRouter(&stubResolver{}, &stubDatasets{}, stubHealth{}), "GET", "/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type %q", ct)
	}
}
