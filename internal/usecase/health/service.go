package health

import (
	"context"

	"github.com/kailas-cloud/fundsearch/internal/usecase/registry"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates no dataset can serve queries.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	Datasets []registry.Status
}

// Service coordinates health checks.
type Service struct {
	datasets  DatasetReporter
	cache     CachePinger
	embedding EmbeddingChecker
}

// New creates a Service. cache and embedding can be nil.
func New(datasets DatasetReporter, cache CachePinger, embedding EmbeddingChecker) *Service {
	return &Service{datasets: datasets, cache: cache, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.cache != nil {
		checks["cache"] = result(s.cache.Ping(ctx))
	}
	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx))
	}

	datasets := s.datasets.Status()
	ready := 0
	for _, d := range datasets {
		if d.State == registry.StateReady {
			ready++
		}
	}
	checks["datasets"] = CheckOK
	if ready < len(datasets) {
		checks["datasets"] = CheckError
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if ready == 0 {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks, Datasets: datasets}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
