package fundsearch

import (
	"context"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status   string            // "ok", "degraded", "error"
	Checks   map[string]string // component → "ok"/"error"
	Datasets []DatasetStatus
}

// Health checks the cache, the embedding provider and dataset readiness.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.app.Health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:   string(report.Status),
		Checks:   checks,
		Datasets: report.Datasets,
	}
}
