package chi

import (
	"github.com/kailas-cloud/fundsearch/internal/domain/result"
	"github.com/kailas-cloud/fundsearch/internal/usecase/registry"
)

// ErrorCode is a machine-readable error classification.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeMethodNotAllowed ErrorCode = "method_not_allowed"
	ErrorCodeDatasetNotFound  ErrorCode = "dataset_not_found"
	ErrorCodeSourceInvalid    ErrorCode = "source_invalid"
	ErrorCodeEmbeddingFailed  ErrorCode = "embedding_provider_error"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryParams are the query-string parameters of GET /query.
type QueryParams struct {
	Q string
}

// QueryResponse lists resolved instruments, best first.
type QueryResponse struct {
	Results []result.Result `json:"results"`
}

// DatasetListResponse reports every configured dataset.
type DatasetListResponse struct {
	Items []registry.Status `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Datasets []registry.Status `json:"datasets"`
}
