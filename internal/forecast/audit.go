package forecast

import (
	"context"
	"time"
)

// AuditEntry records one served prediction or rejected request.
type AuditEntry struct {
	ID            string             `json:"id"`
	Timestamp     time.Time          `json:"@timestamp"`
	Request       Request            `json:"request"`
	Outcome       string             `json:"outcome"`
	ErrorCode     string             `json:"error_code,omitempty"`
	Predictions   map[string]float64 `json:"predictions,omitempty"`
	TotalWaste    float64            `json:"total_waste"`
	TotalPrepared float64            `json:"total_prepared"`
	TotalMinCost  float64            `json:"total_min_cost"`
	TotalMaxCost  float64            `json:"total_max_cost"`
	Cached        bool               `json:"cached"`
	DurationMs    float64            `json:"duration_ms"`
	ModelTag      string             `json:"model_tag"`
}

// Auditor persists audit entries. Implementations must be safe for concurrent use.
type Auditor interface {
	Record(ctx context.Context, entry AuditEntry) error
}
