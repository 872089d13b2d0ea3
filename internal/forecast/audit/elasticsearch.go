// Package audit indexes served predictions into Elasticsearch.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"meal-waste-workers/internal/forecast"

	"github.com/elastic/go-elasticsearch/v8"
)

// IndexMapping is the body used to create the audit index. Students stays a
// keyword because rejected requests carry whatever the caller sent.
var IndexMapping = []byte(`{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "@timestamp":     {"type": "date"},
      "outcome":        {"type": "keyword"},
      "error_code":     {"type": "keyword"},
      "model_tag":      {"type": "keyword"},
      "cached":         {"type": "boolean"},
      "duration_ms":    {"type": "double"},
      "total_waste":    {"type": "double"},
      "total_prepared": {"type": "double"},
      "total_min_cost": {"type": "double"},
      "total_max_cost": {"type": "double"},
      "predictions":    {"type": "object", "dynamic": true},
      "request": {
        "properties": {
          "season":        {"type": "keyword"},
          "day_type":      {"type": "keyword"},
          "day":           {"type": "keyword"},
          "meal_category": {"type": "keyword"},
          "students":      {"type": "keyword"}
        }
      }
    }
  }
}`)

// ElasticsearchAuditor writes one document per AuditEntry.
type ElasticsearchAuditor struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchAuditor(client *elasticsearch.Client, index string) *ElasticsearchAuditor {
	return &ElasticsearchAuditor{client: client, index: index}
}

// Record indexes entry under its ID.
func (a *ElasticsearchAuditor) Record(ctx context.Context, entry forecast.AuditEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}

	res, err := a.client.Index(
		a.index,
		bytes.NewReader(body),
		a.client.Index.WithDocumentID(entry.ID),
		a.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("elasticsearch index error: %s: %s", res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}

var _ forecast.Auditor = (*ElasticsearchAuditor)(nil)
