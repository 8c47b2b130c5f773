package trademark

import (
	"context"
	"encoding/json"
	"time"
)

// StoredReport is a screening report as kept in the history store. Results
// holds the report's results object verbatim.
type StoredReport struct {
	ID              string          `json:"id"`
	RequesterID     string          `json:"uid"`
	Name            string          `json:"name"`
	ProductCategory string          `json:"product_name"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	Results         json.RawMessage `json:"results"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ReportRepository persists screening reports per requester.
type ReportRepository interface {
	Save(ctx context.Context, report *StoredReport) error
	ListByRequester(ctx context.Context, requesterID string, limit int) ([]*StoredReport, error)
}
