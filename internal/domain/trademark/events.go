package trademark

import (
	"encoding/json"
	"strings"
)

// ScreeningRequest is the asynchronous screening job published by the
// submission endpoint and consumed by the screening worker.
type ScreeningRequest struct {
	Name        string `json:"name"`
	ProductName string `json:"product_name,omitempty"`
	UID         string `json:"uid"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Valid reports whether the job carries the fields a worker needs. A missing
// product name is allowed and screens against an empty category.
func (r ScreeningRequest) Valid() bool {
	return strings.TrimSpace(r.Name) != "" && strings.TrimSpace(r.UID) != ""
}

// Candidate converts the job into the engine input.
func (r ScreeningRequest) Candidate() (Candidate, error) {
	return NewCandidate(r.Name, r.ProductName, r.UID)
}

// StoredImage identifies an uploaded mark image.
type StoredImage struct {
	Key string
	URL string
}

// NewStoredReport packages a finished report with the job that requested it.
// The result message on the bus and the history row share this shape.
func NewStoredReport(req ScreeningRequest, rep *Report) (*StoredReport, error) {
	results, err := json.Marshal(rep.Results)
	if err != nil {
		return nil, err
	}
	return &StoredReport{
		ID:              rep.ID,
		RequesterID:     req.UID,
		Name:            req.Name,
		ProductCategory: req.ProductName,
		ImageURL:        req.ImageURL,
		Results:         results,
		CreatedAt:       rep.CreatedAt,
	}, nil
}
