package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// Query is a single-field leaf query. QueryType is "match" or "fuzzy".
type Query struct {
	QueryType string
	Field     string
	Value     string
	Fuzziness int
}

// SearchRequest defines one search against one index.
type SearchRequest struct {
	IndexName string
	Query     Query
	Size      int
}

// SearchHit represents a single search hit.
type SearchHit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

// SearchResult holds the search response.
type SearchResult struct {
	Total  int64
	Hits   []SearchHit
	TookMs int64
}

// Searcher performs read-only queries.
type Searcher struct {
	client *Client
	logger logging.Logger
}

// NewSearcher creates a new Searcher.
func NewSearcher(client *Client, logger logging.Logger) *Searcher {
	return &Searcher{client: client, logger: logger}
}

// Search executes req. A zero Size leaves the cluster default window.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if req.IndexName == "" {
		return nil, errors.New(errors.ErrCodeValidation, "IndexName is required")
	}
	dsl, err := buildQueryDSL(req)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(dsl)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal query DSL")
	}

	osReq := opensearchapi.SearchRequest{
		Index: []string{req.IndexName},
		Body:  bytes.NewReader(body),
	}

	start := time.Now()
	resp, err := osReq.Do(ctx, s.client.GetClient())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(err, errors.ErrCodeCollaboratorTimeout, "search request timed out")
		}
		return nil, errors.Unavailable("search index", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, handleErrorResponse(resp)
	}

	result, err := parseSearchResponse(resp.Body)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search executed",
		logging.String("index", req.IndexName),
		logging.String("type", req.Query.QueryType),
		logging.Int64("took_ms", time.Since(start).Milliseconds()),
		logging.Int64("hits", result.Total))
	return result, nil
}

func buildQueryDSL(req SearchRequest) (map[string]interface{}, error) {
	q := req.Query
	if q.Field == "" {
		return nil, errors.New(errors.ErrCodeValidation, "query field is required")
	}
	var leaf map[string]interface{}
	switch q.QueryType {
	case "match":
		leaf = map[string]interface{}{
			"match": map[string]interface{}{q.Field: q.Value},
		}
	case "fuzzy":
		leaf = map[string]interface{}{
			"fuzzy": map[string]interface{}{
				q.Field: map[string]interface{}{
					"value":     q.Value,
					"fuzziness": q.Fuzziness,
				},
			},
		}
	default:
		return nil, errors.New(errors.ErrCodeValidation, fmt.Sprintf("unsupported query type %q", q.QueryType))
	}

	dsl := map[string]interface{}{"query": leaf}
	if req.Size > 0 {
		dsl["size"] = req.Size
	}
	return dsl, nil
}

func parseSearchResponse(body io.Reader) (*SearchResult, error) {
	var resp struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string          `json:"_id"`
				Score  float64         `json:"_score"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	result := &SearchResult{
		Total:  resp.Hits.Total.Value,
		TookMs: resp.Took,
		Hits:   make([]SearchHit, 0, len(resp.Hits.Hits)),
	}
	for _, h := range resp.Hits.Hits {
		result.Hits = append(result.Hits, SearchHit{ID: h.ID, Score: h.Score, Source: h.Source})
	}
	return result, nil
}

func handleErrorResponse(resp *opensearchapi.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	msg := fmt.Sprintf("opensearch error status: %d", resp.StatusCode)
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Error.Reason != "" {
		msg = fmt.Sprintf("opensearch error: %s - %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return errors.Unavailable("search index", errors.New(errors.ErrCodeExternalService, msg))
}
