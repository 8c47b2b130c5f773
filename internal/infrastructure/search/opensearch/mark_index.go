package opensearch

import (
	"context"
	"encoding/json"

	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// MarkIndex reads registered marks from the name-exact and combined indices.
type MarkIndex struct {
	searcher   *Searcher
	exactIndex string
	markIndex  string
	logger     logging.Logger
}

// NewMarkIndex builds the mark index adapter.
func NewMarkIndex(s *Searcher, cfg config.OpenSearchConfig, logger logging.Logger) *MarkIndex {
	return &MarkIndex{
		searcher:   s,
		exactIndex: cfg.ExactIndex,
		markIndex:  cfg.MarkIndex,
		logger:     logger,
	}
}

// MatchTitle implements trademark.MarkIndex.
func (m *MarkIndex) MatchTitle(ctx context.Context, title string, size int) ([]trademark.MarkRecord, error) {
	res, err := m.searcher.Search(ctx, SearchRequest{
		IndexName: m.exactIndex,
		Query:     Query{QueryType: "match", Field: string(trademark.FieldTitle), Value: title},
		Size:      size,
	})
	if err != nil {
		return nil, err
	}
	return decodeRecords(res.Hits, m.logger)
}

// Fuzzy implements trademark.MarkIndex.
func (m *MarkIndex) Fuzzy(ctx context.Context, field trademark.MarkField, value string, fuzziness int) ([]trademark.MarkRecord, error) {
	res, err := m.searcher.Search(ctx, SearchRequest{
		IndexName: m.markIndex,
		Query:     Query{QueryType: "fuzzy", Field: string(field), Value: value, Fuzziness: fuzziness},
	})
	if err != nil {
		return nil, err
	}
	return decodeRecords(res.Hits, m.logger)
}

func decodeRecords(hits []SearchHit, logger logging.Logger) ([]trademark.MarkRecord, error) {
	out := make([]trademark.MarkRecord, 0, len(hits))
	for _, h := range hits {
		var rec trademark.MarkRecord
		if err := json.Unmarshal(h.Source, &rec); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode mark record "+h.ID)
		}
		if rec.Title == "" {
			logger.Debug("skipping mark without title", logging.String("id", h.ID))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// EntityRegistry looks titles up in the notable-company index.
type EntityRegistry struct {
	searcher *Searcher
	index    string
	field    string
}

// NewEntityRegistry builds the registry adapter.
func NewEntityRegistry(s *Searcher, cfg config.OpenSearchConfig) *EntityRegistry {
	return &EntityRegistry{searcher: s, index: cfg.EntityIndex, field: cfg.EntityField}
}

// IsLargeEntity is true when the match query returns any hit.
func (r *EntityRegistry) IsLargeEntity(ctx context.Context, title string) (bool, error) {
	res, err := r.searcher.Search(ctx, SearchRequest{
		IndexName: r.index,
		Query:     Query{QueryType: "match", Field: r.field, Value: title},
		Size:      1,
	})
	if err != nil {
		return false, err
	}
	return res.Total > 0, nil
}
