package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/poiesic/fauna/core"
)

const (
	// DefaultSize is the number of hits requested by Search when none is given.
	DefaultSize = 10

	// DefaultPoolSize is the number of candidates fetched by ByCategory when none is given.
	DefaultPoolSize = 30
)

// SearchFields are the boosted fields of the relevance query.
var SearchFields = []string{
	"name^8",
	"scientific_name^6",
	"summary^4",
	"overview^4",
	"habitat^2",
	"threats^1",
	"diet^1",
}

// PhraseBoosts reward whole-query phrase matches on the naming fields.
var PhraseBoosts = map[string]float64{
	"name":            12,
	"scientific_name": 8,
}

// Query is a relevance search over the species index.
type Query struct {
	Text       string
	Predicates []core.RangePredicate
	Size       int // DefaultSize when zero
}

// Searcher runs queries against the species index.
type Searcher struct {
	client *Client
	logger *slog.Logger
}

// NewSearcher creates a Searcher on client.
func NewSearcher(client *Client, logger *slog.Logger) (*Searcher, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if logger == nil {
		logger = client.logger
	}
	return &Searcher{client: client, logger: logger}, nil
}

// Search returns the records best matching q in relevance order. Records that
// do not satisfy every predicate are filtered out by the index.
func (s *Searcher) Search(ctx context.Context, q Query) ([]*core.SpeciesRecord, error) {
	size := q.Size
	if size <= 0 {
		size = DefaultSize
	}
	records, err := s.run(ctx, BuildQuery(q.Text, q.Predicates), size)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("search executed", "query", q.Text, "predicates", len(q.Predicates), "hits", len(records))
	return records, nil
}

// ByCategory returns up to size records whose categories include label.
func (s *Searcher) ByCategory(ctx context.Context, label core.TypeLabel, size int) ([]*core.SpeciesRecord, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	query := map[string]any{
		"bool": map[string]any{
			"filter": []any{
				map[string]any{"term": map[string]any{"animal_type": string(label)}},
			},
		},
	}
	return s.run(ctx, query, size)
}

type searchResponse struct {
	Hits *struct {
		Hits []struct {
			ID     string    `json:"_id"`
			Source *Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *Searcher) run(ctx context.Context, query map[string]any, size int) ([]*core.SpeciesRecord, error) {
	body, err := json.Marshal(map[string]any{"size": size, "query": query})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	req := opensearchapi.SearchRequest{
		Index: []string{s.client.Index()},
		Body:  bytes.NewReader(body),
	}

	var resp searchResponse
	if err := s.client.perform(ctx, req, &resp); err != nil {
		return nil, err
	}

	records := make([]*core.SpeciesRecord, 0)
	if resp.Hits == nil {
		return records, nil
	}
	for _, hit := range resp.Hits.Hits {
		if hit.Source == nil {
			continue
		}
		if hit.Source.ID == "" {
			hit.Source.ID = hit.ID
		}
		records = append(records, hit.Source.Record())
	}
	return records, nil
}

// BuildQuery returns the bool query for text and preds. Blank text matches
// every document; predicates become range filters on the flat min/max fields.
func BuildQuery(text string, preds []core.RangePredicate) map[string]any {
	text = strings.TrimSpace(text)

	boolQuery := map[string]any{}
	if text == "" {
		boolQuery["must"] = []any{map[string]any{"match_all": map[string]any{}}}
	} else {
		boolQuery["must"] = []any{map[string]any{
			"multi_match": map[string]any{
				"query":                text,
				"fields":               SearchFields,
				"type":                 "best_fields",
				"fuzziness":            1,
				"minimum_should_match": "1<75%",
				"tie_breaker":          0.1,
			},
		}}
		should := make([]any, 0, len(PhraseBoosts))
		for _, field := range []string{"name", "scientific_name"} {
			should = append(should, map[string]any{
				"match_phrase": map[string]any{
					field: map[string]any{"query": text, "boost": PhraseBoosts[field]},
				},
			})
		}
		boolQuery["should"] = should
	}

	if filters := rangeFilters(preds); len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	return map[string]any{"bool": boolQuery}
}

// rangeFilters translates predicates into range clauses. Both predicate kinds
// reduce to min <= Hi and max >= Lo; a containment predicate has Lo == Hi.
func rangeFilters(preds []core.RangePredicate) []any {
	filters := make([]any, 0, 2*len(preds))
	for _, p := range preds {
		lo, hi := p.Lo, p.Hi
		if p.Kind == core.PredicateContains {
			hi = lo
		}
		prefix := rangeField(p.Field)
		filters = append(filters,
			map[string]any{"range": map[string]any{prefix + "_min": map[string]any{"lte": hi}}},
			map[string]any{"range": map[string]any{prefix + "_max": map[string]any{"gte": lo}}},
		)
	}
	return filters
}
