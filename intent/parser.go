package intent

import (
	"slices"
	"strings"

	"github.com/poiesic/fauna/core"
	"github.com/poiesic/fauna/stats"
)

// Parser turns query strings into QueryIntents. It is immutable and safe for
// concurrent use.
type Parser struct {
	triggers  map[core.FilterKey][]string
	tolerance float64
}

// NewParser creates a Parser from vocab. A nil vocab selects DefaultVocabulary.
func NewParser(vocab *Vocabulary) (*Parser, error) {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if err := vocab.Validate(); err != nil {
		return nil, err
	}

	p := &Parser{
		triggers:  make(map[core.FilterKey][]string, len(vocab.Triggers)),
		tolerance: vocab.Tolerance,
	}
	for key, words := range vocab.Triggers {
		lowered := make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				lowered = append(lowered, w)
			}
		}
		p.triggers[key] = lowered
	}
	return p, nil
}

// Default returns a Parser over DefaultVocabulary.
func Default() *Parser {
	p, err := NewParser(nil)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse extracts numbers and matched filters from query.
// Filters are only attached when the query holds at least one number.
func (p *Parser) Parse(query string) core.QueryIntent {
	q := strings.ToLower(query)
	intent := core.QueryIntent{
		RawText: query,
		Numbers: stats.ExtractNumbers(q),
		Filters: make(map[core.FilterKey][]float64),
	}
	if len(intent.Numbers) == 0 {
		return intent
	}

	for _, key := range core.FilterKeys {
		for _, trigger := range p.triggers[key] {
			if strings.Contains(q, trigger) {
				intent.Filters[key] = slices.Clone(intent.Numbers)
				break
			}
		}
	}
	return intent
}

// Predicates builds the index filter predicates for intent. Weight and size
// become a tolerance band around their first number; population becomes a
// containment test. Lifespan is recognized but not filtered on.
func (p *Parser) Predicates(intent core.QueryIntent) []core.RangePredicate {
	var preds []core.RangePredicate
	for _, key := range core.FilterKeys {
		values := intent.Filters[key]
		if len(values) == 0 {
			continue
		}
		v := values[0]
		switch key {
		case core.FilterWeight:
			preds = append(preds, p.band(core.FieldWeight, v))
		case core.FilterSize:
			preds = append(preds, p.band(core.FieldLength, v))
		case core.FilterPopulation:
			preds = append(preds, core.RangePredicate{
				Field: core.FieldPopulation,
				Kind:  core.PredicateContains,
				Lo:    v,
				Hi:    v,
			})
		}
	}
	return preds
}

func (p *Parser) band(field core.StatField, v float64) core.RangePredicate {
	return core.RangePredicate{
		Field: field,
		Kind:  core.PredicateBand,
		Lo:    v * (1 - p.tolerance),
		Hi:    v * (1 + p.tolerance),
	}
}

// Filter keeps the records that satisfy every predicate.
func Filter(records []*core.SpeciesRecord, preds []core.RangePredicate) []*core.SpeciesRecord {
	if len(preds) == 0 {
		return records
	}
	out := make([]*core.SpeciesRecord, 0, len(records))
	for _, r := range records {
		ok := true
		for _, pred := range preds {
			if !pred.Matches(r) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}
