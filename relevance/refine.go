package relevance

import (
	"slices"

	"github.com/poiesic/fauna/core"
)

// Refinement narrows a result list by explicit stat bounds and allowed
// categories. A nil bound or empty Types list does not constrain. When a bound
// is set, records lacking that stat are dropped.
type Refinement struct {
	Weight     *core.NormalizedRange
	Length     *core.NormalizedRange
	Population *core.NormalizedRange
	Types      []core.TypeLabel
}

// IsZero reports whether the refinement constrains nothing.
func (f Refinement) IsZero() bool {
	return f.Weight == nil && f.Length == nil && f.Population == nil && len(f.Types) == 0
}

// Allows reports whether record passes every set constraint. Types are
// checked against the primary category.
func (f Refinement) Allows(record *core.SpeciesRecord) bool {
	if record == nil {
		return false
	}
	if !within(f.Weight, record.Stats.Weight) ||
		!within(f.Length, record.Stats.Length) ||
		!within(f.Population, record.Stats.Population) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, record.Category()) {
		return false
	}
	return true
}

// Apply returns the records that pass the refinement, in order.
func (f Refinement) Apply(records []*core.SpeciesRecord) []*core.SpeciesRecord {
	if f.IsZero() {
		return records
	}
	out := make([]*core.SpeciesRecord, 0, len(records))
	for _, r := range records {
		if f.Allows(r) {
			out = append(out, r)
		}
	}
	return out
}

func within(bound, value *core.NormalizedRange) bool {
	if bound == nil {
		return true
	}
	if value == nil {
		return false
	}
	return max(value.Min, bound.Min) <= min(value.Max, bound.Max)
}
