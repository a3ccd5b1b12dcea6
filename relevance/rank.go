package relevance

import (
	"cmp"
	"slices"

	"github.com/poiesic/fauna/core"
)

// DefaultK is the number of records Rank returns when k is not positive.
const DefaultK = 5

// Scored pairs a record with its similarity to a base record.
type Scored struct {
	Record *core.SpeciesRecord
	Score  float64
}

// ScoreAll scores every candidate against base, skipping base itself.
// A candidate is base when it is the same pointer or shares its non-empty ID.
func ScoreAll(base *core.SpeciesRecord, candidates []*core.SpeciesRecord) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || isSame(base, c) {
			continue
		}
		scored = append(scored, Scored{Record: c, Score: Similarity(base, c)})
	}
	return scored
}

// Rank returns at most k candidates ordered by descending similarity to base.
// Exact ties keep candidate order.
func Rank(base *core.SpeciesRecord, candidates []*core.SpeciesRecord, k int) []*core.SpeciesRecord {
	if k <= 0 {
		k = DefaultK
	}
	scored := ScoreAll(base, candidates)
	slices.SortStableFunc(scored, func(a, b Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	out := make([]*core.SpeciesRecord, len(scored))
	for i, s := range scored {
		out[i] = s.Record
	}
	return out
}

func isSame(base, c *core.SpeciesRecord) bool {
	if base == nil {
		return false
	}
	return base == c || (base.ID != "" && base.ID == c.ID)
}
