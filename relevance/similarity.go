package relevance

import (
	"math"
	"regexp"
	"strings"

	"github.com/poiesic/fauna/core"
)

// Similarity weights.
const (
	TextWeight     = 0.4
	CategoryWeight = 0.3
	LengthWeight   = 0.2
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

func tokenSet(s string) map[string]struct{} {
	words := wordPattern.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// TextJaccard returns |A ∩ B| / |A ∪ B| over the word sets of a and b.
// It returns 0 when either side has no words.
func TextJaccard(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for w := range ta {
		if _, ok := tb[w]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

// RangeOverlap returns the overlap of a and b divided by the wider span.
// It returns 0 when either range is absent or both are points.
func RangeOverlap(a, b *core.NormalizedRange) float64 {
	if a == nil || b == nil {
		return 0
	}
	overlap := math.Max(0, math.Min(a.Max, b.Max)-math.Max(a.Min, b.Min))
	span := math.Max(a.Span(), b.Span())
	if span <= 0 {
		return 0
	}
	return math.Min(1, overlap/span)
}

// SameCategory reports whether both records carry the same known primary category.
func SameCategory(a, b *core.SpeciesRecord) bool {
	ca, cb := a.Category(), b.Category()
	return ca != "" && ca == cb
}

// Similarity scores candidate against base in [0, 0.9].
func Similarity(base, candidate *core.SpeciesRecord) float64 {
	if base == nil || candidate == nil {
		return 0
	}
	score := TextWeight * TextJaccard(base.Overview, candidate.Overview)
	if SameCategory(base, candidate) {
		score += CategoryWeight
	}
	score += LengthWeight * RangeOverlap(base.Stats.Length, candidate.Stats.Length)
	return score
}
