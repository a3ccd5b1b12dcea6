package stats

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/fauna/core"
)

var (
	numberPattern    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	thousandsPattern = regexp.MustCompile(`(\d),(\d{3})(\D|$)`)
	clauseSeparators = regexp.MustCompile(`[;,()]`)
)

// ExtractNumbers returns every non-negative numeric literal in text, left to right.
// Literals that overflow a float64 are skipped.
func ExtractNumbers(text string) []float64 {
	matches := numberPattern.FindAllString(text, -1)
	numbers := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil || math.IsInf(v, 0) {
			continue
		}
		numbers = append(numbers, v)
	}
	return numbers
}

// Normalizer turns measurement text into ranges. The zero value is not usable;
// create one with NewNormalizer. A Normalizer is immutable and safe for
// concurrent use.
type Normalizer struct {
	units map[core.StatField][]Unit
}

// NewNormalizer creates a Normalizer with the built-in unit tables.
func NewNormalizer() *Normalizer {
	n := &Normalizer{units: make(map[core.StatField][]Unit, len(core.StatFields))}
	for _, f := range core.StatFields {
		n.units[f] = UnitsFor(f)
	}
	return n
}

// Normalize converts text into a range in field's base unit.
// The boolean is false when text carries no usable number.
func (n *Normalizer) Normalize(field core.StatField, text string) (core.NormalizedRange, bool) {
	text = collapseThousands(strings.ToLower(strings.TrimSpace(text)))
	if text == "" {
		return core.NormalizedRange{}, false
	}

	units := n.units[field]
	var (
		result core.NormalizedRange
		found  bool
		first  float64
	)
	for _, clause := range clauseSeparators.Split(text, -1) {
		numbers := ExtractNumbers(clause)
		if len(numbers) == 0 {
			continue
		}
		factor := detectUnit(units, clause)
		for _, v := range numbers {
			v *= factor
			if math.IsInf(v, 0) {
				continue
			}
			if !found {
				result = core.Point(v)
				first = v
				found = true
				continue
			}
			result.Min = math.Min(result.Min, v)
			result.Max = math.Max(result.Max, v)
		}
	}
	if !found {
		return core.NormalizedRange{}, false
	}

	if field == core.FieldPopulation && isUpperBound(text) {
		return core.NormalizedRange{Min: 0, Max: first}, true
	}
	return result, true
}

// NormalizeInto normalizes text and stores the result on stats.
// Absent results leave the field untouched.
func (n *Normalizer) NormalizeInto(stats *core.Stats, field core.StatField, text string) bool {
	r, ok := n.Normalize(field, text)
	if !ok {
		return false
	}
	stats.Set(field, &r)
	return true
}

func isUpperBound(text string) bool {
	return strings.Contains(text, "less than") || strings.Contains(text, "<")
}

// collapseThousands rewrites "1,000,000" as "1000000" so the comma is not
// mistaken for a clause separator.
func collapseThousands(text string) string {
	for {
		next := thousandsPattern.ReplaceAllString(text, "$1$2$3")
		if next == text {
			return text
		}
		text = next
	}
}
