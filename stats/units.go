package stats

import (
	"regexp"

	"github.com/poiesic/fauna/core"
)

// Unit is a recognizable unit marker and its factor into a field's base unit.
type Unit struct {
	Name    string
	Pattern *regexp.Regexp
	Factor  float64
}

// unitPattern matches any of alts as a standalone token. Digits may touch the
// marker so that "1.2m" and "30kg" are recognized.
func unitPattern(alts string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^a-z])(` + alts + `)(?:[^a-z]|$)`)
}

var (
	weightUnits = []Unit{
		{"ton", unitPattern(`tons?|tonnes?`), 1000},
		{"pound", unitPattern(`pounds?|lbs?`), 0.453592},
		{"kg", unitPattern(`kg|kgs|kilograms?|kilogrammes?|kilos?`), 1},
		{"gram", unitPattern(`g|grams?|grammes?`), 0.001},
	}

	lengthUnits = []Unit{
		{"km", unitPattern(`km|kilometers?|kilometres?`), 100000},
		{"meter", unitPattern(`m|meters?|metres?`), 100},
		{"cm", unitPattern(`cm|centimeters?|centimetres?`), 1},
		{"mm", unitPattern(`mm|millimeters?|millimetres?`), 0.1},
		{"foot", unitPattern(`foot|feet|ft`), 30.48},
		{"inch", unitPattern(`inch|inches`), 2.54},
	}

	lifespanUnits = []Unit{
		{"year", unitPattern(`years?|yrs?`), 1},
		{"month", unitPattern(`months?`), 1.0 / 12},
		{"week", unitPattern(`weeks?`), 1.0 / 52},
	}

	gestationUnits = []Unit{
		{"month", unitPattern(`months?`), 30},
		{"week", unitPattern(`weeks?`), 7},
		{"day", unitPattern(`days?`), 1},
		{"year", unitPattern(`years?`), 365},
	}

	populationUnits = []Unit{
		{"billion", unitPattern(`billion|bn`), 1e9},
		{"million", unitPattern(`million|mn`), 1e6},
		{"thousand", unitPattern(`thousand`), 1e3},
	}
)

// UnitsFor returns the unit table for field. Fields without a table return nil,
// and their numbers are taken as already in the base unit.
func UnitsFor(field core.StatField) []Unit {
	switch field {
	case core.FieldWeight:
		return weightUnits
	case core.FieldLength, core.FieldHeight, core.FieldWingspan, core.FieldTail:
		return lengthUnits
	case core.FieldLifespan:
		return lifespanUnits
	case core.FieldGestation:
		return gestationUnits
	case core.FieldPopulation:
		return populationUnits
	}
	return nil
}

// detectUnit returns the factor of the earliest unit marker in clause, or 1
// when the clause carries none.
func detectUnit(units []Unit, clause string) float64 {
	factor := 1.0
	best := -1
	for _, u := range units {
		loc := u.Pattern.FindStringSubmatchIndex(clause)
		if loc == nil {
			continue
		}
		if best == -1 || loc[2] < best {
			best = loc[2]
			factor = u.Factor
		}
	}
	return factor
}
