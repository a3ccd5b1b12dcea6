package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/fauna/core"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name    string
		field   core.StatField
		text    string
		wantMin float64
		wantMax float64
	}{
		{"tons to kg", core.FieldWeight, "2 tons", 2000, 2000},
		{"tonnes range", core.FieldWeight, "2.5-6 tonnes", 2500, 6000},
		{"pounds", core.FieldWeight, "Up to 100 lbs", 45.3592, 45.3592},
		{"bare kg", core.FieldWeight, "150 - 250 kg", 150, 250},
		{"grams", core.FieldWeight, "20-30 g", 0.02, 0.03},
		{"no unit defaults to base", core.FieldWeight, "30 to 45", 30, 45},
		{"mixed clauses", core.FieldLength, "30 cm; 1.2 m", 30, 120},
		{"meters touching digit", core.FieldHeight, "1.2m", 120, 120},
		{"centimeters is not meters", core.FieldLength, "40 centimeters", 40, 40},
		{"millimeters", core.FieldWingspan, "25mm", 2.5, 2.5},
		{"feet", core.FieldLength, "10 feet", 304.8, 304.8},
		{"inches", core.FieldTail, "4 inches", 10.16, 10.16},
		{"earliest marker wins", core.FieldLength, "6 ft or 2 m", 60.96, 182.88},
		{"parenthetical conversion is its own clause", core.FieldLength, "2 m (about 6.5 ft)", 198.12, 200},
		{"parenthetical weight", core.FieldWeight, "up to 1 ton (2,000 lb)", 907.184, 1000},
		{"lifespan point", core.FieldLifespan, "Up to 20 years", 20, 20},
		{"lifespan months", core.FieldLifespan, "18 months", 1.5, 1.5},
		{"gestation months", core.FieldGestation, "22 months", 660, 660},
		{"gestation weeks", core.FieldGestation, "3-4 weeks", 21, 28},
		{"gestation days", core.FieldGestation, "105 days", 105, 105},
		{"population million", core.FieldPopulation, "1.5 million", 1.5e6, 1.5e6},
		{"population thousands separator", core.FieldPopulation, "415,000", 415000, 415000},
		{"population thousand word", core.FieldPopulation, "3 thousand", 3000, 3000},
		{"population less than", core.FieldPopulation, "less than 500", 0, 500},
		{"population less than ignores later numbers", core.FieldPopulation, "Less than 2,500; 10 subpopulations", 0, 2500},
		{"population lt sign", core.FieldPopulation, "< 4 thousand", 0, 4000},
		{"clause min max merge", core.FieldWeight, "males 180 kg, females 120 kg", 120, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Normalize(tt.field, tt.text)
			require.True(t, ok)
			assert.InDelta(t, tt.wantMin, got.Min, 1e-6)
			assert.InDelta(t, tt.wantMax, got.Max, 1e-6)
		})
	}
}

func TestNormalizeAbsent(t *testing.T) {
	n := NewNormalizer()

	for _, text := range []string{"", "   ", "unknown", "not evaluated; data deficient", "-"} {
		t.Run(text, func(t *testing.T) {
			_, ok := n.Normalize(core.FieldWeight, text)
			assert.False(t, ok)
		})
	}
}

func TestNormalizeInvariant(t *testing.T) {
	n := NewNormalizer()
	inputs := []string{
		"-5 kg", "3 - 1 m", "between 10 and 2", "1e9", "less than -3",
		"99999999999999999999999999 tons", "0", "2,5 m", "< 1", "1,2,3",
	}

	for _, field := range core.StatFields {
		for _, text := range inputs {
			r, ok := n.Normalize(field, text)
			if !ok {
				continue
			}
			assert.GreaterOrEqual(t, r.Min, 0.0, "%s %q", field, text)
			assert.LessOrEqual(t, r.Min, r.Max, "%s %q", field, text)
			assert.NoError(t, core.ValidateRange(r))
		}
	}
}

func TestNormalizeInto(t *testing.T) {
	n := NewNormalizer()
	var s core.Stats

	assert.True(t, n.NormalizeInto(&s, core.FieldWeight, "2 tons"))
	assert.False(t, n.NormalizeInto(&s, core.FieldLength, "unknown"))

	require.NotNil(t, s.Weight)
	assert.Equal(t, core.Point(2000), *s.Weight)
	assert.Nil(t, s.Length)
}

func TestExtractNumbers(t *testing.T) {
	assert.Equal(t, []float64{50}, ExtractNumbers("animals under 50 kg"))
	assert.Equal(t, []float64{2, 3.5, 10}, ExtractNumbers("2-3.5 m, 10ft"))
	assert.Empty(t, ExtractNumbers("no numbers here"))
}

func TestUnitsFor(t *testing.T) {
	for _, f := range core.StatFields {
		assert.NotEmpty(t, UnitsFor(f), f)
	}
	assert.Nil(t, UnitsFor("colour"))
}
