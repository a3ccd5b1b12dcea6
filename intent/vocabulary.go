package intent

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/fauna/core"
)

// DefaultTolerance is the relative half-width of a weight or size band.
const DefaultTolerance = 0.25

// Vocabulary holds the trigger words of each filter.
type Vocabulary struct {
	Triggers  map[core.FilterKey][]string `yaml:"triggers"`
	Tolerance float64                     `yaml:"tolerance"`
}

// DefaultVocabulary returns a fresh copy of the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Triggers: map[core.FilterKey][]string{
			core.FilterWeight:     {"weight", "weigh", "kg", "kilogram"},
			core.FilterSize:       {"size", "length", "height", "cm", "meter", "metre"},
			core.FilterPopulation: {"population", "pop", "individuals"},
			core.FilterLifespan:   {"lifespan", "age", "years"},
		},
		Tolerance: DefaultTolerance,
	}
}

// Validate checks that only known filter keys carry triggers and that the
// tolerance lies in [0, 1).
func (v *Vocabulary) Validate() error {
	if v == nil {
		return fmt.Errorf("%w: vocabulary is nil", ErrInvalidVocabulary)
	}
	for key := range v.Triggers {
		if !slices.Contains(core.FilterKeys, key) {
			return fmt.Errorf("%w: unknown filter %q", ErrInvalidVocabulary, string(key))
		}
	}
	if v.Tolerance < 0 || v.Tolerance >= 1 {
		return fmt.Errorf("%w: tolerance %g outside [0, 1)", ErrInvalidVocabulary, v.Tolerance)
	}
	return nil
}

// LoadVocabulary reads YAML overrides from path over the defaults. Trigger
// lists replace the default list of the same filter. An empty path returns the
// defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	vocab := DefaultVocabulary()

	clean := strings.TrimSpace(path)
	if clean == "" {
		return vocab, nil
	}

	data, err := os.ReadFile(filepath.Clean(clean))
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}

	var overrides Vocabulary
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVocabulary, err)
	}

	maps.Copy(vocab.Triggers, overrides.Triggers)
	if overrides.Tolerance != 0 {
		vocab.Tolerance = overrides.Tolerance
	}
	if err := vocab.Validate(); err != nil {
		return nil, err
	}
	return vocab, nil
}
