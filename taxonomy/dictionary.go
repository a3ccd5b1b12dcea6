package taxonomy

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/fauna/core"
)

// PatternBonus is the score added per matching scientific-name pattern.
const PatternBonus = 2

// Rule scores one label.
type Rule struct {
	Label    core.TypeLabel `yaml:"label"`
	Weight   int            `yaml:"weight"`
	Keywords []string       `yaml:"keywords"`
	Patterns []string       `yaml:"patterns,omitempty"`
}

// Threshold holds when Label's score is strictly greater than Above.
type Threshold struct {
	Label core.TypeLabel `yaml:"label"`
	Above int            `yaml:"above"`
}

// Suppression zeroes the Zero labels when any group of AnyOf holds.
// A group holds when all of its thresholds hold.
type Suppression struct {
	AnyOf [][]Threshold    `yaml:"any_of"`
	Zero  []core.TypeLabel `yaml:"zero"`
}

func (s Suppression) holds(scores Scores) bool {
	for _, group := range s.AnyOf {
		if len(group) == 0 {
			continue
		}
		all := true
		for _, th := range group {
			if scores[th.Label] <= th.Above {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// Dictionary is the declarative classifier configuration.
type Dictionary struct {
	Rules        []Rule           `yaml:"rules"`
	Suppressions []Suppression    `yaml:"suppressions"`
	Priority     []core.TypeLabel `yaml:"priority"`
}

// Validate checks that every label is known and every rule has a positive weight.
func (d *Dictionary) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: dictionary is nil", ErrInvalidDictionary)
	}
	if len(d.Priority) == 0 {
		return fmt.Errorf("%w: priority is empty", ErrInvalidDictionary)
	}
	for _, r := range d.Rules {
		if err := checkLabel(r.Label); err != nil {
			return err
		}
		if r.Weight <= 0 {
			return fmt.Errorf("%w: rule %q weight must be positive", ErrInvalidDictionary, r.Label)
		}
	}
	for _, s := range d.Suppressions {
		for _, group := range s.AnyOf {
			for _, th := range group {
				if err := checkLabel(th.Label); err != nil {
					return err
				}
			}
		}
		for _, l := range s.Zero {
			if err := checkLabel(l); err != nil {
				return err
			}
		}
	}
	for _, l := range d.Priority {
		if err := checkLabel(l); err != nil {
			return err
		}
		if l == core.Animal {
			return fmt.Errorf("%w: %s is the fallback and cannot be ranked", ErrInvalidDictionary, core.Animal)
		}
	}
	return nil
}

func checkLabel(l core.TypeLabel) error {
	if err := core.ValidateTypeLabel(l); err != nil {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDictionary, ErrUnknownLabel, string(l))
	}
	return nil
}

// Clone returns a deep copy of d.
func (d *Dictionary) Clone() *Dictionary {
	out := &Dictionary{
		Rules:        make([]Rule, len(d.Rules)),
		Suppressions: make([]Suppression, len(d.Suppressions)),
		Priority:     slices.Clone(d.Priority),
	}
	for i, r := range d.Rules {
		r.Keywords = slices.Clone(r.Keywords)
		r.Patterns = slices.Clone(r.Patterns)
		out.Rules[i] = r
	}
	for i, s := range d.Suppressions {
		groups := make([][]Threshold, len(s.AnyOf))
		for j, g := range s.AnyOf {
			groups[j] = slices.Clone(g)
		}
		out.Suppressions[i] = Suppression{AnyOf: groups, Zero: slices.Clone(s.Zero)}
	}
	return out
}

// Merge returns a copy of d with overrides applied. Rules replace the rule of
// the same label or are appended. Non-empty suppression and priority lists
// replace the base lists wholesale.
func (d *Dictionary) Merge(overrides *Dictionary) *Dictionary {
	merged := d.Clone()
	if overrides == nil {
		return merged
	}
	ov := overrides.Clone()
	for _, r := range ov.Rules {
		idx := slices.IndexFunc(merged.Rules, func(existing Rule) bool { return existing.Label == r.Label })
		if idx >= 0 {
			merged.Rules[idx] = r
		} else {
			merged.Rules = append(merged.Rules, r)
		}
	}
	if len(ov.Suppressions) > 0 {
		merged.Suppressions = ov.Suppressions
	}
	if len(ov.Priority) > 0 {
		merged.Priority = ov.Priority
	}
	return merged
}

// LoadDictionary reads YAML overrides from path and merges them over the
// defaults. An empty path returns the defaults.
func LoadDictionary(path string) (*Dictionary, error) {
	defaults := DefaultDictionary()

	clean := strings.TrimSpace(path)
	if clean == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(filepath.Clean(clean))
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}

	var overrides Dictionary
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDictionary, err)
	}

	merged := defaults.Merge(&overrides)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// DefaultDictionary returns a fresh copy of the built-in dictionary.
func DefaultDictionary() *Dictionary {
	return &Dictionary{
		Rules: []Rule{
			{
				Label:  core.Plant,
				Weight: 3,
				Keywords: []string{
					"plant", "flower", "petal", "leaf", "leaves", "stem", "seed", "grass", "weed",
					"shrub", "tree", "bark", "root", "rosette", "wildflower", "botanical", "algae",
					"lichen", "moss", "fungi", "photosynthesis", "pollination", "woodlands",
					"evergreen", "deciduous", "gardens",
				},
				Patterns: []string{`\w*aceae\b`, `\blanceolata\b`, `\bofficinalis\b`},
			},
			{
				Label:  core.Invertebrate,
				Weight: 4,
				Keywords: []string{
					"invertebrate", "cnidarian", "jellyfish", "coral", "anemone", "medusa",
					"arthropod", "crustacean", "mollusk", "mollusc", "octopus", "squid", "snail",
					"slug", "worm", "annelid", "plankton", "echinoderm", "starfish", "sea star",
					"urchin",
				},
				Patterns: []string{`\bcnidaria\b`, `\bcephalopoda\b`},
			},
			{
				Label:  core.Fish,
				Weight: 9,
				Keywords: []string{
					"fish", "shark", "whale shark", "ray", "eel", "gill", "fins", "school",
					"cartilaginous", "bony fish", "teleost", "swim bladder", "lateral line",
					"spawning", "aquatic", "freshwater", "saltwater", "turtles", "turtle",
					"sea turtles", "sea turtle", "tentacles",
				},
				Patterns: []string{`\bidae\b`},
			},
			{
				Label:  core.AquaticMammal,
				Weight: 10,
				Keywords: []string{
					"whale", "dolphin", "porpoise", "seal", "walrus", "manatee", "dugong",
					"cetacean", "pinniped", "blubber", "echolocation", "fluke", "flipper", "baleen",
					"toothed whale", "orca", "narwhal", "sea lion",
				},
			},
			{
				Label:  core.Mammal,
				Weight: 7,
				Keywords: []string{
					"mammal", "fur", "hair", "gestation", "placental", "hooves", "antlers", "horns",
					"teeth", "paws", "herbivore", "carnivore", "omnivore", "kilograms",
					"centimeters", "lactation", "mane", "tail", "snout", "ears", "tusks", "dewlap",
					"scrotum", "udder", "teats", "calf", "fawn", "juvenile", "herd", "troop", "pack",
					"nocturnal", "diurnal", "herbivorous", "carnivorous", "omnivorous",
					"insectivorous", "meters", "shoulder height", "antelope", "bovid", "canid",
					"primate", "ungulate", "territorial", "otter", "badger", "weasel", "mongoose",
					"mammals", "badgers", "gorilla", "kangaroo", "elephants", "elephant",
				},
				Patterns: []string{`\bidae\b`, `\bssp\.`},
			},
			{
				Label:  core.Bird,
				Weight: 5,
				Keywords: []string{
					"bird", "avian", "feathers", "beak", "bill", "wings", "flight", "nest", "eggs",
					"migratory", "songbird", "raptor", "wingspan", "flock", "scavenger", "vulture",
					"crane", "ostrich", "lovebird", "falcon",
				},
				Patterns: []string{`\bidae\b`, `\baves\b`},
			},
			{
				Label:  core.Reptile,
				Weight: 3,
				Keywords: []string{
					"reptile", "snake", "lizard", "crocodile", "alligator", "turtle", "tortoise",
					"gecko", "iguana", "scales", "cold-blooded",
				},
				Patterns: []string{`\bidae\b`, `\bsquamata\b`},
			},
			{
				Label:    core.Amphibian,
				Weight:   3,
				Keywords: []string{"amphibian", "frog", "toad", "newt", "salamander", "tadpole", "metamorphosis"},
				Patterns: []string{`\bidae\b`, `\banura\b`},
			},
			{
				Label:  core.Insect,
				Weight: 5,
				Keywords: []string{
					"insect", "butterfly", "moth", "bee", "wasp", "ant", "beetle", "dragonfly",
					"grasshopper", "mosquito", "fly", "larva", "caterpillar", "pupa", "thorax",
					"abdomen", "compound eye", "antennae", "beetles", "arachnid", "spider", "mite",
					"tick", "honeycomb", "swarm", "larvae", "pollen", "hoverfly", "projection",
					"pupate",
				},
			},
		},
		Suppressions: []Suppression{
			{
				AnyOf: [][]Threshold{{{Label: core.Invertebrate, Above: 4}}},
				Zero:  []core.TypeLabel{core.Bird, core.Mammal, core.Reptile, core.Amphibian},
			},
			{
				AnyOf: [][]Threshold{
					{{Label: core.Mammal}, {Label: core.AquaticMammal}},
					{{Label: core.Bird}, {Label: core.Fish}},
					{{Label: core.Invertebrate}, {Label: core.Fish}},
				},
				Zero: []core.TypeLabel{core.Insect},
			},
		},
		Priority: []core.TypeLabel{
			core.AquaticMammal, core.Bird, core.Fish, core.Mammal, core.Insect,
			core.Invertebrate, core.Plant, core.Amphibian, core.Reptile,
		},
	}
}
