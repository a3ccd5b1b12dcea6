package taxonomy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/poiesic/fauna/core"
)

// Scores maps each label to its score.
type Scores map[core.TypeLabel]int

type compiledRule struct {
	label    core.TypeLabel
	weight   int
	keywords []string
	patterns []*regexp.Regexp
}

// Classifier is a compiled Dictionary.
type Classifier struct {
	rules        []compiledRule
	suppressions []Suppression
	priority     []core.TypeLabel
}

// NewClassifier validates and compiles dict. The dictionary is copied, so later
// changes to it do not affect the Classifier.
func NewClassifier(dict *Dictionary) (*Classifier, error) {
	if err := dict.Validate(); err != nil {
		return nil, err
	}
	dict = dict.Clone()

	c := &Classifier{
		rules:        make([]compiledRule, 0, len(dict.Rules)),
		suppressions: dict.Suppressions,
		priority:     dict.Priority,
	}
	for _, r := range dict.Rules {
		cr := compiledRule{label: r.Label, weight: r.Weight}
		seen := make(map[string]bool, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			cr.keywords = append(cr.keywords, kw)
		}
		for _, p := range r.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, p, err)
			}
			cr.patterns = append(cr.patterns, re)
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// MustNewClassifier is like NewClassifier but panics on error.
// It is intended for the built-in dictionary.
func MustNewClassifier(dict *Dictionary) *Classifier {
	c, err := NewClassifier(dict)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns a Classifier over DefaultDictionary.
func Default() *Classifier {
	return MustNewClassifier(DefaultDictionary())
}

// Score returns the label scores for text after suppression.
func (c *Classifier) Score(text string) Scores {
	t := strings.ToLower(text)
	scores := make(Scores, len(c.rules))
	if strings.TrimSpace(t) == "" {
		return scores
	}

	for _, r := range c.rules {
		for _, kw := range r.keywords {
			if strings.Contains(t, kw) {
				scores[r.label] += r.weight
			}
		}
		for _, re := range r.patterns {
			if re.MatchString(t) {
				scores[r.label] += PatternBonus
			}
		}
	}

	for _, s := range c.suppressions {
		if !s.holds(scores) {
			continue
		}
		for _, l := range s.Zero {
			scores[l] = 0
		}
	}
	return scores
}

// Classify returns the best label for text, or core.Animal when nothing scores.
func (c *Classifier) Classify(text string) core.TypeLabel {
	return c.Select(c.Score(text))
}

// Select picks the winning label from scores in priority order.
// Ties go to the label ranked first.
func (c *Classifier) Select(scores Scores) core.TypeLabel {
	best := core.Animal
	bestScore := 0
	for _, l := range c.priority {
		if scores[l] > bestScore {
			bestScore = scores[l]
			best = l
		}
	}
	return best
}
