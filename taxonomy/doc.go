// Package taxonomy assigns a taxonomic category to free text with weighted
// keyword dictionaries.
//
// Classification is three declarative stages evaluated in order:
//  1. every Rule scores the text: each distinct keyword found as a substring adds
//     the rule's weight and each matching scientific-name pattern adds PatternBonus
//  2. Suppressions run in sequence, zeroing labels when their condition holds
//  3. labels are visited in Priority order and the first strict improvement wins
//
// When every score is zero the result is core.Animal. A Dictionary is plain data
// that can be overridden from YAML; a Classifier is its compiled, immutable form
// and is safe to share between goroutines.
package taxonomy
