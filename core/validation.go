// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"math"
)

// ValidateSpeciesRecord validates a SpeciesRecord according to domain rules.
//
// Validation rules:
//   - ID and Name must not be empty
//   - every category must be a known TypeLabel
//   - every present statistic must be a valid range
//
// NOT validated:
//   - Overview (records without prose are still searchable by name)
//   - Source (unknown hosts yield "")
func ValidateSpeciesRecord(record *SpeciesRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidSpeciesRecord)
	}

	if record.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSpeciesRecord, ErrEmptyID)
	}

	if record.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSpeciesRecord, ErrEmptyName)
	}

	for _, label := range record.Categories {
		if err := ValidateTypeLabel(label); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSpeciesRecord, err)
		}
	}

	for _, field := range StatFields {
		r := record.Stats.Get(field)
		if r == nil {
			continue
		}
		if err := ValidateRange(*r); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidSpeciesRecord, field, err)
		}
	}

	return nil
}

// ValidateTypeLabel validates that label belongs to the closed label set.
func ValidateTypeLabel(label TypeLabel) error {
	for _, l := range TypeLabels {
		if l == label {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidTypeLabel, string(label))
}

// ValidateRange checks 0 <= Min <= Max with finite bounds.
func ValidateRange(r NormalizedRange) error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return fmt.Errorf("%w: non-finite bound", ErrInvalidRange)
	}
	if r.Min < 0 || r.Min > r.Max {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}
