package core

import (
	"errors"
	"math"
	"testing"
)

func TestValidateSpeciesRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *SpeciesRecord
		wantErr error
	}{
		{
			name:   "valid record",
			record: &SpeciesRecord{ID: "https://www.awf.org/lion", Name: "Lion", Categories: []TypeLabel{Mammal}},
		},
		{
			name:   "valid record without categories",
			record: &SpeciesRecord{ID: "x", Name: "Lion"},
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidSpeciesRecord,
		},
		{
			name:    "empty id",
			record:  &SpeciesRecord{Name: "Lion"},
			wantErr: ErrEmptyID,
		},
		{
			name:    "empty name",
			record:  &SpeciesRecord{ID: "x"},
			wantErr: ErrEmptyName,
		},
		{
			name:    "unknown label",
			record:  &SpeciesRecord{ID: "x", Name: "Lion", Categories: []TypeLabel{"Dragon"}},
			wantErr: ErrInvalidTypeLabel,
		},
		{
			name:    "inverted range",
			record:  &SpeciesRecord{ID: "x", Name: "Lion", Stats: Stats{Weight: &NormalizedRange{Min: 10, Max: 1}}},
			wantErr: ErrInvalidRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpeciesRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSpeciesRecord() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSpeciesRecord() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidSpeciesRecord) {
				t.Errorf("ValidateSpeciesRecord() error should wrap ErrInvalidSpeciesRecord")
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name  string
		r     NormalizedRange
		valid bool
	}{
		{"point", Point(3), true},
		{"zero", Point(0), true},
		{"span", NormalizedRange{1, 2}, true},
		{"negative", NormalizedRange{-1, 2}, false},
		{"inverted", NormalizedRange{3, 2}, false},
		{"nan", NormalizedRange{math.NaN(), 2}, false},
		{"inf", NormalizedRange{0, math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRange(tt.r)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateRange(%v) error = %v, valid %v", tt.r, err, tt.valid)
			}
		})
	}
}

func TestValidateTypeLabel(t *testing.T) {
	for _, l := range TypeLabels {
		if err := ValidateTypeLabel(l); err != nil {
			t.Errorf("ValidateTypeLabel(%q) = %v", l, err)
		}
	}
	if err := ValidateTypeLabel("mammal"); !errors.Is(err, ErrInvalidTypeLabel) {
		t.Errorf("labels are case sensitive, got %v", err)
	}
}
