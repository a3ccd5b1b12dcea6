package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// RawRecord is a species description as extracted from a source page.
// Every measurement is still free text; Enrich turns it into a core.SpeciesRecord.
type RawRecord struct {
	URL            string   `json:"url"`
	Name           string   `json:"name"`
	ScientificName string   `json:"scientific_name,omitempty"`
	Overview       string   `json:"overview,omitempty"`
	DirtyOverview  string   `json:"dirty_overview,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	WhyTheyMatter  string   `json:"why_they_matter,omitempty"`
	Weight         string   `json:"weight,omitempty"`
	Length         string   `json:"length,omitempty"`
	Height         string   `json:"height,omitempty"`
	Size           string   `json:"size,omitempty"`
	Wingspan       string   `json:"wingspan,omitempty"`
	Tail           string   `json:"tail,omitempty"`
	Lifespan       string   `json:"lifespan,omitempty"`
	Gestation      string   `json:"gestation,omitempty"`
	Population     string   `json:"population,omitempty"`
	Location       string   `json:"location,omitempty"`
	Habitat        string   `json:"habitat,omitempty"`
	Diet           string   `json:"diet,omitempty"`
	Predators      string   `json:"predators,omitempty"`
	Threats        []string `json:"threats,omitempty"`
	Facts          Facts    `json:"facts,omitzero"`
	ImageURL       string   `json:"image_url,omitempty"`
	Source         string   `json:"source,omitempty"`
}

// Facts holds the fact block of a page. Some sources publish a list of
// sentences, others a table of labelled values; both decode into Facts.
type Facts struct {
	Items  []string
	Fields map[string]string
}

// UnmarshalJSON accepts a JSON array of strings, an object of string values, or null.
func (f *Facts) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = Facts{}
		return nil
	case data[0] == '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decoding fact list: %w", err)
		}
		*f = Facts{Items: items}
		return nil
	case data[0] == '{':
		var fields map[string]string
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("decoding fact table: %w", err)
		}
		*f = Facts{Fields: fields}
		return nil
	}
	return fmt.Errorf("decoding facts: unexpected JSON %q", string(data[:1]))
}

// MarshalJSON writes the table form when fields are present, the list form otherwise.
func (f Facts) MarshalJSON() ([]byte, error) {
	if len(f.Fields) > 0 {
		return json.Marshal(f.Fields)
	}
	if f.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f.Items)
}

// IsZero reports whether no facts were published.
func (f Facts) IsZero() bool {
	return len(f.Items) == 0 && len(f.Fields) == 0
}

// Lookup returns the first non-empty field whose label matches one of labels,
// ignoring case and a trailing colon. Labels that fold together are tried in
// sorted order.
func (f Facts) Lookup(labels ...string) string {
	keys := f.sortedKeys()
	for _, want := range labels {
		for _, k := range keys {
			v := strings.TrimSpace(f.Fields[k])
			if strings.EqualFold(strings.TrimSuffix(strings.TrimSpace(k), ":"), want) && v != "" {
				return v
			}
		}
	}
	return ""
}

func (f Facts) sortedKeys() []string {
	keys := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Text flattens the facts into one string: list items first, then
// "label value" pairs in label order.
func (f Facts) Text() string {
	parts := make([]string, 0, len(f.Items)+len(f.Fields))
	for _, item := range f.Items {
		if item = strings.TrimSpace(item); item != "" {
			parts = append(parts, item)
		}
	}
	for _, k := range f.sortedKeys() {
		parts = append(parts, strings.TrimSpace(k+" "+f.Fields[k]))
	}
	return strings.Join(parts, " ")
}
