package index

import (
	"time"

	"github.com/poiesic/fauna/core"
)

// Document is the flat representation of a SpeciesRecord in the index.
// Every statistic becomes a pair of numeric fields, e.g. weight_kg_min and
// weight_kg_max, so that range filters can run server side.
type Document struct {
	ID             string    `json:"id"`
	Source         string    `json:"source,omitempty"`
	Name           string    `json:"name"`
	ScientificName string    `json:"scientific_name,omitempty"`
	URL            string    `json:"url"`
	ImageURL       string    `json:"image_url,omitempty"`
	AnimalType     []string  `json:"animal_type"`
	Summary        string    `json:"summary,omitempty"`
	Overview       string    `json:"overview,omitempty"`
	Habitat        string    `json:"habitat,omitempty"`
	Diet           string    `json:"diet,omitempty"`
	Threats        []string  `json:"threats,omitempty"`
	InsertedAt     time.Time `json:"inserted_at,omitzero"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`

	WeightMin     *float64 `json:"weight_kg_min,omitempty"`
	WeightMax     *float64 `json:"weight_kg_max,omitempty"`
	LengthMin     *float64 `json:"length_cm_min,omitempty"`
	LengthMax     *float64 `json:"length_cm_max,omitempty"`
	HeightMin     *float64 `json:"height_cm_min,omitempty"`
	HeightMax     *float64 `json:"height_cm_max,omitempty"`
	WingspanMin   *float64 `json:"wingspan_cm_min,omitempty"`
	WingspanMax   *float64 `json:"wingspan_cm_max,omitempty"`
	TailMin       *float64 `json:"tail_cm_min,omitempty"`
	TailMax       *float64 `json:"tail_cm_max,omitempty"`
	LifespanMin   *float64 `json:"lifespan_year_min,omitempty"`
	LifespanMax   *float64 `json:"lifespan_year_max,omitempty"`
	GestationMin  *float64 `json:"gestation_day_min,omitempty"`
	GestationMax  *float64 `json:"gestation_day_max,omitempty"`
	PopulationMin *float64 `json:"population_min,omitempty"`
	PopulationMax *float64 `json:"population_max,omitempty"`
}

// rangeField returns the index field prefix for a statistic.
func rangeField(field core.StatField) string {
	switch field {
	case core.FieldWeight:
		return "weight_kg"
	case core.FieldLength:
		return "length_cm"
	case core.FieldHeight:
		return "height_cm"
	case core.FieldWingspan:
		return "wingspan_cm"
	case core.FieldTail:
		return "tail_cm"
	case core.FieldLifespan:
		return "lifespan_year"
	case core.FieldGestation:
		return "gestation_day"
	case core.FieldPopulation:
		return "population"
	}
	return string(field)
}

func (d *Document) bounds(field core.StatField) (lo, hi **float64) {
	switch field {
	case core.FieldWeight:
		return &d.WeightMin, &d.WeightMax
	case core.FieldLength:
		return &d.LengthMin, &d.LengthMax
	case core.FieldHeight:
		return &d.HeightMin, &d.HeightMax
	case core.FieldWingspan:
		return &d.WingspanMin, &d.WingspanMax
	case core.FieldTail:
		return &d.TailMin, &d.TailMax
	case core.FieldLifespan:
		return &d.LifespanMin, &d.LifespanMax
	case core.FieldGestation:
		return &d.GestationMin, &d.GestationMax
	case core.FieldPopulation:
		return &d.PopulationMin, &d.PopulationMax
	}
	return nil, nil
}

// NewDocument flattens record for indexing.
func NewDocument(record *core.SpeciesRecord) *Document {
	d := &Document{
		ID:             record.ID,
		Source:         record.Source,
		Name:           record.Name,
		ScientificName: record.ScientificName,
		URL:            record.URL,
		ImageURL:       record.ImageURL,
		AnimalType:     make([]string, 0, len(record.Categories)),
		Summary:        record.RawOverview,
		Overview:       record.Overview,
		Habitat:        record.Habitat,
		Diet:           record.Diet,
		Threats:        record.Threats,
		InsertedAt:     record.InsertedAt,
		UpdatedAt:      record.UpdatedAt,
	}
	for _, l := range record.Categories {
		d.AnimalType = append(d.AnimalType, string(l))
	}
	if len(d.AnimalType) == 0 {
		d.AnimalType = append(d.AnimalType, string(core.Animal))
	}
	for _, field := range core.StatFields {
		r := record.Stats.Get(field)
		if r == nil {
			continue
		}
		lo, hi := d.bounds(field)
		minV, maxV := r.Min, r.Max
		*lo, *hi = &minV, &maxV
	}
	return d
}

// Record converts the document back into a SpeciesRecord.
// A statistic is present only when both of its bounds are.
func (d *Document) Record() *core.SpeciesRecord {
	r := &core.SpeciesRecord{
		ID:             d.ID,
		Source:         d.Source,
		Name:           d.Name,
		ScientificName: d.ScientificName,
		URL:            d.URL,
		ImageURL:       d.ImageURL,
		Categories:     make([]core.TypeLabel, 0, len(d.AnimalType)),
		Overview:       d.Overview,
		RawOverview:    d.Summary,
		Habitat:        d.Habitat,
		Diet:           d.Diet,
		Threats:        d.Threats,
		InsertedAt:     d.InsertedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if r.ID == "" {
		r.ID = d.URL
	}
	for _, t := range d.AnimalType {
		r.Categories = append(r.Categories, core.TypeLabel(t))
	}
	for _, field := range core.StatFields {
		lo, hi := d.bounds(field)
		if *lo == nil || *hi == nil {
			continue
		}
		r.Stats.Set(field, &core.NormalizedRange{Min: **lo, Max: **hi})
	}
	return r
}

// indexMapping is the body of the index creation request.
func indexMapping() map[string]any {
	text := map[string]any{"type": "text"}
	keyword := map[string]any{"type": "keyword"}
	properties := map[string]any{
		"id":   keyword,
		"url":  keyword,
		"name": map[string]any{"type": "text", "fields": map[string]any{"raw": keyword}},
		"scientific_name": map[string]any{
			"type": "text", "fields": map[string]any{"raw": keyword},
		},
		"source":      keyword,
		"image_url":   map[string]any{"type": "keyword", "index": false},
		"animal_type": keyword,
		"summary":     text,
		"overview":    text,
		"habitat":     text,
		"diet":        text,
		"threats":     text,
		"inserted_at": map[string]any{"type": "date"},
		"updated_at":  map[string]any{"type": "date"},
	}
	for _, field := range core.StatFields {
		prefix := rangeField(field)
		properties[prefix+"_min"] = map[string]any{"type": "double"}
		properties[prefix+"_max"] = map[string]any{"type": "double"}
	}
	return map[string]any{"mappings": map[string]any{"properties": properties}}
}
