package ingestion

import (
	"fmt"
	"strings"

	"github.com/poiesic/fauna/core"
	"github.com/poiesic/fauna/stats"
	"github.com/poiesic/fauna/taxonomy"
)

// Enricher turns RawRecords into SpeciesRecords. It holds only immutable
// tables and is safe for concurrent use.
type Enricher struct {
	normalizer *stats.Normalizer
	classifier *taxonomy.Classifier
}

// NewEnricher creates an Enricher that classifies with classifier.
// A nil classifier selects taxonomy.Default().
func NewEnricher(classifier *taxonomy.Classifier) *Enricher {
	if classifier == nil {
		classifier = taxonomy.Default()
	}
	return &Enricher{
		normalizer: stats.NewNormalizer(),
		classifier: classifier,
	}
}

// statSources lists, per field, the fact-table labels consulted when the
// dedicated raw field is empty.
var statSources = map[core.StatField][]string{
	core.FieldWeight:     {"weight"},
	core.FieldLength:     {"length"},
	core.FieldHeight:     {"height", "size"},
	core.FieldWingspan:   {"wingspan"},
	core.FieldTail:       {"tail", "tail length"},
	core.FieldLifespan:   {"lifespan", "life span"},
	core.FieldGestation:  {"gestation"},
	core.FieldPopulation: {"population"},
}

// statText returns the measurement prose for field.
func statText(raw *RawRecord, field core.StatField) string {
	var direct string
	switch field {
	case core.FieldWeight:
		direct = raw.Weight
	case core.FieldLength:
		direct = raw.Length
	case core.FieldHeight:
		direct = firstNonEmpty(raw.Height, raw.Size)
	case core.FieldWingspan:
		direct = raw.Wingspan
	case core.FieldTail:
		direct = raw.Tail
	case core.FieldLifespan:
		direct = raw.Lifespan
	case core.FieldGestation:
		direct = raw.Gestation
	case core.FieldPopulation:
		direct = raw.Population
	}
	if direct = strings.TrimSpace(direct); direct != "" {
		return direct
	}
	return raw.Facts.Lookup(statSources[field]...)
}

// Enrich validates raw and derives a SpeciesRecord from it. It performs no I/O.
// Records without a name or URL are rejected with ErrMissingName or ErrMissingURL.
func (e *Enricher) Enrich(raw RawRecord) (*core.SpeciesRecord, error) {
	name := tidy(raw.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingName, raw.URL)
	}
	link := CanonicalURL(raw.URL)
	if link == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingURL, name)
	}

	source := tidy(raw.Source)
	if source == "" {
		source = core.SourceFromURL(link)
	}

	rawOverview := tidy(firstNonEmpty(raw.DirtyOverview, raw.Overview, raw.Summary))
	record := &core.SpeciesRecord{
		ID:             link,
		Source:         source,
		Name:           name,
		ScientificName: tidy(firstNonEmpty(raw.ScientificName, raw.Facts.Lookup("scientific name"))),
		URL:            link,
		ImageURL:       CanonicalURL(raw.ImageURL),
		Overview:       CleanText(rawOverview),
		RawOverview:    rawOverview,
		Habitat:        tidy(firstNonEmpty(raw.Location, raw.Habitat, raw.Facts.Lookup("habitat", "habitats"))),
		Diet:           tidy(firstNonEmpty(raw.Diet, raw.Facts.Lookup("diet"))),
		Threats:        CleanList(raw.Threats),
	}

	prose := make([]string, 0, len(core.StatFields))
	for _, field := range core.StatFields {
		text := statText(&raw, field)
		if text == "" {
			continue
		}
		prose = append(prose, text)
		e.normalizer.NormalizeInto(&record.Stats, field, text)
	}

	classifyText := strings.Join([]string{
		record.Name,
		record.ScientificName,
		rawOverview,
		raw.WhyTheyMatter,
		raw.Facts.Text(),
		strings.Join(prose, " "),
	}, " ")
	record.Categories = []core.TypeLabel{e.classifier.Classify(classifyText)}

	return record, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
