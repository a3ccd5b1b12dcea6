package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Key is the storage key of a species record.
// It is derived from the record ID with content-based hashing.
type Key uint64

// KeyFromContent generates a deterministic Key from text content using BLAKE2b hashing.
// Identical content always produces identical keys.
func KeyFromContent(text string) Key {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Key(binary.LittleEndian.Uint64(sum))
}

// TypeLabel is a taxonomic category assigned to a species record.
type TypeLabel string

const (
	Mammal        TypeLabel = "Mammal"
	AquaticMammal TypeLabel = "Aquatic Mammal"
	Bird          TypeLabel = "Bird"
	Fish          TypeLabel = "Fish"
	Insect        TypeLabel = "Insect"
	Invertebrate  TypeLabel = "Invertebrate"
	Plant         TypeLabel = "Plant"
	Amphibian     TypeLabel = "Amphibian"
	Reptile       TypeLabel = "Reptile"
	// Animal is the fallback label. The classifier never produces it from positive evidence.
	Animal TypeLabel = "Animal"
)

// TypeLabels lists every valid label, fallback last.
var TypeLabels = []TypeLabel{
	Mammal, AquaticMammal, Bird, Fish, Insect, Invertebrate, Plant, Amphibian, Reptile, Animal,
}

// StatField identifies a numeric statistic of a species.
type StatField string

const (
	FieldWeight     StatField = "weight"     // kg
	FieldLength     StatField = "length"     // cm
	FieldHeight     StatField = "height"     // cm
	FieldWingspan   StatField = "wingspan"   // cm
	FieldTail       StatField = "tail"       // cm
	FieldLifespan   StatField = "lifespan"   // years
	FieldGestation  StatField = "gestation"  // days
	FieldPopulation StatField = "population" // individuals
)

// StatFields lists every statistic in storage order.
var StatFields = []StatField{
	FieldWeight, FieldLength, FieldHeight, FieldWingspan, FieldTail,
	FieldLifespan, FieldGestation, FieldPopulation,
}

// BaseUnit returns the canonical unit a field is normalized into.
func (f StatField) BaseUnit() string {
	switch f {
	case FieldWeight:
		return "kg"
	case FieldLength, FieldHeight, FieldWingspan, FieldTail:
		return "cm"
	case FieldLifespan:
		return "years"
	case FieldGestation:
		return "days"
	default:
		return ""
	}
}

// NormalizedRange is a [Min, Max] interval in a field's base unit.
// A point value has Min == Max.
type NormalizedRange struct {
	Min float64
	Max float64
}

// Point returns the range [v, v].
func Point(v float64) NormalizedRange {
	return NormalizedRange{Min: v, Max: v}
}

// Span returns Max - Min.
func (r NormalizedRange) Span() float64 {
	return r.Max - r.Min
}

// Stats holds the normalized statistics of a species.
// A nil field means the source did not state it or it could not be parsed.
type Stats struct {
	Weight     *NormalizedRange
	Length     *NormalizedRange
	Height     *NormalizedRange
	Wingspan   *NormalizedRange
	Tail       *NormalizedRange
	Lifespan   *NormalizedRange
	Gestation  *NormalizedRange
	Population *NormalizedRange
}

// Get returns the range stored for field, or nil when it is absent.
func (s *Stats) Get(field StatField) *NormalizedRange {
	if s == nil {
		return nil
	}
	switch field {
	case FieldWeight:
		return s.Weight
	case FieldLength:
		return s.Length
	case FieldHeight:
		return s.Height
	case FieldWingspan:
		return s.Wingspan
	case FieldTail:
		return s.Tail
	case FieldLifespan:
		return s.Lifespan
	case FieldGestation:
		return s.Gestation
	case FieldPopulation:
		return s.Population
	}
	return nil
}

// Set stores r for field. A nil r clears the field.
func (s *Stats) Set(field StatField, r *NormalizedRange) {
	switch field {
	case FieldWeight:
		s.Weight = r
	case FieldLength:
		s.Length = r
	case FieldHeight:
		s.Height = r
	case FieldWingspan:
		s.Wingspan = r
	case FieldTail:
		s.Tail = r
	case FieldLifespan:
		s.Lifespan = r
	case FieldGestation:
		s.Gestation = r
	case FieldPopulation:
		s.Population = r
	}
}

// SpeciesRecord is an enriched species description.
// Records are replaced as a whole on re-ingestion, never patched.
type SpeciesRecord struct {
	ID             string // canonical source URL
	Source         string
	Name           string
	ScientificName string
	URL            string
	ImageURL       string
	Categories     []TypeLabel // first entry is the primary category
	Overview       string      // cleaned text used for similarity
	RawOverview    string      // text as published by the source
	Habitat        string
	Diet           string
	Threats        []string
	Stats          Stats
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// Category returns the primary category, or "" when the record carries none.
func (r *SpeciesRecord) Category() TypeLabel {
	if r == nil || len(r.Categories) == 0 {
		return ""
	}
	return r.Categories[0]
}

// Key returns the storage key of the record.
func (r *SpeciesRecord) Key() Key {
	return KeyFromContent(r.ID)
}

// FilterKey names a numeric filter recognized in a search query.
type FilterKey string

const (
	FilterWeight     FilterKey = "weight"
	FilterSize       FilterKey = "size"
	FilterPopulation FilterKey = "population"
	FilterLifespan   FilterKey = "lifespan"
)

// FilterKeys lists the filter keys in evaluation order.
var FilterKeys = []FilterKey{FilterWeight, FilterSize, FilterPopulation, FilterLifespan}

// QueryIntent is the structured reading of a free-text search query.
type QueryIntent struct {
	RawText string
	Numbers []float64
	Filters map[FilterKey][]float64
}

// PredicateKind selects how a RangePredicate compares against a stored range.
type PredicateKind int

const (
	// PredicateBand matches when the stored range overlaps [Lo, Hi].
	PredicateBand PredicateKind = iota + 1
	// PredicateContains matches when the stored range contains Lo.
	PredicateContains
)

// RangePredicate is a numeric filter over one statistic.
type RangePredicate struct {
	Field StatField
	Kind  PredicateKind
	Lo    float64
	Hi    float64
}

// Matches reports whether record satisfies the predicate.
// A record without the statistic never matches.
func (p RangePredicate) Matches(record *SpeciesRecord) bool {
	if record == nil {
		return false
	}
	r := record.Stats.Get(p.Field)
	if r == nil {
		return false
	}
	switch p.Kind {
	case PredicateBand:
		return r.Min <= p.Hi && r.Max >= p.Lo
	case PredicateContains:
		return r.Min <= p.Lo && p.Lo <= r.Max
	}
	return false
}

// Cluster groups result records that share a category.
type Cluster struct {
	Label   TypeLabel
	Count   int
	Members []*SpeciesRecord
}

// Checkpoint records how far an incremental job has progressed.
type Checkpoint struct {
	Name      string    // job name, e.g. "publish:species"
	Watermark time.Time // UpdatedAt of the newest record handled
	Processed uint64    // records handled since the checkpoint was created
	UpdatedAt time.Time
}
