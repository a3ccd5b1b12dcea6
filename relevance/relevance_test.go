package relevance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/fauna/core"
)

func rng(lo, hi float64) *core.NormalizedRange {
	return &core.NormalizedRange{Min: lo, Max: hi}
}

func record(id string, label core.TypeLabel, overview string, length *core.NormalizedRange) *core.SpeciesRecord {
	r := &core.SpeciesRecord{ID: id, Name: id, Overview: overview}
	if label != "" {
		r.Categories = []core.TypeLabel{label}
	}
	r.Stats.Length = length
	return r
}

func TestTextJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "lion pride savanna", "lion pride savanna", 1},
		{"case and punctuation", "Lion, pride!", "lion pride", 1},
		{"partial", "lion pride savanna", "lion savanna desert", 0.5},
		{"disjoint", "lion", "eagle", 0},
		{"empty side", "", "lion", 0},
		{"no words", "!!!", "lion", 0},
		{"duplicates collapse", "lion lion", "lion", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TextJaccard(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRangeOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b *core.NormalizedRange
		want float64
	}{
		{"identical", rng(10, 20), rng(10, 20), 1},
		{"half", rng(0, 10), rng(5, 15), 0.5},
		{"wider span divides", rng(0, 10), rng(0, 20), 0.5},
		{"disjoint", rng(0, 10), rng(20, 30), 0},
		{"points", rng(5, 5), rng(5, 5), 0},
		{"absent", nil, rng(0, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RangeOverlap(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity(t *testing.T) {
	lion := record("lion", core.Mammal, "large cat of the savanna", rng(140, 250))
	tiger := record("tiger", core.Mammal, "large cat of the forest", rng(140, 250))
	eagle := record("eagle", core.Bird, "raptor of the mountains", rng(70, 90))

	assert.InDelta(t, 0.9, Similarity(lion, lion), 1e-9)
	// 4 shared words of 6, same category, identical length
	assert.InDelta(t, 0.4*4.0/6.0+0.3+0.2, Similarity(lion, tiger), 1e-9)
	// "of" and "the" shared out of 7 distinct words
	assert.InDelta(t, 0.4*2.0/7.0, Similarity(lion, eagle), 1e-9)
	assert.Zero(t, Similarity(nil, lion))
}

func TestSimilarityUnknownCategory(t *testing.T) {
	a := record("a", "", "", nil)
	b := record("b", "", "", nil)
	assert.Zero(t, Similarity(a, b))
}

func TestSimilarityBounds(t *testing.T) {
	overviews := []string{"", "lion", "lion pride", "eagle nest cliff", "lion eagle"}
	labels := []core.TypeLabel{"", core.Mammal, core.Bird}
	lengths := []*core.NormalizedRange{nil, rng(0, 0), rng(10, 20), rng(15, 40), rng(100, 100)}

	var records []*core.SpeciesRecord
	for i, o := range overviews {
		for j, l := range labels {
			for k, ln := range lengths {
				records = append(records, record(fmt.Sprintf("%d-%d-%d", i, j, k), l, o, ln))
			}
		}
	}

	for _, a := range records {
		for _, b := range records {
			s := Similarity(a, b)
			require.GreaterOrEqual(t, s, 0.0)
			require.LessOrEqual(t, s, 0.9+1e-12)
		}
		if a.Category() != "" && a.Overview != "" {
			assert.GreaterOrEqual(t, Similarity(a, a), 0.7-1e-12, a.ID)
		}
	}
}

func TestRank(t *testing.T) {
	base := record("base", core.Mammal, "large cat savanna", rng(100, 200))
	twin := record("twin", core.Mammal, "large cat savanna", rng(100, 200))
	cousin := record("cousin", core.Mammal, "large cat forest", rng(100, 200))
	stranger := record("stranger", core.Bird, "small bird", nil)
	tieA := record("tieA", core.Fish, "reef", nil)
	tieB := record("tieB", core.Fish, "reef", nil)
	copyOfBase := record("base", core.Mammal, "large cat savanna", rng(100, 200))

	candidates := []*core.SpeciesRecord{tieA, stranger, cousin, base, tieB, twin, copyOfBase}

	got := Rank(base, candidates, 3)
	assert.Equal(t, []*core.SpeciesRecord{twin, cousin, tieA}, got)

	t.Run("default k", func(t *testing.T) {
		got := Rank(base, candidates, 0)
		assert.Len(t, got, 5)
		assert.NotContains(t, got, base)
		assert.NotContains(t, got, copyOfBase)
	})

	t.Run("stable ties", func(t *testing.T) {
		got := Rank(base, candidates, 10)
		assert.Equal(t, []*core.SpeciesRecord{twin, cousin, tieA, stranger, tieB}, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		first := Rank(base, candidates, 5)
		assert.Equal(t, first, Rank(base, first, 5))
	})

	t.Run("empty pool", func(t *testing.T) {
		assert.Empty(t, Rank(base, nil, 5))
	})
}

func TestCluster(t *testing.T) {
	a := record("a", core.Bird, "", nil)
	b := record("b", core.Mammal, "", nil)
	c := record("c", core.Mammal, "", nil)
	d := record("d", "", "", nil)
	e := record("e", core.Bird, "", nil)
	f := record("f", core.Fish, "", nil)

	records := []*core.SpeciesRecord{a, b, c, d, e, f}
	clusters := Cluster(records)

	require.Len(t, clusters, 4)
	assert.Equal(t, core.Bird, clusters[0].Label)
	assert.Equal(t, []*core.SpeciesRecord{a, e}, clusters[0].Members)
	assert.Equal(t, core.Mammal, clusters[1].Label)
	assert.Equal(t, core.Animal, clusters[2].Label)
	assert.Equal(t, core.Fish, clusters[3].Label)

	total := 0
	for i, cl := range clusters {
		assert.Equal(t, len(cl.Members), cl.Count)
		if i > 0 {
			assert.LessOrEqual(t, cl.Count, clusters[i-1].Count)
		}
		total += cl.Count
	}
	assert.Equal(t, len(records), total)
}

func TestClusterMultiLabel(t *testing.T) {
	turtle := &core.SpeciesRecord{ID: "turtle", Categories: []core.TypeLabel{core.Reptile, core.Fish, core.Reptile}}
	shark := &core.SpeciesRecord{ID: "shark", Categories: []core.TypeLabel{core.Fish}}

	clusters := Cluster([]*core.SpeciesRecord{turtle, shark})
	require.Len(t, clusters, 2)
	assert.Equal(t, core.Cluster{Label: core.Fish, Count: 2, Members: []*core.SpeciesRecord{turtle, shark}}, clusters[0])
	assert.Equal(t, core.Cluster{Label: core.Reptile, Count: 1, Members: []*core.SpeciesRecord{turtle}}, clusters[1])
	assert.Empty(t, Cluster(nil))
}

func TestRefinement(t *testing.T) {
	lion := &core.SpeciesRecord{ID: "lion", Categories: []core.TypeLabel{core.Mammal}, Stats: core.Stats{
		Weight: rng(120, 250), Length: rng(140, 250), Population: rng(0, 25000),
	}}
	eagle := &core.SpeciesRecord{ID: "eagle", Categories: []core.TypeLabel{core.Bird}, Stats: core.Stats{
		Weight: rng(3, 7),
	}}
	records := []*core.SpeciesRecord{lion, eagle}

	tests := []struct {
		name string
		f    Refinement
		want []*core.SpeciesRecord
	}{
		{"zero keeps all", Refinement{}, records},
		{"weight overlap", Refinement{Weight: rng(0, 10)}, []*core.SpeciesRecord{eagle}},
		{"weight touching bound", Refinement{Weight: rng(250, 400)}, []*core.SpeciesRecord{lion}},
		{"missing stat excluded", Refinement{Length: rng(0, 1000)}, []*core.SpeciesRecord{lion}},
		{"population", Refinement{Population: rng(30000, 50000)}, []*core.SpeciesRecord{}},
		{"types", Refinement{Types: []core.TypeLabel{core.Bird, core.Fish}}, []*core.SpeciesRecord{eagle}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.f.Apply(records))
		})
	}
}
