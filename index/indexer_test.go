package index

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/poiesic/fauna/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() *core.SpeciesRecord {
	weight := core.NormalizedRange{Min: 150, Max: 250}
	length := core.Point(200)
	return &core.SpeciesRecord{
		ID:          "https://www.awf.org/wildlife-conservation/lion",
		Source:      core.SourceAWF,
		Name:        "Lion",
		URL:         "https://www.awf.org/wildlife-conservation/lion",
		Categories:  []core.TypeLabel{core.Mammal},
		Overview:    "lions live prides",
		RawOverview: "Lions live in prides.",
		Stats:       core.Stats{Weight: &weight, Length: &length},
	}
}

func TestNewIndexerRequiresClient(t *testing.T) {
	_, err := NewIndexer(nil, nil)
	assert.ErrorIs(t, err, ErrClientRequired)
}

func TestIndexWritesBulkBody(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"took": 3, "errors": false, "items": [{"index": {"_id": "x", "status": 201}}]}`))
	})

	idx, err := NewIndexer(newTestClient(t, ts.URL), nil)
	require.NoError(t, err)
	require.NoError(t, idx.Index(context.Background(), testRecord()))

	reqs := ts.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/_bulk", reqs[0].Path)

	lines := strings.Split(strings.TrimSpace(reqs[0].Body), "\n")
	require.Len(t, lines, 2)

	var action map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &action))
	assert.Equal(t, "wildlife", action["index"]["_index"])
	assert.Equal(t, "https://www.awf.org/wildlife-conservation/lion", action["index"]["_id"])

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, "Lion", doc["name"])
	assert.Equal(t, []any{"Mammal"}, doc["animal_type"])
	assert.Equal(t, 150.0, doc["weight_kg_min"])
	assert.Equal(t, 250.0, doc["weight_kg_max"])
	assert.Equal(t, 200.0, doc["length_cm_min"])
	assert.NotContains(t, doc, "population_min")
	assert.Equal(t, "Lions live in prides.", doc["summary"])
}

func TestIndexNothingSkipsRequest(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	idx, err := NewIndexer(newTestClient(t, ts.URL), nil)
	require.NoError(t, err)
	require.NoError(t, idx.Index(context.Background()))
	assert.Empty(t, ts.recorded())
}

func TestIndexReportsItemFailures(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": true, "items": [
			{"index": {"_id": "a", "status": 201}},
			{"index": {"_id": "b", "status": 400, "error": {"type": "mapper_parsing_exception", "reason": "bad weight"}}}
		]}`))
	})

	idx, err := NewIndexer(newTestClient(t, ts.URL), nil)
	require.NoError(t, err)

	a, b := testRecord(), testRecord()
	a.ID, b.ID = "a", "b"
	err = idx.Index(context.Background(), a, b)
	require.ErrorIs(t, err, ErrIndexRequest)
	assert.Contains(t, err.Error(), "bad weight")
	assert.NotContains(t, err.Error(), "index a")
}

func TestDeleteIgnoresMissingDocuments(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": false, "items": [{"delete": {"_id": "gone", "status": 404}}]}`))
	})

	idx, err := NewIndexer(newTestClient(t, ts.URL), nil)
	require.NoError(t, err)
	require.NoError(t, idx.Delete(context.Background(), "gone"))

	reqs := ts.recorded()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Body, `"delete"`)
}

func TestDocumentRecordConversion(t *testing.T) {
	record := testRecord()
	doc := NewDocument(record)

	back := doc.Record()
	assert.Equal(t, record.ID, back.ID)
	assert.Equal(t, record.Categories, back.Categories)
	assert.Equal(t, record.Stats, back.Stats)
	assert.Equal(t, record.RawOverview, back.RawOverview)

	// Half a range is treated as absent.
	doc.PopulationMin = new(float64)
	assert.Nil(t, doc.Record().Stats.Population)

	// Uncategorized records are indexed under the fallback label.
	record.Categories = nil
	assert.Equal(t, []string{"Animal"}, NewDocument(record).AnimalType)
}
