package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/fauna/core"
)

func TestMarshalUnmarshalKey(t *testing.T) {
	for _, key := range []core.Key{0, 42, core.Key(^uint64(0)), core.KeyFromContent("https://www.awf.org/lion")} {
		decoded, err := UnmarshalKey(MarshalKey(key))
		require.NoError(t, err)
		assert.Equal(t, key, decoded)
	}

	_, err := UnmarshalKey([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalSpeciesRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := &core.SpeciesRecord{
		ID:             "https://www.awf.org/wildlife-conservation/lion",
		Source:         core.SourceAWF,
		Name:           "Lion",
		ScientificName: "Panthera leo",
		URL:            "https://www.awf.org/wildlife-conservation/lion",
		ImageURL:       "https://www.awf.org/images/lion.jpg",
		Categories:     []core.TypeLabel{core.Mammal},
		Overview:       "lions social cats living prides",
		RawOverview:    "Lions are social cats, living in prides.",
		Habitat:        "Savanna, grassland",
		Diet:           "Carnivore",
		Threats:        []string{"Habitat loss", "Conflict with people"},
		Stats: core.Stats{
			Weight:     &core.NormalizedRange{Min: 120, Max: 250},
			Population: &core.NormalizedRange{Min: 0, Max: 25000},
		},
		InsertedAt: now.Add(-time.Hour),
		UpdatedAt:  now,
	}

	decoded, err := UnmarshalSpeciesRecord(MarshalSpeciesRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
	assert.Nil(t, decoded.Stats.Length)
}

func TestUnmarshalSpeciesRecordZeroValues(t *testing.T) {
	record := &core.SpeciesRecord{ID: "x", Name: "Unknown beetle"}

	decoded, err := UnmarshalSpeciesRecord(MarshalSpeciesRecord(record))
	require.NoError(t, err)
	assert.True(t, decoded.InsertedAt.IsZero())
	assert.True(t, decoded.UpdatedAt.IsZero())
	assert.Empty(t, decoded.Categories)
	assert.Empty(t, decoded.Threats)
	for _, f := range core.StatFields {
		assert.Nil(t, decoded.Stats.Get(f), f)
	}
}

func TestUnmarshalSpeciesRecordInvalid(t *testing.T) {
	valid := MarshalSpeciesRecord(&core.SpeciesRecord{ID: "x", Name: "y", Threats: []string{"a"}})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"invalid data", []byte{0xFF, 0xFF, 0xFF}},
		{"wrong version", []byte{1, 2, 3}},
		{"truncated", valid[:len(valid)-2]},
		{"trailing bytes", append(append([]byte{}, valid...), 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalSpeciesRecord(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	checkpoint := &core.Checkpoint{Name: "publish:species", Watermark: now, Processed: 1200, UpdatedAt: now}

	decoded, err := UnmarshalCheckpoint(MarshalCheckpoint(checkpoint))
	require.NoError(t, err)
	assert.Equal(t, checkpoint, decoded)

	_, err = UnmarshalCheckpoint([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
