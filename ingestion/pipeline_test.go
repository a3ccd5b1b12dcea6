package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/fauna/core"
	"github.com/poiesic/fauna/storage"
	"github.com/poiesic/fauna/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepositories(t *testing.T) (storage.SpeciesRepository, storage.CheckpointRepository) {
	t.Helper()
	species, checkpoints, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		species.Close()
		backend.Close()
	})
	return species, checkpoints
}

func TestNewPipelineRequiresRepository(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.ErrorIs(t, err, ErrSpeciesRepositoryRequired)
}

func TestPipelineIngest(t *testing.T) {
	species, _ := newTestRepositories(t)

	p, err := NewPipeline(species, WithPoolSize(2), WithBatchSize(1), WithLogger(slog.Default()))
	require.NoError(t, err)
	defer p.Release()

	raws := []RawRecord{
		elephantRaw(),
		{URL: "https://www.awf.org/wildlife-conservation/lion", Name: "Lion", Weight: "120 kg"},
		{URL: "https://www.awf.org/wildlife-conservation/nameless"},
		{URL: "https://www.awf.org/wildlife-conservation/lion", Name: "Lion", Weight: "190 kg"},
	}

	result, err := p.Ingest(context.Background(), raws)
	require.NoError(t, err)
	assert.Equal(t, IngestResult{Received: 4, Skipped: 1, Stored: 2}, result)

	count, err := species.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	lion, err := species.GetSpecies(context.Background(), "https://www.awf.org/wildlife-conservation/lion")
	require.NoError(t, err)
	require.NotNil(t, lion.Stats.Weight)
	assert.Equal(t, core.Point(190), *lion.Stats.Weight)

	elephant, err := species.GetSpecies(context.Background(), "https://www.awf.org/wildlife-conservation/elephant")
	require.NoError(t, err)
	assert.Equal(t, core.Mammal, elephant.Category())
}

func TestPipelineReingestReplaces(t *testing.T) {
	species, _ := newTestRepositories(t)

	p, err := NewPipeline(species)
	require.NoError(t, err)
	defer p.Release()

	ctx := context.Background()
	raw := elephantRaw()
	_, err = p.Ingest(ctx, []RawRecord{raw})
	require.NoError(t, err)

	raw.Weight = ""
	raw.Facts = Facts{Items: []string{"Lives near rivers"}}
	_, err = p.Ingest(ctx, []RawRecord{raw})
	require.NoError(t, err)

	record, err := species.GetSpecies(ctx, "https://www.awf.org/wildlife-conservation/elephant")
	require.NoError(t, err)
	assert.Nil(t, record.Stats.Weight)

	count, err := species.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPipelineIngestCancelled(t *testing.T) {
	species, _ := newTestRepositories(t)

	p, err := NewPipeline(species)
	require.NoError(t, err)
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Ingest(ctx, []RawRecord{elephantRaw()})
	assert.ErrorIs(t, err, context.Canceled)

	count, err := species.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

// recordingIndexer fails every call when err is set, or only call number
// failOn when that is positive.
type recordingIndexer struct {
	batches [][]*core.SpeciesRecord
	err     error
	failOn  int
	calls   int
}

func (r *recordingIndexer) Index(_ context.Context, records ...*core.SpeciesRecord) error {
	r.calls++
	if r.err != nil && (r.failOn == 0 || r.calls == r.failOn) {
		return r.err
	}
	r.batches = append(r.batches, records)
	return nil
}

func (r *recordingIndexer) total() int {
	n := 0
	for _, b := range r.batches {
		n += len(b)
	}
	return n
}

func TestNewPublisherValidation(t *testing.T) {
	species, checkpoints := newTestRepositories(t)
	idx := &recordingIndexer{}

	_, err := NewPublisher(nil, checkpoints, idx, 0, nil)
	assert.ErrorIs(t, err, ErrSpeciesRepositoryRequired)
	_, err = NewPublisher(species, nil, idx, 0, nil)
	assert.ErrorIs(t, err, ErrCheckpointRepositoryRequired)
	_, err = NewPublisher(species, checkpoints, nil, 0, nil)
	assert.ErrorIs(t, err, ErrIndexerRequired)
}

func TestPublisherIncremental(t *testing.T) {
	species, checkpoints := newTestRepositories(t)
	ctx := context.Background()

	p, err := NewPipeline(species)
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Ingest(ctx, []RawRecord{
		elephantRaw(),
		{URL: "https://www.awf.org/wildlife-conservation/lion", Name: "Lion"},
		{URL: "https://www.awf.org/wildlife-conservation/zebra", Name: "Zebra"},
	})
	require.NoError(t, err)

	idx := &recordingIndexer{}
	pub, err := NewPublisher(species, checkpoints, idx, 2, nil)
	require.NoError(t, err)

	sent, err := pub.Publish(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Len(t, idx.batches, 2)

	checkpoint, err := checkpoints.LoadCheckpoint(ctx, PublishCheckpoint)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, uint64(3), checkpoint.Processed)
	assert.False(t, checkpoint.Watermark.IsZero())

	sent, err = pub.Publish(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, sent)

	time.Sleep(2 * time.Millisecond)
	_, err = p.Ingest(ctx, []RawRecord{{URL: "https://www.awf.org/wildlife-conservation/okapi", Name: "Okapi"}})
	require.NoError(t, err)

	sent, err = pub.Publish(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = pub.Publish(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 4, sent)
	assert.Equal(t, 8, idx.total())
}

func TestPublisherIndexFailureKeepsCheckpoint(t *testing.T) {
	species, checkpoints := newTestRepositories(t)
	ctx := context.Background()

	p, err := NewPipeline(species)
	require.NoError(t, err)
	defer p.Release()
	_, err = p.Ingest(ctx, []RawRecord{elephantRaw()})
	require.NoError(t, err)

	boom := errors.New("index unavailable")
	pub, err := NewPublisher(species, checkpoints, &recordingIndexer{err: boom}, 10, nil)
	require.NoError(t, err)

	_, err = pub.Publish(ctx, false)
	assert.ErrorIs(t, err, boom)

	checkpoint, err := checkpoints.LoadCheckpoint(ctx, PublishCheckpoint)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}

func TestPublisherRetryAfterSplitBatch(t *testing.T) {
	species, checkpoints := newTestRepositories(t)
	ctx := context.Background()

	// One write stamps all three records with the same updated-at value.
	p, err := NewPipeline(species, WithBatchSize(10))
	require.NoError(t, err)
	defer p.Release()
	_, err = p.Ingest(ctx, []RawRecord{
		elephantRaw(),
		{URL: "https://www.awf.org/wildlife-conservation/lion", Name: "Lion"},
		{URL: "https://www.awf.org/wildlife-conservation/zebra", Name: "Zebra"},
	})
	require.NoError(t, err)

	boom := errors.New("index unavailable")
	idx := &recordingIndexer{err: boom, failOn: 2}
	pub, err := NewPublisher(species, checkpoints, idx, 1, nil)
	require.NoError(t, err)

	sent, err := pub.Publish(ctx, false)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, sent)

	checkpoint, err := checkpoints.LoadCheckpoint(ctx, PublishCheckpoint)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.True(t, checkpoint.Watermark.IsZero())

	sent, err = pub.Publish(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)

	indexed := make(map[string]bool)
	for _, b := range idx.batches {
		for _, r := range b {
			indexed[r.ID] = true
		}
	}
	assert.Len(t, indexed, 3)

	sent, err = pub.Publish(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestCompletedWatermark(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)
	records := []*core.SpeciesRecord{{UpdatedAt: t1}, {UpdatedAt: t2}, {UpdatedAt: t2}}

	_, ok := completedWatermark(records, 0)
	assert.False(t, ok)

	mark, ok := completedWatermark(records, 1)
	require.True(t, ok)
	assert.Equal(t, t1, mark)

	mark, ok = completedWatermark(records, 2)
	require.True(t, ok)
	assert.Equal(t, t1, mark)

	mark, ok = completedWatermark(records, 3)
	require.True(t, ok)
	assert.Equal(t, t2, mark)

	_, ok = completedWatermark(records[1:], 1)
	assert.False(t, ok)
}
