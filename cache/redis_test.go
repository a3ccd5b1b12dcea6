package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/poiesic/fauna/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, opts ...Option) (*RedisCache, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, append([]Option{WithPrefix("test:")}, opts...)...)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return c, mock
}

func lion() *core.SpeciesRecord {
	weight := core.NormalizedRange{Min: 150, Max: 250}
	return &core.SpeciesRecord{
		ID:         "https://www.awf.org/lion",
		Name:       "Lion",
		Categories: []core.TypeLabel{core.Mammal},
		Stats:      core.Stats{Weight: &weight},
	}
}

func TestGetHit(t *testing.T) {
	c, mock := newTestCache(t)

	data, err := json.Marshal([]*core.SpeciesRecord{lion()})
	require.NoError(t, err)
	mock.ExpectGet("test:k1").SetVal(string(data))

	records, err := c.Get(context.Background(), "k1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, lion(), records[0])
}

func TestGetMiss(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectGet("test:k1").RedisNil()

	_, err := c.Get(context.Background(), "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetCorruptEntryIsMiss(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectGet("test:k1").SetVal("{not json")

	_, err := c.Get(context.Background(), "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetError(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectGet("test:k1").SetErr(errors.New("connection refused"))

	_, err := c.Get(context.Background(), "k1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSet(t *testing.T) {
	c, mock := newTestCache(t, WithTTL(time.Minute))

	records := []*core.SpeciesRecord{lion()}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	mock.ExpectSet("test:k1", data, time.Minute).SetVal("OK")

	require.NoError(t, c.Set(context.Background(), "k1", records))
}

func TestSetNilStoresEmptyList(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectSet("test:k1", []byte("[]"), DefaultTTL).SetVal("OK")

	require.NoError(t, c.Set(context.Background(), "k1", nil))
}

func TestInvalidate(t *testing.T) {
	c, mock := newTestCache(t)
	mock.ExpectScan(0, "test:*", 100).SetVal([]string{"test:a", "test:b"}, 0)
	mock.ExpectDel("test:a").SetVal(1)
	mock.ExpectDel("test:b").SetVal(1)

	require.NoError(t, c.Invalidate(context.Background()))
}

func TestKey(t *testing.T) {
	a := Key("search", "lion")
	assert.Len(t, a, 32)
	assert.Equal(t, a, Key("search", "lion"))
	assert.NotEqual(t, a, Key("searchlion"))
	assert.NotEqual(t, a, Key("search", "tiger"))
}
