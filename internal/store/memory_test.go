package store

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/env-monitor/internal/weather"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func readingAt(offset time.Duration, temp float64) weather.Reading {
	r := weather.DefaultReading(base.Add(offset))
	r.Temperature = temp
	return r
}

func TestMemoryStoreRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, clockwork.NewFakeClockAt(base))

	require.NoError(t, s.Append(ctx, readingAt(0, 1)))
	require.NoError(t, s.Append(ctx, readingAt(10*time.Minute, 3)))
	require.NoError(t, s.Append(ctx, readingAt(5*time.Minute, 2)))

	records, err := s.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, records, 3)

	var temps []float64
	for _, rec := range records {
		temps = append(temps, rec.Temperature)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, base, rec.CreatedAt)
	}
	assert.Equal(t, []float64{3, 2, 1}, temps)
}

func TestMemoryStoreRecentLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, nil)

	for i := 0; i < 60; i++ {
		require.NoError(t, s.Append(ctx, readingAt(time.Duration(i)*time.Minute, float64(i))))
	}

	records, err := s.Recent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, records, 50)
	assert.Equal(t, 59.0, records[0].Temperature)
	assert.Equal(t, 10.0, records[49].Temperature)
}

func TestMemoryStoreEqualTimestampsNewestAppendFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, nil)

	require.NoError(t, s.Append(ctx, readingAt(0, 1)))
	require.NoError(t, s.Append(ctx, readingAt(0, 2)))

	records, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, records[0].Temperature)
	assert.Equal(t, 1.0, records[1].Temperature)
}

func TestMemoryStoreRetention(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, readingAt(time.Duration(i)*time.Minute, float64(i))))
	}

	records, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 2.0, records[2].Temperature)
}

func TestMemoryStoreEmptyAndInvalidLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, nil)

	records, err := s.Recent(ctx, 50)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	_, err = s.Recent(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestMemoryStoreSatisfiesHistoryStore(t *testing.T) {
	var _ weather.HistoryStore = NewMemoryStore(0, nil)
	var _ weather.HistoryStore = (*MongoStore)(nil)
	var _ weather.HistoryStore = (*PostgresStore)(nil)
}
