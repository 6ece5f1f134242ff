//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/i474232898/env-monitor/internal/weather"
)

func startMongo(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start mongo container")

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	return uri
}

func TestMongoStoreAppendAndRecent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s, err := NewMongoStore(ctx, MongoConfig{
		URI:        startMongo(ctx, t),
		Database:   "envmonitor_test",
		Collection: "sensors",
	}, clockwork.NewFakeClockAt(base))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Ping(ctx))

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, readingAt(time.Duration(i)*time.Minute, float64(i))))
	}

	records, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 4.0, records[0].Temperature)
	assert.Equal(t, 2.0, records[2].Temperature)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, "MILLIMETERS", records[0].Precipitation.Qpf.Unit)
	assert.True(t, records[0].Timestamp.Equal(base.Add(4*time.Minute)))
	assert.True(t, records[0].CreatedAt.Equal(base))

	_, err = s.Recent(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestMongoStoreUnreachableSurfacesPersistenceFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := NewMongoStore(ctx, MongoConfig{
		URI:        "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=500",
		Database:   "envmonitor_test",
		Collection: "sensors",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	assert.ErrorIs(t, s.Init(ctx), weather.ErrPersistenceFailure)
	assert.ErrorIs(t, s.Append(ctx, readingAt(0, 1)), weather.ErrPersistenceFailure)
	_, err = s.Recent(ctx, 10)
	assert.ErrorIs(t, err, weather.ErrPersistenceFailure)
}
