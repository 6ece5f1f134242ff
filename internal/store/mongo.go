package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/i474232898/env-monitor/internal/weather"
)

// MongoConfig holds the document store connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore persists readings as documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	clock  clockwork.Clock

	indexed atomic.Bool
}

// NewMongoStore builds a client for cfg.URI. The driver connects lazily, so
// an unreachable server surfaces on Init or on the first Append/Recent, not here.
func NewMongoStore(ctx context.Context, cfg MongoConfig, clock clockwork.Clock) (*MongoStore, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	client, err := mongo.Connect(ctx, options.Client().
		SetServerSelectionTimeout(10*time.Second).
		ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		clock:  clock,
	}, nil
}

// Init pings the primary and makes sure the timestamp index exists. A store
// whose Init failed keeps working and retries the index on later calls.
func (s *MongoStore) Init(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		return fmt.Errorf("%w: ping mongo: %v", weather.ErrPersistenceFailure, err)
	}
	return s.ensureIndex(ctx)
}

func (s *MongoStore) ensureIndex(ctx context.Context) error {
	if s.indexed.Load() {
		return nil
	}
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("timestamp_desc"),
	})
	if err != nil {
		return fmt.Errorf("%w: create timestamp index: %v", weather.ErrPersistenceFailure, err)
	}
	s.indexed.Store(true)
	return nil
}

// Append inserts r as a new document; MongoDB assigns the _id.
func (s *MongoStore) Append(ctx context.Context, r weather.Reading) error {
	// Best effort: the insert itself reports an unreachable server.
	_ = s.ensureIndex(ctx)

	rec := weather.Record{
		Reading:   r,
		CreatedAt: s.clock.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("%w: insert reading: %v", weather.ErrPersistenceFailure, err)
	}
	return nil
}

// Recent returns up to limit records sorted by timestamp descending.
func (s *MongoStore) Recent(ctx context.Context, limit int) ([]weather.Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find readings: %v", weather.ErrPersistenceFailure, err)
	}

	records := []weather.Record{}
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("%w: decode readings: %v", weather.ErrPersistenceFailure, err)
	}
	return records, nil
}

// Ping reports whether the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
