package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/env-monitor/internal/weather"
)

// ErrInvalidLimit is returned when Recent is asked for fewer than one record.
var ErrInvalidLimit = errors.New("limit must be positive")

// MemoryStore is a concurrency-safe in-memory implementation of weather.HistoryStore.
type MemoryStore struct {
	mu sync.RWMutex

	// append order; Recent sorts by reading timestamp
	records []weather.Record

	// retention configuration
	maxHistory int // max number of records kept (0 = unlimited)

	clock clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		maxHistory: maxHistory,
		clock:      clock,
	}
}

// Append stores r as a new record and enforces retention by count.
func (s *MemoryStore) Append(_ context.Context, r weather.Reading) error {
	rec := weather.Record{
		ID:        uuid.NewString(),
		Reading:   r,
		CreatedAt: s.clock.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)

	if s.maxHistory > 0 && len(s.records) > s.maxHistory {
		over := len(s.records) - s.maxHistory
		s.records = append([]weather.Record(nil), s.records[over:]...)
	}
	return nil
}

// Recent returns up to limit records ordered by reading timestamp, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]weather.Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	out := make([]weather.Record, len(s.records))
	copy(out, s.records)
	s.mu.RUnlock()

	// Reverse, then stable sort: equal timestamps come out newest-appended first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
