package weather

import (
	"context"
	"errors"
)

var (
	// ErrUpstreamFailure covers transport errors, non-2xx responses and
	// unparsable bodies from the weather API.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrPersistenceFailure covers append and query errors against a HistoryStore.
	ErrPersistenceFailure = errors.New("persistence failure")
)

// Fetcher abstracts the upstream weather API. FetchCurrent returns the raw
// response body of one current-conditions lookup.
type Fetcher interface {
	Name() string
	FetchCurrent(ctx context.Context) ([]byte, error)
}

// HistoryStore is the contract every persistence backend satisfies.
// Recent returns at most limit records, newest timestamp first, never nil.
type HistoryStore interface {
	Append(ctx context.Context, r Reading) error
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// Publisher fans a normalized Reading out to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, r Reading) error
}

// Pinger is implemented by stores that can report reachability. Readiness
// checks it when the configured store provides it.
type Pinger interface {
	Ping(ctx context.Context) error
}
