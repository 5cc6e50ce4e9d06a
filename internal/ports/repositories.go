package ports

import (
	"context"
	"time"

	"clearance/internal/rawtree"
)

// Record is one raw submission document as stored upstream.
type Record struct {
	Key  string
	Body rawtree.Value
}

// RecordSource lists and fetches raw submission records. Get returns
// domain.ErrNotFound for unknown keys; transport failures are wrapped in
// domain.ErrUpstreamUnavailable.
type RecordSource interface {
	List(ctx context.Context, limit int) ([]Record, error)
	Get(ctx context.Context, key string) (Record, error)
}

// RecordWriter stores raw records, replacing any record with the same key.
type RecordWriter interface {
	Put(ctx context.Context, records []Record) (int, error)
}

// RecordCache is a read-through cache in front of a RecordSource.
type RecordCache interface {
	Get(ctx context.Context, key string) (rec Record, found bool, err error)
	Put(ctx context.Context, rec Record) error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
