package identity

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"
)

// ContractNumberPattern is the wire format of an allocated contract number.
var ContractNumberPattern = regexp.MustCompile(`^VH-\d{4}-\d{6}$`)

// Counter is the minimal atomic-increment port the allocator needs from the
// store. NextSequence must be race-safe: concurrent callers for the same
// bucket must observe strictly increasing, gap-free values starting at 1.
type Counter interface {
	NextSequence(ctx context.Context, bucket string) (int, error)
}

// Clock abstracts wall-clock time so tests and workflows can control "now".
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock, returning UTC wall-clock time.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Allocator issues contract numbers of the form VH-YYYY-NNNNNN, where NNNNNN
// is the 1-indexed, zero-padded count of contracts allocated in that
// calendar year.
type Allocator struct {
	counter Counter
	clock   Clock
}

// NewAllocator builds an Allocator backed by the given counter and clock.
func NewAllocator(counter Counter, clock Clock) *Allocator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Allocator{counter: counter, clock: clock}
}

// Next allocates the next contract number for the current calendar year.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	year := a.clock.Now().Year()
	bucket := fmt.Sprintf("contract-number:%d", year)
	seq, err := a.counter.NextSequence(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("allocate contract number: %w", err)
	}
	if seq < 1 || seq > 999999 {
		return "", fmt.Errorf("contract number sequence out of range for year %d: %d", year, seq)
	}
	return fmt.Sprintf("VH-%04d-%06d", year, seq), nil
}

// InMemoryCounter is a process-local, mutex-guarded Counter. It is used by
// unit tests; the postgres
// repository instead performs the increment as a single atomic SQL
// statement (see internal/contract/postgres).
type InMemoryCounter struct {
	mu      sync.Mutex
	buckets map[string]int
}

// NewInMemoryCounter constructs an empty in-memory counter.
func NewInMemoryCounter() *InMemoryCounter {
	return &InMemoryCounter{buckets: make(map[string]int)}
}

// NextSequence increments and returns the bucket's counter, starting at 1.
func (c *InMemoryCounter) NextSequence(_ context.Context, bucket string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets[bucket]++
	return c.buckets[bucket], nil
}
