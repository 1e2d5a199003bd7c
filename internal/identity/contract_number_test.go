package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func TestAllocator_Next_Sequential(t *testing.T) {
	counter := NewInMemoryCounter()
	alloc := NewAllocator(counter, fixedClock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)})

	n1, err := alloc.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "VH-2025-000001", n1)

	n2, err := alloc.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "VH-2025-000002", n2)

	require.True(t, ContractNumberPattern.MatchString(n1))
}

func TestAllocator_Next_YearRolloverResetsToOne(t *testing.T) {
	counter := NewInMemoryCounter()
	alloc2025 := NewAllocator(counter, fixedClock{t: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)})
	alloc2026 := NewAllocator(counter, fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})

	_, err := alloc2025.Next(context.Background())
	require.NoError(t, err)
	_, err = alloc2025.Next(context.Background())
	require.NoError(t, err)

	n, err := alloc2026.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "VH-2026-000001", n)
}

func TestAllocator_Next_ConcurrentIsRaceSafe(t *testing.T) {
	counter := NewInMemoryCounter()
	alloc := NewAllocator(counter, fixedClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})

	const workers = 50
	results := make(chan string, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			n, err := alloc.Next(context.Background())
			require.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for n := range results {
		require.False(t, seen[n], "duplicate contract number allocated: %s", n)
		seen[n] = true
	}
	require.Len(t, seen, workers)
}
