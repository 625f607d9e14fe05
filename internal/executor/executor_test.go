package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunPreservesOrder(t *testing.T) {
	items := []int{5, 4, 3, 2, 1, 0, 9, 8, 7, 6}
	results := Run(context.Background(), items, 3, func(_ context.Context, n int) int {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10
	}, nil)

	for i, n := range items {
		assert.Equal(t, n*10, results[i], "order not preserved at index %d", i)
	}
}

func TestRunSerialForSmallBatches(t *testing.T) {
	var order []int
	var mu sync.Mutex
	items := []int{1, 2}
	Run(context.Background(), items, 10, func(_ context.Context, n int) int {
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
		return n
	}, nil)
	assert.Equal(t, []int{1, 2}, order, "expected strictly serial execution order")
}

// TestRunProgressMonotonic exercises spec.md E6: 7 items, concurrency 3.
func TestRunProgressMonotonic(t *testing.T) {
	items := make([]int, 7)
	var mu sync.Mutex
	var seen [][2]int
	Run(context.Background(), items, 3, func(_ context.Context, _ int) bool {
		return true
	}, func(completed, total int) {
		mu.Lock()
		seen = append(seen, [2]int{completed, total})
		mu.Unlock()
	})

	assert.Len(t, seen, 7)
	prev := 0
	for _, ct := range seen {
		assert.GreaterOrEqual(t, ct[0], prev, "progress went backwards")
		assert.Equal(t, 7, ct[1], "total changed mid-run")
		prev = ct[0]
	}
	assert.Equal(t, 7, prev)
}

func TestRunDoesNotAbortOnPerItemFailure(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results := Run(context.Background(), items, 2, func(_ context.Context, n int) bool {
		return n%2 != 0
	}, nil)

	assert.Equal(t, []bool{true, false, true, false, true}, results)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	items := make([]int, 50)

	var started int32
	done := make(chan struct{})
	go func() {
		Run(ctx, items, 4, func(ctx context.Context, _ int) int {
			atomic.AddInt32(&started, 1)
			select {
			case <-ctx.Done():
			case <-time.After(50 * time.Millisecond):
			}
			return 0
		}, nil)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	<-done

	assert.Less(t, atomic.LoadInt32(&started), int32(len(items)), "expected cancellation to stop new dispatches before all items started")
}

func TestRunEmpty(t *testing.T) {
	results := Run[int, int](context.Background(), nil, 4, func(_ context.Context, n int) int { return n }, nil)
	assert.Empty(t, results)
}
