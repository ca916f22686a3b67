package sync

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBoundsConcurrency(t *testing.T) {
	const maxConcurrent = 5
	limiter := NewLimiter(maxConcurrent)

	var current, observedMax int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter.Acquire()
			defer limiter.Release()

			n := atomic.AddInt32(&current, 1)
			for {
				old := atomic.LoadInt32(&observedMax)
				if n <= old || atomic.CompareAndSwapInt32(&observedMax, old, n) {
					break
				}
			}
			atomic.AddInt32(&current, -1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, int(observedMax), maxConcurrent)
}

func TestLimiterPanicsOnNonPositiveMax(t *testing.T) {
	assert.Panics(t, func() { NewLimiter(0) })
}
