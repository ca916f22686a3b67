package sync

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoRecoversPanic(t *testing.T) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var caught error

	wg.Add(1)
	Go(func() {
		defer wg.Done()
		panic("boom")
	}, func(err error) {
		mu.Lock()
		caught = err
		mu.Unlock()
	})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Error(t, caught)
	var panicErr *PanicError
	assert.True(t, errors.As(caught, &panicErr))
	assert.Equal(t, "boom", panicErr.Info)
}

func TestGoNoPanicNoHandlerCall(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	called := false
	Go(func() {
		defer wg.Done()
	}, func(error) {
		called = true
	})
	wg.Wait()
	assert.False(t, called)
}
