package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Wait_RespectsContextCancellation(t *testing.T) {
	l := PerSecond(0.001, 1) // effectively never refills within the test window
	// consume the single burst token
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require := assert.New(t)
	err := l.Wait(context.Background())
	require.NoError(err)

	err = l.Wait(ctx)
	require.Error(err)
}

func TestNewBiomedical_KeyRaisesBudget(t *testing.T) {
	withKey := NewBiomedical(true)
	withoutKey := NewBiomedical(false)
	assert.NotNil(t, withKey)
	assert.NotNil(t, withoutKey)
	assert.Greater(t, float64(withKey.inner.Limit()), float64(withoutKey.inner.Limit()))
}
