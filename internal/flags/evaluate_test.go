package flags

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleFlagEnabledRegressionVectors(t *testing.T) {
	// Fixed vectors that must match the server's bucketing.
	assert.True(t, SimpleFlagEnabled("a", "b", 42))
	assert.False(t, SimpleFlagEnabled("a", "b", 40))
}

func TestSimpleFlagEnabledDeterministic(t *testing.T) {
	first := SimpleFlagEnabled("some-flag", "user-123", 50)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, SimpleFlagEnabled("some-flag", "user-123", 50))
	}
}

func TestSimpleFlagEnabledBoundaries(t *testing.T) {
	// 100% rollout includes every bucket, 0% none.
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("user-%d", i)
		assert.True(t, SimpleFlagEnabled("flag", id, 100))
		assert.False(t, SimpleFlagEnabled("flag", id, 0))
	}
}

func TestSimpleFlagEnabledDistribution(t *testing.T) {
	enabled := 0
	total := 2000
	for i := 0; i < total; i++ {
		if SimpleFlagEnabled("flag", fmt.Sprintf("user-%d", i), 30) {
			enabled++
		}
	}

	// Buckets should be roughly uniform around the rollout percentage.
	assert.Greater(t, enabled, total*20/100)
	assert.Less(t, enabled, total*40/100)
}
