package termcache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loda-lang/loda-go/internal/bigint"
)

func TestGetOrComputeMissThenHit(t *testing.T) {
	c := New()
	calls := int32(0)
	compute := func() (bigint.Int, int64, error) {
		atomic.AddInt32(&calls, 1)
		return bigint.FromInt64(42), 3, nil
	}

	v1, steps1, err := c.GetOrCompute(1, bigint.FromInt64(0), compute)
	require.NoError(t, err)
	assert.Equal(t, "42", v1.String())
	assert.Equal(t, int64(3), steps1)

	v2, steps2, err := c.GetOrCompute(1, bigint.FromInt64(0), compute)
	require.NoError(t, err)
	assert.Equal(t, "42", v2.String())
	assert.Equal(t, int64(3), steps2)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call must not invoke compute")
	assert.Equal(t, 1, c.Len())
}

func TestGetOrComputeDistinctKeysDoNotCollide(t *testing.T) {
	c := New()
	compute := func(v int64) func() (bigint.Int, int64, error) {
		return func() (bigint.Int, int64, error) { return bigint.FromInt64(v), 1, nil }
	}
	v1, _, err := c.GetOrCompute(1, bigint.FromInt64(0), compute(10))
	require.NoError(t, err)
	v2, _, err := c.GetOrCompute(2, bigint.FromInt64(0), compute(20))
	require.NoError(t, err)
	v3, _, err := c.GetOrCompute(1, bigint.FromInt64(1), compute(30))
	require.NoError(t, err)
	assert.Equal(t, "10", v1.String())
	assert.Equal(t, "20", v2.String())
	assert.Equal(t, "30", v3.String())
	assert.Equal(t, 3, c.Len())
}

func TestGetOrComputeFailureIsCachedUntilReset(t *testing.T) {
	c := New()
	boom := errors.New("boom")
	calls := int32(0)
	compute := func() (bigint.Int, int64, error) {
		atomic.AddInt32(&calls, 1)
		return bigint.Undefined, 0, boom
	}

	_, _, err := c.GetOrCompute(5, bigint.FromInt64(0), compute)
	assert.Equal(t, boom, err)
	_, _, err = c.GetOrCompute(5, bigint.FromInt64(0), compute)
	assert.Equal(t, boom, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a cached failure must not retry compute")

	c.Reset()
	_, _, err = c.GetOrCompute(5, bigint.FromInt64(0), compute)
	assert.Equal(t, boom, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "Reset must clear failures so the next call retries")
}

func TestResetKeepsSuccessfulEntries(t *testing.T) {
	c := New()
	_, _, err := c.GetOrCompute(1, bigint.FromInt64(0), func() (bigint.Int, int64, error) {
		return bigint.FromInt64(7), 1, nil
	})
	require.NoError(t, err)
	c.Reset()
	assert.Equal(t, 1, c.Len(), "Reset must not evict successful entries")
}

func TestConcurrentCallersCollapseOntoOneCompute(t *testing.T) {
	c := New()
	var calls int32
	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, _, err := c.GetOrCompute(1, bigint.FromInt64(0), func() (bigint.Int, int64, error) {
				atomic.AddInt32(&calls, 1)
				return bigint.FromInt64(99), 1, nil
			})
			if err == nil {
				results[idx] = v.String()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent callers on the same key must collapse onto one compute")
	for _, r := range results {
		assert.Equal(t, "99", r)
	}
}
