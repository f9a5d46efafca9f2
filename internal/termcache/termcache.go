// Package termcache memoizes (program id, n) -> BigInt results across
// seq/cal calls and across terms of a top-level sequence computation. It
// uses golang.org/x/sync/singleflight to collapse concurrent callers on
// the same key onto one computation (spec sections 4.8, 5, 9): nothing in
// the example pack implements a compute-if-absent cache, and singleflight
// is the ecosystem-standard primitive for exactly this shape, so it is
// wired in from the broader ecosystem rather than hand-rolled (see
// DESIGN.md).
package termcache

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/loda-lang/loda-go/internal/bigint"
)

type key struct {
	id int64
	n  string
}

type entry struct {
	value bigint.Int
	steps int64
}

// Cache is safe for concurrent use by multiple evaluator goroutines.
type Cache struct {
	group  singleflight.Group
	mu     sync.RWMutex
	done   map[key]entry
	failed map[key]error
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{done: make(map[key]entry), failed: make(map[key]error)}
}

// GetOrCompute returns the cached (value, steps) for (id, n), computing it
// via compute on a miss. Concurrent callers for the same key collapse
// onto a single compute call; a prior failure for the same key is
// returned to every caller until Reset runs.
func (c *Cache) GetOrCompute(id int64, n bigint.Int, compute func() (bigint.Int, int64, error)) (bigint.Int, int64, error) {
	k := key{id: id, n: n.String()}

	c.mu.RLock()
	if e, ok := c.done[k]; ok {
		c.mu.RUnlock()
		return e.value, e.steps, nil
	}
	if err, ok := c.failed[k]; ok {
		c.mu.RUnlock()
		return bigint.Undefined, 0, err
	}
	c.mu.RUnlock()

	shared := fmt.Sprintf("%d\x00%s", id, n.String())
	v, err, _ := c.group.Do(shared, func() (any, error) {
		// A call for this key may have finished since the check above.
		c.mu.RLock()
		if e, ok := c.done[k]; ok {
			c.mu.RUnlock()
			return e, nil
		}
		if ferr, ok := c.failed[k]; ok {
			c.mu.RUnlock()
			return nil, ferr
		}
		c.mu.RUnlock()
		val, steps, cerr := compute()
		if cerr != nil {
			c.mu.Lock()
			c.failed[k] = cerr
			c.mu.Unlock()
			return nil, cerr
		}
		e := entry{value: val, steps: steps}
		c.mu.Lock()
		c.done[k] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return bigint.Undefined, 0, err
	}
	e := v.(entry)
	return e.value, e.steps, nil
}

// Reset evicts failed entries, per the default policy of re-trying a
// failed term on the next top-level driver invocation. Successful entries
// are kept: they remain valid regardless of how many times they're reused
// (spec section 4.8).
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = make(map[key]error)
}

// Len reports the number of memoized successful results, for diagnostics.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.done)
}
