package potential

import "sync"

// forceCache remembers the last radial force magnitude keyed on r².
// Key and value are always written together under the lock.
type forceCache struct {
	mu    sync.Mutex
	valid bool
	r2    float64
	force float64
}

// get returns the cached force when r2 matches the last key exactly,
// otherwise it calls compute and stores the result.
func (c *forceCache) get(r2 float64, compute func(r2 float64) float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.r2 == r2 {
		return c.force
	}
	f := compute(r2)
	c.r2 = r2
	c.force = f
	c.valid = true
	return f
}

func (c *forceCache) reset() {
	c.mu.Lock()
	c.valid = false
	c.r2 = 0
	c.force = 0
	c.mu.Unlock()
}

// snapshot reports the cached pair. Used by tests.
func (c *forceCache) snapshot() (r2, force float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.r2, c.force, c.valid
}
