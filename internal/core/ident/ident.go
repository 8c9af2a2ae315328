package ident

// Counter hands out monotonically increasing ids starting at 1. Ids are
// never reused, even after the entity they named is gone; 0 is never
// issued and can mean "no id".
// Single-goroutine access only.
type Counter struct {
	last uint64
}

// NewCounter returns a counter whose first id is 1.
func NewCounter() *Counter {
	return &Counter{}
}

// Next issues the next id.
func (c *Counter) Next() uint64 {
	if c.last == ^uint64(0) {
		panic("ident: id space exhausted")
	}
	c.last++
	return c.last
}

// Last returns the most recently issued id, or 0 if none was issued.
func (c *Counter) Last() uint64 { return c.last }

// Observe records that id is in use, e.g. after loading entities whose ids
// were assigned elsewhere, so later calls to Next never collide with it.
func (c *Counter) Observe(id uint64) {
	if id > c.last {
		c.last = id
	}
}
