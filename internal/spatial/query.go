package spatial

import (
	"container/heap"
	"math"

	"github.com/cosmicrafts/galaxy/internal/geom"
)

// Search calls fn for every item inside the closed box r, in traversal
// order. Returning false from fn stops the walk.
func (t *Tree) Search(r geom.Rect, fn func(Item) bool) {
	if t.root == nil || t.size == 0 || r.Empty() {
		return
	}
	t.search(t.root, r, fn)
}

func (t *Tree) search(n *node, r geom.Rect, fn func(Item) bool) bool {
	for i := range n.entries {
		e := &n.entries[i]
		if !e.box.Intersects(r) {
			continue
		}
		if n.leaf {
			if !fn(e.item) {
				return false
			}
			continue
		}
		if !t.search(e.child, r, fn) {
			return false
		}
	}
	return true
}

// Within calls fn for every item whose Euclidean distance to c is at most
// radius. Distances are compared squared until that overflows, so the test
// stays exact for any finite radius and coordinates. radius must not be
// negative.
func (t *Tree) Within(c geom.Point, radius float64, fn func(Item) bool) {
	if t.root == nil || t.size == 0 || radius < 0 {
		return
	}
	t.within(t.root, c, radius, fn)
}

func (t *Tree) within(n *node, c geom.Point, radius float64, fn func(Item) bool) bool {
	r2 := radius * radius
	for i := range n.entries {
		e := &n.entries[i]
		// An overflowed box distance only prunes against a finite r2.
		if e.box.MinDist2(c) > r2 {
			continue
		}
		if n.leaf {
			if !geom.InRadius(c, e.item.Pt, radius) {
				continue
			}
			if !fn(e.item) {
				return false
			}
			continue
		}
		if !t.within(e.child, c, radius, fn) {
			return false
		}
	}
	return true
}

// Walk calls fn for every item. Returning false stops the walk.
func (t *Tree) Walk(fn func(Item) bool) {
	if t.root == nil {
		return
	}
	t.walk(t.root, fn)
}

func (t *Tree) walk(n *node, fn func(Item) bool) bool {
	for i := range n.entries {
		if n.leaf {
			if !fn(n.entries[i].item) {
				return false
			}
		} else if !t.walk(n.entries[i].child, fn) {
			return false
		}
	}
	return true
}

// Nearest returns the item closest to p. Among items at the same distance
// the one with the smallest ID wins, so the answer is stable for a given
// set of items regardless of tree shape.
func (t *Tree) Nearest(p geom.Point) (Item, bool) {
	if t.root == nil || t.size == 0 {
		return Item{}, false
	}
	q := &candidates{}
	heap.Push(q, boxCandidate(t.root.bounds(), p, t.root))
	for q.Len() > 0 {
		c := heap.Pop(q).(candidate)
		if c.node == nil {
			return c.item, true
		}
		for i := range c.node.entries {
			e := &c.node.entries[i]
			if c.node.leaf {
				heap.Push(q, itemCandidate(e.item, p))
			} else {
				heap.Push(q, boxCandidate(e.box, p, e.child))
			}
		}
	}
	return Item{}, false
}

// candidate is a best-first queue element: a subtree keyed by the minimum
// distance of its box, or an item keyed by its exact distance. far is
// only set once dist2 has overflowed and ranks the candidates past that.
type candidate struct {
	dist2 float64
	far   float64
	node  *node
	item  Item
}

func boxCandidate(box geom.Rect, p geom.Point, n *node) candidate {
	c := candidate{dist2: box.MinDist2(p), node: n}
	if math.IsInf(c.dist2, 1) {
		c.far = box.QuarterMinDist(p)
	}
	return c
}

func itemCandidate(it Item, p geom.Point) candidate {
	c := candidate{dist2: geom.Dist2(p, it.Pt), item: it}
	if math.IsInf(c.dist2, 1) {
		c.far = geom.QuarterDist(p, it.Pt)
	}
	return c
}

type candidates []candidate

func (q candidates) Len() int { return len(q) }

// Less orders by distance. At equal distance subtrees come before items so
// every item at that distance is queued before one is popped, then items
// order by ID.
func (q candidates) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.dist2 != b.dist2 {
		return a.dist2 < b.dist2
	}
	if a.far != b.far {
		return a.far < b.far
	}
	if (a.node == nil) != (b.node == nil) {
		return a.node != nil
	}
	return a.node == nil && a.item.ID < b.item.ID
}

func (q candidates) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *candidates) Push(x any) { *q = append(*q, x.(candidate)) }

func (q *candidates) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}
