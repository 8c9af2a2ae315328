// Package spatial implements an in-memory R-tree over 2D points.
//
// The tree stores Items by value and never looks inside them beyond the ID
// and the point. It is not safe for concurrent use.
package spatial

import (
	"errors"
	"fmt"

	"github.com/cosmicrafts/galaxy/internal/geom"
)

// Default node fan-out.
const (
	DefaultMinChildren = 4
	DefaultMaxChildren = 16
)

// Item is one indexed point. ID must be unique within a tree.
type Item struct {
	ID uint64
	Pt geom.Point
}

// entry is a slot in a node: a child subtree for internal nodes, an item
// for leaves. box always covers everything below the slot.
type entry struct {
	box   geom.Rect
	child *node
	item  Item
}

type node struct {
	parent  *node
	leaf    bool
	entries []entry
}

// Tree is an R-tree. The zero value is not usable; call New.
type Tree struct {
	root        *node
	size        int
	minChildren int
	maxChildren int
}

// New creates an empty tree with the given node size bounds.
func New(minChildren, maxChildren int) (*Tree, error) {
	if maxChildren < 2 {
		return nil, fmt.Errorf("max children %d: must be at least 2", maxChildren)
	}
	if minChildren < 1 || minChildren > maxChildren/2 {
		return nil, errors.New("min children must be between 1 and half of the max children")
	}
	return &Tree{minChildren: minChildren, maxChildren: maxChildren}, nil
}

// Len returns the number of items in the tree.
func (t *Tree) Len() int { return t.size }

// Bounds returns the box covering every item, false when the tree is empty.
func (t *Tree) Bounds() (geom.Rect, bool) {
	if t.size == 0 {
		return geom.Rect{}, false
	}
	return t.root.bounds(), true
}

func (n *node) bounds() geom.Rect {
	bb := n.entries[0].box
	for _, e := range n.entries[1:] {
		bb = bb.Union(e.box)
	}
	return bb
}

func (n *node) indexOf(child *node) int {
	for i := range n.entries {
		if n.entries[i].child == child {
			return i
		}
	}
	panic("spatial: child missing from parent")
}

// Insert adds it to the tree. The caller guarantees ID uniqueness and a
// finite point.
func (t *Tree) Insert(it Item) {
	if t.root == nil {
		t.root = &node{leaf: true}
	}
	box := geom.PointRect(it.Pt)
	leaf := t.chooseLeaf(box)
	leaf.entries = append(leaf.entries, entry{box: box, item: it})
	t.adjust(leaf)
	t.size++
}

// growth ranks how much r has to expand to cover o: by area first, and by
// margin when the area does not change (collinear or coincident points).
func growth(r, o geom.Rect) (float64, float64) {
	u := r.Union(o)
	return u.Area() - r.Area(), u.Margin() - r.Margin()
}

func lessPair(a1, b1, a2, b2 float64) bool {
	if a1 != a2 {
		return a1 < a2
	}
	return b1 < b2
}

func (t *Tree) chooseLeaf(box geom.Rect) *node {
	n := t.root
	for !n.leaf {
		best := 0
		bestArea, bestMargin := growth(n.entries[0].box, box)
		for i := 1; i < len(n.entries); i++ {
			a, m := growth(n.entries[i].box, box)
			switch {
			case lessPair(a, m, bestArea, bestMargin):
				best, bestArea, bestMargin = i, a, m
			case a == bestArea && m == bestMargin &&
				n.entries[i].box.Area() < n.entries[best].box.Area():
				best = i
			}
		}
		n = n.entries[best].child
	}
	return n
}

// adjust walks from n to the root, refreshing parent boxes and splitting
// overflowing nodes. A root split grows the tree by one level.
func (t *Tree) adjust(n *node) {
	for {
		var sibling *node
		if len(n.entries) > t.maxChildren {
			sibling = t.split(n)
		}
		p := n.parent
		if p == nil {
			if sibling != nil {
				root := &node{entries: []entry{
					{box: n.bounds(), child: n},
					{box: sibling.bounds(), child: sibling},
				}}
				n.parent = root
				sibling.parent = root
				t.root = root
			}
			return
		}
		p.entries[p.indexOf(n)].box = n.bounds()
		if sibling != nil {
			sibling.parent = p
			p.entries = append(p.entries, entry{box: sibling.bounds(), child: sibling})
		}
		n = p
	}
}

// split performs Guttman's quadratic split. n keeps the first group and the
// returned sibling receives the second.
func (t *Tree) split(n *node) *node {
	entries := n.entries
	s1, s2 := pickSeeds(entries)

	groupA := []entry{entries[s1]}
	groupB := []entry{entries[s2]}
	boxA, boxB := entries[s1].box, entries[s2].box

	rest := make([]entry, 0, len(entries)-2)
	for i, e := range entries {
		if i != s1 && i != s2 {
			rest = append(rest, e)
		}
	}

	for len(rest) > 0 {
		if len(groupA)+len(rest) <= t.minChildren {
			groupA = append(groupA, rest...)
			for _, e := range rest {
				boxA = boxA.Union(e.box)
			}
			break
		}
		if len(groupB)+len(rest) <= t.minChildren {
			groupB = append(groupB, rest...)
			for _, e := range rest {
				boxB = boxB.Union(e.box)
			}
			break
		}

		next, toA := pickNext(rest, boxA, boxB, len(groupA), len(groupB))
		e := rest[next]
		rest[next] = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
		if toA {
			groupA = append(groupA, e)
			boxA = boxA.Union(e.box)
		} else {
			groupB = append(groupB, e)
			boxB = boxB.Union(e.box)
		}
	}

	n.entries = groupA
	sibling := &node{leaf: n.leaf, entries: groupB}
	if !sibling.leaf {
		for _, e := range sibling.entries {
			e.child.parent = sibling
		}
	}
	return sibling
}

// pickSeeds chooses the pair of entries that would waste the most space if
// put in the same node.
func pickSeeds(entries []entry) (int, int) {
	s1, s2 := 0, 1
	worstArea, worstMargin := -1.0, -1.0
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			u := entries[i].box.Union(entries[j].box)
			area := u.Area() - entries[i].box.Area() - entries[j].box.Area()
			margin := u.Margin() - entries[i].box.Margin() - entries[j].box.Margin()
			if lessPair(worstArea, worstMargin, area, margin) {
				s1, s2 = i, j
				worstArea, worstMargin = area, margin
			}
		}
	}
	return s1, s2
}

// pickNext returns the entry with the strongest preference for one group,
// and whether it goes to group A.
func pickNext(rest []entry, boxA, boxB geom.Rect, sizeA, sizeB int) (int, bool) {
	best := 0
	bestArea, bestMargin := -1.0, -1.0
	bestToA := true
	for i, e := range rest {
		a1, m1 := growth(boxA, e.box)
		a2, m2 := growth(boxB, e.box)
		da, dm := abs(a1-a2), abs(m1-m2)
		if !lessPair(bestArea, bestMargin, da, dm) {
			continue
		}
		best, bestArea, bestMargin = i, da, dm
		switch {
		case lessPair(a1, m1, a2, m2):
			bestToA = true
		case lessPair(a2, m2, a1, m1):
			bestToA = false
		case boxA.Area() != boxB.Area():
			bestToA = boxA.Area() < boxB.Area()
		default:
			bestToA = sizeA <= sizeB
		}
	}
	return best, bestToA
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Delete removes the item with it.ID stored at it.Pt. It reports false when
// no such item exists; the point must match the one used at insert time.
func (t *Tree) Delete(it Item) bool {
	if t.root == nil {
		return false
	}
	leaf, idx := t.findLeaf(t.root, it)
	if leaf == nil {
		return false
	}
	last := len(leaf.entries) - 1
	leaf.entries[idx] = leaf.entries[last]
	leaf.entries = leaf.entries[:last]
	t.size--
	t.condense(leaf)
	return true
}

func (t *Tree) findLeaf(n *node, it Item) (*node, int) {
	for i := range n.entries {
		e := &n.entries[i]
		if !e.box.Contains(it.Pt) {
			continue
		}
		if n.leaf {
			if e.item.ID == it.ID {
				return n, i
			}
			continue
		}
		if leaf, idx := t.findLeaf(e.child, it); leaf != nil {
			return leaf, idx
		}
	}
	return nil, -1
}

// condense removes underfull nodes on the path from n to the root and
// reinserts the items they held.
func (t *Tree) condense(n *node) {
	var orphans []Item
	for n != t.root {
		p := n.parent
		if len(n.entries) < t.minChildren {
			i := p.indexOf(n)
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			collect(n, &orphans)
		} else {
			p.entries[p.indexOf(n)].box = n.bounds()
		}
		n = p
	}

	if !t.root.leaf && len(t.root.entries) == 0 {
		t.root = &node{leaf: true}
	}
	for !t.root.leaf && len(t.root.entries) == 1 {
		t.root = t.root.entries[0].child
		t.root.parent = nil
	}

	t.size -= len(orphans)
	for _, it := range orphans {
		t.Insert(it)
	}
}

func collect(n *node, out *[]Item) {
	for _, e := range n.entries {
		if n.leaf {
			*out = append(*out, e.item)
		} else {
			collect(e.child, out)
		}
	}
}

// Clear drops every item.
func (t *Tree) Clear() {
	t.root = nil
	t.size = 0
}
