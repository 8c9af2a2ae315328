package spatial

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/cosmicrafts/galaxy/internal/geom"
)

func newTree(t *testing.T, minChildren, maxChildren int) *Tree {
	t.Helper()
	tree, err := New(minChildren, maxChildren)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", minChildren, maxChildren, err)
	}
	return tree
}

// checkTree verifies parent links, box coverage, fan-out and uniform leaf
// depth. strictMin also enforces the minimum fill of non-root nodes.
func checkTree(t *testing.T, tree *Tree, strictMin bool) {
	t.Helper()
	if tree.root == nil {
		if tree.size != 0 {
			t.Fatalf("nil root with size %d", tree.size)
		}
		return
	}
	if tree.root.parent != nil {
		t.Fatal("root has a parent")
	}
	leafDepth := -1
	count := 0
	var visit func(n *node, depth int)
	visit = func(n *node, depth int) {
		if len(n.entries) > tree.maxChildren {
			t.Fatalf("node with %d entries exceeds max %d", len(n.entries), tree.maxChildren)
		}
		if strictMin && n != tree.root && len(n.entries) < tree.minChildren {
			t.Fatalf("non-root node with %d entries below min %d", len(n.entries), tree.minChildren)
		}
		if n.leaf {
			if leafDepth == -1 {
				leafDepth = depth
			} else if leafDepth != depth {
				t.Fatalf("leaves at depth %d and %d", leafDepth, depth)
			}
			for _, e := range n.entries {
				if e.box != geom.PointRect(e.item.Pt) {
					t.Fatalf("leaf entry %d box %+v does not match point %+v", e.item.ID, e.box, e.item.Pt)
				}
				count++
			}
			return
		}
		for _, e := range n.entries {
			if e.child.parent != n {
				t.Fatal("child parent link broken")
			}
			if len(e.child.entries) == 0 {
				t.Fatal("empty internal child")
			}
			if got := e.child.bounds(); got != e.box {
				t.Fatalf("stale box: entry %+v, child bounds %+v", e.box, got)
			}
			visit(e.child, depth+1)
		}
	}
	visit(tree.root, 0)
	if count != tree.size {
		t.Fatalf("counted %d items, size says %d", count, tree.size)
	}
}

func randomItems(r *rand.Rand, n int, spread float64) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			ID: uint64(i + 1),
			Pt: geom.Pt(r.Float64()*spread-spread/2, r.Float64()*spread-spread/2),
		}
	}
	return items
}

func ids(items []Item) []uint64 {
	out := make([]uint64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewRejectsBadFanOut(t *testing.T) {
	cases := []struct{ min, max int }{
		{0, 8},
		{5, 8},
		{1, 1},
	}
	for _, c := range cases {
		if _, err := New(c.min, c.max); err == nil {
			t.Errorf("New(%d, %d) accepted invalid fan-out", c.min, c.max)
		}
	}
}

func TestInsertSearchMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	tree := newTree(t, 2, 6)
	items := randomItems(r, 500, 1000)
	for _, it := range items {
		tree.Insert(it)
	}
	checkTree(t, tree, true)

	for q := 0; q < 50; q++ {
		a := geom.Pt(r.Float64()*1000-500, r.Float64()*1000-500)
		b := geom.Pt(a.X+r.Float64()*300, a.Y+r.Float64()*300)
		box := geom.Rect{Min: a, Max: b}

		var want []Item
		for _, it := range items {
			if box.Contains(it.Pt) {
				want = append(want, it)
			}
		}
		var got []Item
		tree.Search(box, func(it Item) bool {
			got = append(got, it)
			return true
		})
		if !equalIDs(ids(got), ids(want)) {
			t.Fatalf("query %d: got %v, want %v", q, ids(got), ids(want))
		}
	}
}

func TestSearchEmptyBoxFindsNothing(t *testing.T) {
	tree := newTree(t, 2, 4)
	tree.Insert(Item{ID: 1, Pt: geom.Pt(1, 1)})
	hit := false
	tree.Search(geom.Rect{Min: geom.Pt(2, 2), Max: geom.Pt(0, 0)}, func(Item) bool {
		hit = true
		return true
	})
	if hit {
		t.Error("inverted box returned an item")
	}
}

func TestSearchStopsEarly(t *testing.T) {
	tree := newTree(t, 2, 4)
	for i := 0; i < 40; i++ {
		tree.Insert(Item{ID: uint64(i + 1), Pt: geom.Pt(float64(i), 0)})
	}
	calls := 0
	tree.Search(geom.Rect{Min: geom.Pt(0, 0), Max: geom.Pt(100, 0)}, func(Item) bool {
		calls++
		return calls < 3
	})
	if calls != 3 {
		t.Errorf("callback ran %d times, want 3", calls)
	}
}

func TestWithinIsExactEuclidean(t *testing.T) {
	tree := newTree(t, 2, 4)
	tree.Insert(Item{ID: 1, Pt: geom.Pt(3, 4)})   // distance 5
	tree.Insert(Item{ID: 2, Pt: geom.Pt(4, 4)})   // inside the square, outside the circle
	tree.Insert(Item{ID: 3, Pt: geom.Pt(0, 0)})   // centre
	tree.Insert(Item{ID: 4, Pt: geom.Pt(-5, 0)})  // on the rim
	tree.Insert(Item{ID: 5, Pt: geom.Pt(0, 5.1)}) // just outside

	var got []Item
	tree.Within(geom.Pt(0, 0), 5, func(it Item) bool {
		got = append(got, it)
		return true
	})
	if want := []uint64{1, 3, 4}; !equalIDs(ids(got), want) {
		t.Errorf("Within = %v, want %v", ids(got), want)
	}
}

func TestWithinHugeRadiusAndSpans(t *testing.T) {
	tree := newTree(t, 2, 4)
	tree.Insert(Item{ID: 1, Pt: geom.Pt(0, 0)})
	tree.Insert(Item{ID: 2, Pt: geom.Pt(1e300, 0)})
	tree.Insert(Item{ID: 3, Pt: geom.Pt(0, 9e199)})
	tree.Insert(Item{ID: 4, Pt: geom.Pt(-1.7e308, 1.7e308)})

	within := func(c geom.Point, radius float64) []uint64 {
		var got []Item
		tree.Within(c, radius, func(it Item) bool {
			got = append(got, it)
			return true
		})
		return ids(got)
	}
	if got, want := within(geom.Pt(0, 0), 1e200), []uint64{1, 3}; !equalIDs(got, want) {
		t.Errorf("Within(r=1e200) = %v, want %v", got, want)
	}
	if got, want := within(geom.Pt(0, 0), math.MaxFloat64), []uint64{1, 2, 3}; !equalIDs(got, want) {
		t.Errorf("Within(r=MaxFloat64) = %v, want %v", got, want)
	}
	if got, want := within(geom.Pt(1.7e308, 0), 1e200), []uint64(nil); !equalIDs(got, want) {
		t.Errorf("Within far corner = %v, want none", got)
	}
}

func TestWithinZeroRadiusFindsCoincidentPoints(t *testing.T) {
	tree := newTree(t, 2, 4)
	tree.Insert(Item{ID: 1, Pt: geom.Pt(2, 2)})
	tree.Insert(Item{ID: 2, Pt: geom.Pt(2, 2)})
	tree.Insert(Item{ID: 3, Pt: geom.Pt(2, 2.0001)})
	var got []Item
	tree.Within(geom.Pt(2, 2), 0, func(it Item) bool {
		got = append(got, it)
		return true
	})
	if want := []uint64{1, 2}; !equalIDs(ids(got), want) {
		t.Errorf("Within(r=0) = %v, want %v", ids(got), want)
	}
}

func TestNearestMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	tree := newTree(t, 3, 8)
	items := randomItems(r, 400, 500)
	for _, it := range items {
		tree.Insert(it)
	}

	for q := 0; q < 100; q++ {
		p := geom.Pt(r.Float64()*700-350, r.Float64()*700-350)
		best := math.Inf(1)
		for _, it := range items {
			best = math.Min(best, geom.Dist2(p, it.Pt))
		}
		got, ok := tree.Nearest(p)
		if !ok {
			t.Fatal("Nearest on non-empty tree returned nothing")
		}
		if d := geom.Dist2(p, got.Pt); d != best {
			t.Fatalf("Nearest(%v) at distance² %v, brute force %v", p, d, best)
		}
	}
}

func TestNearestTieBreaksOnSmallestID(t *testing.T) {
	tree := newTree(t, 2, 4)
	for _, it := range []Item{
		{ID: 9, Pt: geom.Pt(1, 0)},
		{ID: 4, Pt: geom.Pt(-1, 0)},
		{ID: 7, Pt: geom.Pt(0, 1)},
		{ID: 12, Pt: geom.Pt(0, -1)},
		{ID: 1, Pt: geom.Pt(10, 10)},
	} {
		tree.Insert(it)
	}
	got, ok := tree.Nearest(geom.Pt(0, 0))
	if !ok || got.ID != 4 {
		t.Errorf("Nearest = %+v, %v; want ID 4", got, ok)
	}
}

func TestNearestBeyondSquaredRange(t *testing.T) {
	tree := newTree(t, 2, 4)
	tree.Insert(Item{ID: 1, Pt: geom.Pt(1.5e300, 0)})
	tree.Insert(Item{ID: 2, Pt: geom.Pt(1e300, 0)})
	tree.Insert(Item{ID: 3, Pt: geom.Pt(0, -1.2e300)})
	tree.Insert(Item{ID: 4, Pt: geom.Pt(-1.7e308, 0)})
	tree.Insert(Item{ID: 5, Pt: geom.Pt(1.7e308, 1.7e308)})

	got, ok := tree.Nearest(geom.Pt(0, 0))
	if !ok || got.ID != 2 {
		t.Errorf("Nearest(origin) = %+v, %v; want ID 2", got, ok)
	}
	// The span to ID 4 overflows even a single coordinate difference.
	got, ok = tree.Nearest(geom.Pt(1.7e308, 1e308))
	if !ok || got.ID != 5 {
		t.Errorf("Nearest(far corner) = %+v, %v; want ID 5", got, ok)
	}
}

func TestNearestEmpty(t *testing.T) {
	tree := newTree(t, 2, 4)
	if _, ok := tree.Nearest(geom.Pt(0, 0)); ok {
		t.Error("Nearest on empty tree reported a result")
	}
}

func TestDeleteKeepsTreeConsistent(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	tree := newTree(t, 2, 5)
	items := randomItems(r, 300, 200)
	for _, it := range items {
		tree.Insert(it)
	}

	r.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	for i, it := range items {
		if !tree.Delete(it) {
			t.Fatalf("Delete(%d) reported missing", it.ID)
		}
		if tree.Delete(it) {
			t.Fatalf("second Delete(%d) reported success", it.ID)
		}
		if i%25 == 0 {
			checkTree(t, tree, true)
		}
		if tree.Len() != len(items)-i-1 {
			t.Fatalf("Len = %d after %d deletes", tree.Len(), i+1)
		}
	}
	if _, ok := tree.Bounds(); ok {
		t.Error("empty tree reports bounds")
	}
}

func TestDeleteNeedsMatchingPoint(t *testing.T) {
	tree := newTree(t, 2, 4)
	tree.Insert(Item{ID: 1, Pt: geom.Pt(5, 5)})
	if tree.Delete(Item{ID: 1, Pt: geom.Pt(6, 6)}) {
		t.Fatal("Delete with wrong point succeeded")
	}
	if !tree.Delete(Item{ID: 1, Pt: geom.Pt(5, 5)}) {
		t.Fatal("Delete with stored point failed")
	}
}

func TestCollinearAndCoincidentPoints(t *testing.T) {
	tree := newTree(t, 2, 4)
	for i := 0; i < 100; i++ {
		tree.Insert(Item{ID: uint64(i + 1), Pt: geom.Pt(float64(i%10), 0)})
	}
	checkTree(t, tree, true)

	n := 0
	tree.Search(geom.Rect{Min: geom.Pt(3, 0), Max: geom.Pt(3, 0)}, func(Item) bool {
		n++
		return true
	})
	if n != 10 {
		t.Errorf("found %d points at (3,0), want 10", n)
	}
}

func TestBulkLoad(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	tree := newTree(t, 4, 16)
	tree.Insert(Item{ID: 99999, Pt: geom.Pt(0, 0)})

	items := randomItems(r, 2000, 10000)
	tree.BulkLoad(items)
	checkTree(t, tree, false)
	if tree.Len() != len(items) {
		t.Fatalf("Len = %d, want %d", tree.Len(), len(items))
	}

	var all []Item
	tree.Walk(func(it Item) bool {
		all = append(all, it)
		return true
	})
	if !equalIDs(ids(all), ids(items)) {
		t.Fatal("bulk loaded tree lost or kept stale items")
	}

	// The packed tree must keep working under ordinary updates.
	for _, it := range items[:500] {
		if !tree.Delete(it) {
			t.Fatalf("Delete(%d) after bulk load failed", it.ID)
		}
	}
	for i := 0; i < 200; i++ {
		tree.Insert(Item{ID: uint64(10000 + i), Pt: geom.Pt(float64(i), float64(-i))})
	}
	checkTree(t, tree, false)
	if tree.Len() != 1700 {
		t.Errorf("Len = %d, want 1700", tree.Len())
	}
}

func TestBulkLoadEmpty(t *testing.T) {
	tree := newTree(t, 2, 4)
	tree.Insert(Item{ID: 1, Pt: geom.Pt(1, 1)})
	tree.BulkLoad(nil)
	if tree.Len() != 0 {
		t.Errorf("Len = %d after empty bulk load", tree.Len())
	}
	tree.Insert(Item{ID: 2, Pt: geom.Pt(2, 2)})
	if tree.Len() != 1 {
		t.Errorf("Len = %d after insert into reset tree", tree.Len())
	}
}
