package spatial

import (
	"math"
	"sort"

	"github.com/cosmicrafts/galaxy/internal/geom"
)

// BulkLoad replaces the contents of the tree with items, packed with
// Sort-Tile-Recursive. It costs O(n log n) and yields fuller nodes than n
// single inserts; use it for cold start, not steady-state updates.
func (t *Tree) BulkLoad(items []Item) {
	t.Clear()
	if len(items) == 0 {
		return
	}

	entries := make([]entry, len(items))
	for i, it := range items {
		entries[i] = entry{box: geom.PointRect(it.Pt), item: it}
	}

	leaf := true
	for {
		nodes := t.pack(entries, leaf)
		if len(nodes) == 1 {
			t.root = nodes[0]
			break
		}
		entries = make([]entry, len(nodes))
		for i, n := range nodes {
			entries[i] = entry{box: n.bounds(), child: n}
		}
		leaf = false
	}
	t.size = len(items)
}

// pack tiles entries into nodes of at most maxChildren: vertical slices by
// box centre X, then runs by centre Y inside each slice.
func (t *Tree) pack(entries []entry, leaf bool) []*node {
	nodeCount := ceilDiv(len(entries), t.maxChildren)
	sliceCount := int(math.Ceil(math.Sqrt(float64(nodeCount))))
	sliceLen := ceilDiv(len(entries), sliceCount)

	sort.SliceStable(entries, func(i, j int) bool { return centreX(entries[i].box) < centreX(entries[j].box) })

	nodes := make([]*node, 0, nodeCount)
	for start := 0; start < len(entries); start += sliceLen {
		end := min(start+sliceLen, len(entries))
		slice := entries[start:end]
		sort.SliceStable(slice, func(i, j int) bool { return centreY(slice[i].box) < centreY(slice[j].box) })

		// Spread the slice evenly so no node is left with a handful of
		// entries at the end.
		runs := ceilDiv(len(slice), t.maxChildren)
		for r := 0; r < runs; r++ {
			lo := r * len(slice) / runs
			hi := (r + 1) * len(slice) / runs
			n := &node{leaf: leaf, entries: append([]entry(nil), slice[lo:hi]...)}
			if !leaf {
				for _, e := range n.entries {
					e.child.parent = n
				}
			}
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func centreX(r geom.Rect) float64 { return (r.Min.X + r.Max.X) / 2 }
func centreY(r geom.Rect) float64 { return (r.Min.Y + r.Max.Y) / 2 }

func ceilDiv(a, b int) int { return (a + b - 1) / b }
