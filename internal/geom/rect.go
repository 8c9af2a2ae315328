package geom

import "math"

// Rect is a closed axis-aligned box. A Rect with Min greater than Max on
// either axis is empty and contains nothing.
type Rect struct {
	Min Point
	Max Point
}

// PointRect is the degenerate box covering exactly p.
func PointRect(p Point) Rect { return Rect{Min: p, Max: p} }

// Empty reports whether the box contains no points.
func (r Rect) Empty() bool { return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y }

// Contains reports whether p lies inside r, borders included.
func (r Rect) Contains(p Point) bool {
	return r.Min.X <= p.X && p.X <= r.Max.X &&
		r.Min.Y <= p.Y && p.Y <= r.Max.Y
}

// Intersects reports whether r and o share at least one point.
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X &&
		r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Union is the smallest box covering both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Min: Point{X: math.Min(r.Min.X, o.Min.X), Y: math.Min(r.Min.Y, o.Min.Y)},
		Max: Point{X: math.Max(r.Max.X, o.Max.X), Y: math.Max(r.Max.Y, o.Max.Y)},
	}
}

// Area of the box. Degenerate boxes have zero area.
func (r Rect) Area() float64 {
	return (r.Max.X - r.Min.X) * (r.Max.Y - r.Min.Y)
}

// Margin is half the perimeter, used to rank boxes of equal area.
func (r Rect) Margin() float64 {
	return (r.Max.X - r.Min.X) + (r.Max.Y - r.Min.Y)
}

// Enlargement is how much r's area grows to also cover o.
func (r Rect) Enlargement(o Rect) float64 {
	return r.Union(o).Area() - r.Area()
}

// MinDist2 is the squared distance from p to the nearest point of r,
// zero when p is inside.
func (r Rect) MinDist2(p Point) float64 {
	dx, dy := r.gap(p, 1)
	return dx*dx + dy*dy
}

// QuarterMinDist is the distance from p to r divided by four, finite for
// finite inputs. It never exceeds QuarterDist(p, q) for any q inside r.
func (r Rect) QuarterMinDist(p Point) float64 {
	dx, dy := r.gap(p, 4)
	return math.Hypot(dx, dy)
}

// gap is the per-axis distance from p to r with every coordinate divided
// by div first.
func (r Rect) gap(p Point, div float64) (dx, dy float64) {
	if p.X < r.Min.X {
		dx = r.Min.X/div - p.X/div
	} else if p.X > r.Max.X {
		dx = p.X/div - r.Max.X/div
	}
	if p.Y < r.Min.Y {
		dy = r.Min.Y/div - p.Y/div
	} else if p.Y > r.Max.Y {
		dy = p.Y/div - r.Max.Y/div
	}
	return dx, dy
}
