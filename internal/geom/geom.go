package geom

import "math"

// Point is a position in the galaxy plane.
type Point struct {
	X float64 `yaml:"x" msgpack:"x"`
	Y float64 `yaml:"y" msgpack:"y"`
}

// Vector is a per-second rate along both axes (velocity or acceleration).
type Vector struct {
	DX float64 `yaml:"dx" msgpack:"dx"`
	DY float64 `yaml:"dy" msgpack:"dy"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Finite reports whether both coordinates are finite.
func (p Point) Finite() bool { return finite(p.X) && finite(p.Y) }

// Identical reports whether p and q have bit-identical coordinates, so
// -0 and +0 differ.
func (p Point) Identical(q Point) bool {
	return math.Float64bits(p.X) == math.Float64bits(q.X) &&
		math.Float64bits(p.Y) == math.Float64bits(q.Y)
}

// Finite reports whether both components are finite.
func (v Vector) Finite() bool { return finite(v.DX) && finite(v.DY) }

// IsZero reports whether the vector has no magnitude.
func (v Vector) IsZero() bool { return v.DX == 0 && v.DY == 0 }

// Add returns p translated by v scaled by dt.
func (p Point) Add(v Vector, dt float64) Point {
	return Point{X: p.X + v.DX*dt, Y: p.Y + v.DY*dt}
}

// Scale returns v multiplied by k.
func (v Vector) Scale(k float64) Vector { return Vector{DX: v.DX * k, DY: v.DY * k} }

// Plus returns the component-wise sum.
func (v Vector) Plus(o Vector) Vector { return Vector{DX: v.DX + o.DX, DY: v.DY + o.DY} }

// Dot is the scalar product of v and o.
func (v Vector) Dot(o Vector) float64 { return v.DX*o.DX + v.DY*o.DY }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Vector { return Vector{DX: p.X - q.X, DY: p.Y - q.Y} }

// Dist2 is the squared Euclidean distance between p and q. It overflows to
// +Inf once the points are more than about 1.3e154 apart; see QuarterDist.
func Dist2(p, q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Dist is the Euclidean distance between p and q.
func Dist(p, q Point) float64 { return math.Sqrt(Dist2(p, q)) }

// QuarterDist is Dist(p, q)/4, computed so that it stays finite for every
// pair of finite points. It ranks pairs whose Dist2 has overflowed.
func QuarterDist(p, q Point) float64 {
	return math.Hypot(p.X/4-q.X/4, p.Y/4-q.Y/4)
}

// InRadius reports whether q is at most r away from p.
func InRadius(p, q Point, r float64) bool {
	d2, r2 := Dist2(p, q), r*r
	if math.IsInf(d2, 1) && math.IsInf(r2, 1) {
		return QuarterDist(p, q) <= r/4
	}
	return d2 <= r2
}
