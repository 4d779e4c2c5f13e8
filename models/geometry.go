package models

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// MaxCoordinate is the largest absolute coordinate value a vertex may have.
// Keeping coordinates within this bound lets squared distances between any
// two vertices fit an uint64.
const MaxCoordinate = int64(1) << 30

// Point is a vertex in integer build-plate units.
type Point struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

func (p Point) Equal(o Point) bool {
	return p.X == o.X && p.Y == o.Y
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) Scale(s int64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// DistanceSquared returns the squared euclidean distance between p and o.
// Both points must be within MaxCoordinate.
func (p Point) DistanceSquared(o Point) uint64 {
	dx := absDiff(p.X, o.X)
	dy := absDiff(p.Y, o.Y)
	return dx*dx + dy*dy
}

func (p Point) Distance(o Point) float64 {
	return math.Sqrt(float64(p.DistanceSquared(o)))
}

// Validate returns an error when p is outside the supported coordinate range.
func (p Point) Validate() error {
	if p.X > MaxCoordinate || p.X < -MaxCoordinate ||
		p.Y > MaxCoordinate || p.Y < -MaxCoordinate {
		return errors.New("coordinate out of range").
			WithType(ErrTypeCoordinateOutOfRange).
			WithTag("x", p.X).
			WithTag("y", p.Y).
			WithTag("max", MaxCoordinate)
	}
	return nil
}

func absDiff(a, b int64) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}

// Rect is an axis aligned rectangle. Min is inclusive and Max is exclusive.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

func (r Rect) Width() int64 {
	return r.Max.X - r.Min.X
}

func (r Rect) Height() int64 {
	return r.Max.Y - r.Min.Y
}

func (r Rect) Center() Point {
	return Point{
		X: r.Min.X + r.Width()/2,
		Y: r.Min.Y + r.Height()/2,
	}
}

func (r Rect) Empty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X &&
		p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// DistanceSquared returns the squared distance between p and the closest
// point of r. It is 0 when r contains p.
func (r Rect) DistanceSquared(p Point) uint64 {
	closest := Point{
		X: clamp(p.X, r.Min.X, r.Max.X-1),
		Y: clamp(p.Y, r.Min.Y, r.Max.Y-1),
	}
	return p.DistanceSquared(closest)
}

func clamp(v, min, max int64) int64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Bounds returns the smallest rectangle containing all the given points. The
// returned rectangle is empty when no point is given.
func Bounds(points ...Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}

	r := Rect{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max.X++
	r.Max.Y++
	return r
}

// Union returns the smallest rectangle containing r and o. Empty rectangles
// are ignored.
func (r Rect) Union(o Rect) Rect {
	switch {
	case r.Empty():
		return o
	case o.Empty():
		return r
	}

	return Rect{
		Min: Point{X: min(r.Min.X, o.Min.X), Y: min(r.Min.Y, o.Min.Y)},
		Max: Point{X: max(r.Max.X, o.Max.X), Y: max(r.Max.Y, o.Max.Y)},
	}
}

// Polyline is an open path marked in a single laser-on stroke.
type Polyline []Point

// Eligible reports whether the polyline has the two free endpoints required to
// be sequenced.
func (p Polyline) Eligible() bool {
	return len(p) >= 2
}

func (p Polyline) First() Point {
	return p[0]
}

func (p Polyline) Last() Point {
	return p[len(p)-1]
}

// Reversed returns a copy of the polyline with its vertices in reverse order.
func (p Polyline) Reversed() Polyline {
	r := make(Polyline, len(p))
	for i, v := range p {
		r[len(p)-1-i] = v
	}
	return r
}

func (p Polyline) Validate() error {
	for i, v := range p {
		if err := v.Validate(); err != nil {
			return errors.New("invalid polyline vertex").
				WithType(ErrTypeCoordinateOutOfRange).
				WithTag("vertex", i).
				Wrap(err)
		}
	}
	return nil
}

// OrientedPath is a sequenced polyline.
type OrientedPath struct {
	// The index of the polyline in the sequenced batch.
	Index int `json:"index"`

	// Reports whether the vertices are emitted in reverse order.
	Reversed bool `json:"reversed"`

	// The vertices in emitted order.
	Points Polyline `json:"points"`
}

// Orient returns the polyline at the given batch index in the requested
// direction.
func Orient(index int, p Polyline, reversed bool) OrientedPath {
	points := p
	if reversed {
		points = p.Reversed()
	}

	return OrientedPath{
		Index:    index,
		Reversed: reversed,
		Points:   points,
	}
}
