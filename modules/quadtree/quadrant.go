package quadtree

import (
	"strings"

	"github.com/aukilabs/scanorder/models"
)

// Quadrant is a combination of direction flags. It tags the position of a
// node within its parent and names the directions probed by neighbor search.
type Quadrant uint8

const (
	Left Quadrant = 1 << iota
	Right
	Up
	Down
)

// The 8 directions around a node, orthogonal first.
var directions = [8]Quadrant{
	Left,
	Right,
	Up,
	Down,
	Left | Up,
	Right | Up,
	Left | Down,
	Right | Down,
}

func (q Quadrant) String() string {
	var parts []string
	if q&Left != 0 {
		parts = append(parts, "left")
	}
	if q&Right != 0 {
		parts = append(parts, "right")
	}
	if q&Up != 0 {
		parts = append(parts, "up")
	}
	if q&Down != 0 {
		parts = append(parts, "down")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// slot returns the index of the quadrant in a node children array.
func (q Quadrant) slot() int {
	s := 0
	if q&Right != 0 {
		s |= 1
	}
	if q&Up != 0 {
		s |= 2
	}
	return s
}

// quadrantOf returns the quadrant of region that contains p.
func quadrantOf(region models.Rect, p models.Point) Quadrant {
	c := region.Center()

	q := Left
	if p.X >= c.X {
		q = Right
	}
	if p.Y >= c.Y {
		q |= Up
	} else {
		q |= Down
	}
	return q
}

// childRegion returns the quadrant q of region.
func childRegion(region models.Rect, q Quadrant) models.Rect {
	half := region.Width() / 2

	min := region.Min
	if q&Right != 0 {
		min.X += half
	}
	if q&Up != 0 {
		min.Y += half
	}

	return models.Rect{
		Min: min,
		Max: min.Add(models.Point{X: half, Y: half}),
	}
}

// offset returns p moved by side in each direction of q.
func (q Quadrant) offset(p models.Point, side int64) models.Point {
	if q&Left != 0 {
		p.X -= side
	}
	if q&Right != 0 {
		p.X += side
	}
	if q&Up != 0 {
		p.Y += side
	}
	if q&Down != 0 {
		p.Y -= side
	}
	return p
}
