package quadtree

import (
	"math"

	"github.com/aukilabs/scanorder/models"
)

type candidate struct {
	id   EndpointID
	dist uint64
}

func (c *candidate) found() bool {
	return c.id != NoEndpoint
}

func (c *candidate) offer(id EndpointID, dist uint64) {
	if !c.found() || dist < c.dist || (dist == c.dist && id < c.id) {
		c.id = id
		c.dist = dist
	}
}

// Nearest returns a live endpoint close to reference, or NoEndpoint when the
// tree is empty.
//
// The search looks at the leaf containing reference first, then at the
// regions around it, doubling the searched region until something is found.
// The returned endpoint is the closest one within the first region that
// yields a candidate, which is not always the closest one of the whole tree.
// Equally distant endpoints are resolved in favor of the lowest id.
func (t *Tree) Nearest(reference models.Point) EndpointID {
	if t.IsEmpty() {
		return NoEndpoint
	}
	return t.ExpandSearch(t.Locate(reference), reference)
}

// Locate returns the deepest existing node whose region contains reference.
// It returns the root when reference is outside of the tree region.
func (t *Tree) Locate(reference models.Point) NodeID {
	scaled := reference.Scale(SubUnitScale)

	n := rootNode
	if !t.nodes[n].region.Contains(scaled) {
		return n
	}

	for !t.nodes[n].leaf() {
		child := t.nodes[n].children[quadrantOf(t.nodes[n].region, scaled).slot()]
		if child == NoNode {
			break
		}
		n = child
	}
	return n
}

// NearestInLeaf returns the endpoint of the given leaf closest to reference,
// or NoEndpoint when the leaf is empty.
func (t *Tree) NearestInLeaf(leaf NodeID, reference models.Point) EndpointID {
	c := candidate{id: NoEndpoint}
	t.nearestInLeaf(leaf, reference, &c)
	return c.id
}

func (t *Tree) nearestInLeaf(leaf NodeID, reference models.Point, c *candidate) {
	for _, id := range t.nodes[leaf].points {
		c.offer(id, t.registry.Get(id).Coord.DistanceSquared(reference))
	}
}

// ExpandSearch looks for the endpoint closest to reference in the region of
// start. When that region is empty, it probes the 8 adjacent regions of the
// same size, then moves to the parent region and repeats until a candidate is
// found or the root has been searched.
func (t *Tree) ExpandSearch(start NodeID, reference models.Point) EndpointID {
	for n := start; n != NoNode; n = t.nodes[n].parent {
		c := candidate{id: NoEndpoint}

		t.searchSubtree(n, reference, &c)
		if c.found() {
			return c.id
		}

		for _, dir := range directions {
			if nb := t.Neighbor(n, dir); nb != NoNode {
				t.searchSubtree(nb, reference, &c)
			}
		}
		if c.found() {
			return c.id
		}
	}
	return NoEndpoint
}

// searchSubtree offers c the closest endpoint below n. Children are visited
// closest region first and skipped once they cannot beat the current
// candidate.
func (t *Tree) searchSubtree(n NodeID, reference models.Point, c *candidate) {
	if t.nodes[n].liveCount == 0 {
		return
	}
	if c.found() && t.regionDistance(n, reference) > c.dist {
		return
	}
	if t.nodes[n].leaf() {
		t.nearestInLeaf(n, reference, c)
		return
	}

	var (
		order [4]NodeID
		dists [4]uint64
		count int
	)
	for _, child := range t.nodes[n].children {
		if child == NoNode || t.nodes[child].liveCount == 0 {
			continue
		}

		d := t.regionDistance(child, reference)
		i := count
		for ; i > 0 && dists[i-1] > d; i-- {
			order[i] = order[i-1]
			dists[i] = dists[i-1]
		}
		order[i] = child
		dists[i] = d
		count++
	}

	for i := 0; i < count; i++ {
		t.searchSubtree(order[i], reference, c)
	}
}

// regionDistance returns the squared distance, in vertex units, between
// reference and the closest vertex position the region of n can hold.
func (t *Tree) regionDistance(n NodeID, reference models.Point) uint64 {
	r := t.nodes[n].region
	vertices := models.Rect{
		Min: models.Point{X: ceilDiv(r.Min.X, SubUnitScale), Y: ceilDiv(r.Min.Y, SubUnitScale)},
		Max: models.Point{X: ceilDiv(r.Max.X, SubUnitScale), Y: ceilDiv(r.Max.Y, SubUnitScale)},
	}
	if vertices.Empty() {
		return math.MaxUint64
	}
	return vertices.DistanceSquared(reference)
}

// Neighbor returns the node of the same depth as n that is adjacent to it in
// direction dir, or NoNode when that region is outside of the tree or holds
// no node. The walk climbs to the closest ancestor containing the adjacent
// region and descends toward it.
func (t *Tree) Neighbor(n NodeID, dir Quadrant) NodeID {
	region := t.nodes[n].region
	depth := t.nodes[n].depth
	target := dir.offset(region.Min, region.Width())

	a := t.nodes[n].parent
	for a != NoNode && !t.nodes[a].region.Contains(target) {
		a = t.nodes[a].parent
	}
	if a == NoNode {
		return NoNode
	}

	m := a
	for t.nodes[m].depth < depth {
		child := t.nodes[m].children[quadrantOf(t.nodes[m].region, target).slot()]
		if child == NoNode {
			return NoNode
		}
		m = child
	}
	return m
}

// Parent returns the parent of n, or NoNode for the root.
func (t *Tree) Parent(n NodeID) NodeID {
	return t.nodes[n].parent
}

// Depth returns the depth of n.
func (t *Tree) Depth(n NodeID) int {
	return int(t.nodes[n].depth)
}

// LeafOf returns the leaf holding the endpoint with the given id, or NoNode
// when the endpoint is not live.
func (t *Tree) LeafOf(id EndpointID) NodeID {
	return t.registry.Get(id).leaf
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a > 0) == (b > 0) {
		q++
	}
	return q
}
