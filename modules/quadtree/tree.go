package quadtree

import (
	"slices"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/scanorder/models"
)

// MaxDepth is the depth of the leaves. Only leaves hold endpoints.
const MaxDepth = 16

// NodeID addresses a node in a Tree.
type NodeID int32

// NoNode is returned when there is no node to return.
const NoNode NodeID = -1

const rootNode NodeID = 0

type node struct {
	region    models.Rect
	depth     uint8
	quadrant  Quadrant
	liveCount uint32
	parent    NodeID
	children  [4]NodeID

	// Endpoints stored in a leaf, in insertion order.
	points []EndpointID
}

func (n *node) leaf() bool {
	return n.depth == MaxDepth
}

// Tree is a fixed depth region quadtree over the endpoints of a Registry.
// Nodes are created on demand when an endpoint is inserted below them and are
// kept until the tree is dropped.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	registry *Registry
	nodes    []node
}

// RootRegion returns the square region used as the root of a tree holding
// points within bounds. The side is a power of two so that every split is
// exact.
func RootRegion(bounds models.Rect) models.Rect {
	side := int64(1) << MaxDepth
	for side < bounds.Width() || side < bounds.Height() {
		side <<= 1
	}

	return models.Rect{
		Min: bounds.Min,
		Max: bounds.Min.Add(models.Point{X: side, Y: side}),
	}
}

// New returns an empty tree covering every endpoint of the registry.
func New(r *Registry) *Tree {
	return NewWithRegion(r, RootRegion(r.Bounds()))
}

// NewWithRegion returns an empty tree whose root covers the given region.
// The region must be a square with a side that is a multiple of
// 1<<MaxDepth.
func NewWithRegion(r *Registry, region models.Rect) *Tree {
	t := &Tree{
		registry: r,
		nodes:    make([]node, 0, 1+r.Len()*2),
	}
	t.nodes = append(t.nodes, node{
		region:   region,
		parent:   NoNode,
		children: [4]NodeID{NoNode, NoNode, NoNode, NoNode},
	})
	return t
}

// Region returns the region covered by the root of the tree.
func (t *Tree) Region() models.Rect {
	return t.nodes[rootNode].region
}

// Insert stores the endpoint with the given id and its sibling in the tree.
// Nothing is stored when an error is returned.
func (t *Tree) Insert(id EndpointID) error {
	if !t.registry.valid(id) {
		return errors.New("unknown endpoint").
			WithType(models.ErrTypeEndpointNotLive).
			WithTag("endpoint_id", id)
	}

	sibling := t.registry.endpoint(id).Sibling
	for _, eid := range [2]EndpointID{id, sibling} {
		e := t.registry.endpoint(eid)
		if e.live {
			return errors.New("endpoint is already inserted").
				WithType(models.ErrTypeEndpointLive).
				WithTag("endpoint_id", eid).
				WithTag("path_id", e.PathID)
		}
		if !t.Region().Contains(e.Scaled) {
			return errors.New("endpoint is outside of the tree region").
				WithType(models.ErrTypeEndpointOutOfRegion).
				WithTag("endpoint_id", eid).
				WithTag("path_id", e.PathID).
				WithTag("x", e.Coord.X).
				WithTag("y", e.Coord.Y)
		}
	}

	t.insert(id)
	t.insert(sibling)
	return nil
}

func (t *Tree) insert(id EndpointID) {
	e := t.registry.endpoint(id)

	n := rootNode
	for {
		t.nodes[n].liveCount++
		if t.nodes[n].leaf() {
			t.nodes[n].points = append(t.nodes[n].points, id)
			e.leaf = n
			e.live = true
			return
		}

		q := quadrantOf(t.nodes[n].region, e.Scaled)
		child := t.nodes[n].children[q.slot()]
		if child == NoNode {
			child = t.addChild(n, q)
		}
		n = child
	}
}

func (t *Tree) addChild(parent NodeID, q Quadrant) NodeID {
	p := t.nodes[parent]
	id := NodeID(len(t.nodes))

	t.nodes = append(t.nodes, node{
		region:   childRegion(p.region, q),
		depth:    p.depth + 1,
		quadrant: q,
		parent:   parent,
		children: [4]NodeID{NoNode, NoNode, NoNode, NoNode},
	})
	t.nodes[parent].children[q.slot()] = id
	return id
}

// Remove takes the endpoint with the given id and its sibling out of the
// tree. Nothing is removed when an error is returned.
func (t *Tree) Remove(id EndpointID) error {
	if !t.registry.valid(id) {
		return errors.New("unknown endpoint").
			WithType(models.ErrTypeEndpointNotLive).
			WithTag("endpoint_id", id)
	}

	sibling := t.registry.endpoint(id).Sibling
	for _, eid := range [2]EndpointID{id, sibling} {
		if e := t.registry.endpoint(eid); !e.live {
			return errors.New("endpoint is not in the tree").
				WithType(models.ErrTypeEndpointNotLive).
				WithTag("endpoint_id", eid).
				WithTag("path_id", e.PathID)
		}
	}

	t.remove(id)
	t.remove(sibling)
	return nil
}

func (t *Tree) remove(id EndpointID) {
	e := t.registry.endpoint(id)

	leaf := &t.nodes[e.leaf]
	if i := slices.Index(leaf.points, id); i >= 0 {
		leaf.points = slices.Delete(leaf.points, i, i+1)
	}

	for n := e.leaf; n != NoNode; n = t.nodes[n].parent {
		t.nodes[n].liveCount--
	}

	e.leaf = NoNode
	e.live = false
}

// IsEmpty reports whether the tree holds no endpoint.
func (t *Tree) IsEmpty() bool {
	return t.nodes[rootNode].liveCount == 0
}

// LiveCount returns the number of endpoints in the tree.
func (t *Tree) LiveCount() int {
	return int(t.nodes[rootNode].liveCount)
}

// LevelCounts returns, for each depth, the sum of the live counts of the
// nodes at that depth.
func (t *Tree) LevelCounts() []uint64 {
	counts := make([]uint64, MaxDepth+1)
	for _, n := range t.nodes {
		counts[n.depth] += uint64(n.liveCount)
	}
	return counts
}

// Stats describes the shape of a tree.
type Stats struct {
	Nodes  int
	Leaves int
	Live   int
}

func (t *Tree) Stats() Stats {
	s := Stats{
		Nodes: len(t.nodes),
		Live:  t.LiveCount(),
	}
	for i := range t.nodes {
		if t.nodes[i].leaf() {
			s.Leaves++
		}
	}
	return s
}

// Check verifies the tree invariants: every live endpoint is in exactly one
// leaf that contains it, every live count is the number of endpoints below
// its node, and no endpoint is live without its sibling.
func (t *Tree) Check() error {
	seen := make(map[EndpointID]NodeID, t.LiveCount())

	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := &t.nodes[i]
		id := NodeID(i)

		var count uint32
		if n.leaf() {
			for _, eid := range n.points {
				if prev, ok := seen[eid]; ok {
					return errors.New("endpoint stored in more than one leaf").
						WithTag("endpoint_id", eid).
						WithTag("leaf", id).
						WithTag("other_leaf", prev)
				}
				seen[eid] = id

				e := t.registry.Get(eid)
				if !e.live || e.leaf != id {
					return errors.New("leaf holds an endpoint that does not point back to it").
						WithTag("endpoint_id", eid).
						WithTag("leaf", id)
				}
				if !n.region.Contains(e.Scaled) {
					return errors.New("leaf holds an endpoint outside of its region").
						WithTag("endpoint_id", eid).
						WithTag("leaf", id)
				}
			}
			count = uint32(len(n.points))
		} else {
			for _, c := range n.children {
				if c != NoNode {
					count += t.nodes[c].liveCount
				}
			}
		}

		if count != n.liveCount {
			return errors.New("live count does not match the node content").
				WithTag("node", id).
				WithTag("depth", n.depth).
				WithTag("live_count", n.liveCount).
				WithTag("expected", count)
		}
	}

	for i := 0; i < t.registry.Len(); i++ {
		e := t.registry.Get(EndpointID(i))
		_, stored := seen[EndpointID(i)]
		if e.live != stored {
			return errors.New("endpoint liveness does not match the tree content").
				WithTag("endpoint_id", i).
				WithTag("live", e.live)
		}
		if e.live != t.registry.Get(e.Sibling).live {
			return errors.New("endpoint is live without its sibling").
				WithTag("endpoint_id", i).
				WithTag("sibling_id", e.Sibling)
		}
	}
	return nil
}
