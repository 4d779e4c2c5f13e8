package quadtree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/scanorder/models"
)

// SubUnitScale is the factor applied to vertex coordinates to place them in
// the tree coordinate space.
const SubUnitScale = 4

// EndpointID addresses an endpoint in a Registry.
type EndpointID int32

// NoEndpoint is returned when there is no endpoint to return.
const NoEndpoint EndpointID = -1

// Role tells which end of its path an endpoint is.
type Role uint8

const (
	Start Role = iota
	End
)

func (r Role) String() string {
	if r == End {
		return "end"
	}
	return "start"
}

// Endpoint is one of the two free vertices of a path.
type Endpoint struct {
	Coord   models.Point
	Scaled  models.Point
	PathID  int
	Role    Role
	Sibling EndpointID

	leaf NodeID
	live bool
}

// Live reports whether the endpoint is currently stored in a tree.
func (e Endpoint) Live() bool {
	return e.live
}

// Registry owns the endpoints of a path batch. Endpoints are always created
// in pairs: the start of a path is followed by its end, and each one links to
// the other as its sibling.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry returns a registry with room for the given number of paths.
func NewRegistry(paths int) *Registry {
	return &Registry{
		endpoints: make([]Endpoint, 0, paths*2),
	}
}

// AddPath creates the endpoint pair of the path with the given batch index.
// ok is false when the path has less than 2 vertices, in which case nothing is
// created.
func (r *Registry) AddPath(pathID int, path models.Polyline) (start, end EndpointID, ok bool, err error) {
	if !path.Eligible() {
		return NoEndpoint, NoEndpoint, false, nil
	}

	if err := path.Validate(); err != nil {
		return NoEndpoint, NoEndpoint, false, errors.New("invalid path").
			WithType(models.ErrTypeCoordinateOutOfRange).
			WithTag("path_id", pathID).
			Wrap(err)
	}
	first, last := path.First(), path.Last()

	start = EndpointID(len(r.endpoints))
	end = start + 1

	r.endpoints = append(r.endpoints,
		Endpoint{
			Coord:   first,
			Scaled:  first.Scale(SubUnitScale),
			PathID:  pathID,
			Role:    Start,
			Sibling: end,
			leaf:    NoNode,
		},
		Endpoint{
			Coord:   last,
			Scaled:  last.Scale(SubUnitScale),
			PathID:  pathID,
			Role:    End,
			Sibling: start,
			leaf:    NoNode,
		},
	)
	return start, end, true, nil
}

// Get returns the endpoint with the given id.
func (r *Registry) Get(id EndpointID) Endpoint {
	return r.endpoints[id]
}

// Len returns the number of endpoints in the registry.
func (r *Registry) Len() int {
	return len(r.endpoints)
}

// Bounds returns the bounding rectangle of every endpoint, in the tree
// coordinate space.
func (r *Registry) Bounds() models.Rect {
	points := make([]models.Point, len(r.endpoints))
	for i, e := range r.endpoints {
		points[i] = e.Scaled
	}
	return models.Bounds(points...)
}

func (r *Registry) endpoint(id EndpointID) *Endpoint {
	return &r.endpoints[id]
}

func (r *Registry) valid(id EndpointID) bool {
	return id >= 0 && int(id) < len(r.endpoints)
}
