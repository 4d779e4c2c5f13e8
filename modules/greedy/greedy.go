// Package greedy implements a nearest-neighbor path sequencer backed by a
// region quadtree over the path endpoints.
package greedy

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/scanorder/models"
	"github.com/aukilabs/scanorder/modules"
	"github.com/aukilabs/scanorder/modules/quadtree"
)

type state int

const (
	stateBuild state = iota
	stateSeek
	stateConsume
	stateDone
)

// Sequencer always travels to the closest endpoint still to be marked. Once
// either end of a path is chosen, the whole path is marked from that end and
// the pen continues from the other one.
//
// Each invocation builds its own index, so a Sequencer can be shared by
// concurrent callers.
type Sequencer struct{}

func (s *Sequencer) Name() string {
	return "quadtree"
}

func (s *Sequencer) Sequence(paths []models.Polyline, opts modules.Options) (modules.Result, error) {
	m := newMachine(paths, opts.Origin)
	return m.sequence(stateBuild)
}

// index is the part of the quadtree driven by the machine.
type index interface {
	Insert(id quadtree.EndpointID) error
	Remove(id quadtree.EndpointID) error
	IsEmpty() bool
	LiveCount() int
	Nearest(reference models.Point) quadtree.EndpointID
}

type machine struct {
	paths  []models.Polyline
	origin *models.Point

	registry *quadtree.Registry
	tree     index
	cursor   models.Point
	next     quadtree.EndpointID
	result   modules.Result
}

func newMachine(paths []models.Polyline, origin *models.Point) *machine {
	return &machine{
		paths:  paths,
		origin: origin,
		next:   quadtree.NoEndpoint,
	}
}

// sequence runs the machine from the given state until it is done. No
// partial result is returned on error.
func (m *machine) sequence(s state) (modules.Result, error) {
	for s != stateDone {
		var err error

		switch s {
		case stateBuild:
			s, err = m.build()
		case stateSeek:
			s, err = m.seek()
		case stateConsume:
			s, err = m.consume()
		}

		if err != nil {
			return modules.Result{}, err
		}
	}
	return m.result, nil
}

func (m *machine) build() (state, error) {
	m.registry = quadtree.NewRegistry(len(m.paths))

	first := quadtree.NoEndpoint
	for i, p := range m.paths {
		start, _, ok, err := m.registry.AddPath(i, p)
		if err != nil {
			return stateDone, err
		}
		if !ok {
			m.result.Dropped++
			continue
		}
		if first == quadtree.NoEndpoint {
			first = start
		}
	}

	m.result.Paths = make([]models.OrientedPath, 0, m.registry.Len()/2)
	if first == quadtree.NoEndpoint {
		return stateDone, nil
	}

	m.cursor = m.registry.Get(first).Coord
	if m.origin != nil {
		if err := m.origin.Validate(); err != nil {
			return stateDone, errors.New("invalid origin").
				WithType(models.ErrTypeCoordinateOutOfRange).
				Wrap(err)
		}
		m.cursor = *m.origin
	}

	m.tree = quadtree.New(m.registry)
	for id := 0; id < m.registry.Len(); id += 2 {
		if err := m.tree.Insert(quadtree.EndpointID(id)); err != nil {
			return stateDone, err
		}
	}
	return stateSeek, nil
}

func (m *machine) seek() (state, error) {
	if m.tree.IsEmpty() {
		return stateDone, nil
	}

	m.next = m.tree.Nearest(m.cursor)
	if m.next == quadtree.NoEndpoint {
		return stateDone, errors.New("neighbor search found no endpoint in a non empty index").
			WithType(models.ErrTypeIndexInconsistent).
			WithTag("live_count", m.tree.LiveCount()).
			WithTag("sequenced", len(m.result.Paths)).
			WithTag("cursor_x", m.cursor.X).
			WithTag("cursor_y", m.cursor.Y)
	}
	return stateConsume, nil
}

func (m *machine) consume() (state, error) {
	e := m.registry.Get(m.next)

	if err := m.tree.Remove(m.next); err != nil {
		return stateDone, errors.New("retiring a sequenced path failed").
			WithType(models.ErrTypeIndexInconsistent).
			WithTag("path_id", e.PathID).
			WithTag("role", e.Role.String()).
			Wrap(err)
	}

	// Reaching a path by its end means marking it backward.
	m.result.Paths = append(m.result.Paths, models.Orient(e.PathID, m.paths[e.PathID], e.Role == quadtree.End))
	m.cursor = m.registry.Get(e.Sibling).Coord
	m.next = quadtree.NoEndpoint
	return stateSeek, nil
}
