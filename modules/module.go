package modules

import (
	"sort"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/scanorder/models"
)

// Options tunes a single sequencing invocation.
type Options struct {
	// The pen position before the first path. When nil, sequencing starts at
	// the start of the first eligible path.
	Origin *models.Point
}

// Result is the outcome of a sequencing invocation.
type Result struct {
	// The eligible paths in marking order.
	Paths []models.OrientedPath

	// The number of input paths with less than 2 vertices, left out of Paths.
	Dropped int
}

// Sequencer is the interface that describes a path sequencing engine.
type Sequencer interface {
	// Returns the sequencer name.
	Name() string

	// Orders the given polylines and resolves their direction so that the
	// travel between consecutive paths stays short. Every polyline with at
	// least 2 vertices is emitted exactly once.
	//
	// A returned error means that no usable ordering was produced. Callers
	// must not fall back to a partial result.
	Sequence(paths []models.Polyline, opts Options) (Result, error)
}

// SequenceStream orders a flat travel/mark stream with the given sequencer.
// The stream is cut into the polylines it marks, sequenced, then joined back
// with a travel record to the first vertex of each emitted polyline.
func SequenceStream(s Sequencer, records []models.ScanRecord, opts Options) ([]models.ScanRecord, Result, error) {
	paths, dropped, err := models.SplitStream(records)
	if err != nil {
		return nil, Result{}, err
	}

	res, err := s.Sequence(paths, opts)
	if err != nil {
		return nil, Result{}, err
	}
	res.Dropped += dropped

	return models.JoinStream(res.Paths), res, nil
}

// Registry is a set of sequencers looked up by name.
type Registry map[string]Sequencer

// NewRegistry returns a registry with the given sequencers.
func NewRegistry(sequencers ...Sequencer) Registry {
	r := make(Registry, len(sequencers))
	for _, s := range sequencers {
		r[s.Name()] = s
	}
	return r
}

// Get returns the sequencer with the given name.
func (r Registry) Get(name string) (Sequencer, error) {
	s, ok := r[name]
	if !ok {
		return nil, errors.New("unknown sequencer").
			WithType(models.ErrTypeUnknownSequencer).
			WithTag("name", name).
			WithTag("available", r.Names())
	}
	return s, nil
}

// Names returns the sorted names of the registered sequencers.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
