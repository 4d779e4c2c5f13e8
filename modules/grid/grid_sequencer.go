// Package grid implements a path sequencer that buckets path endpoints into a
// uniform grid and finds the next path by scanning rings of cells around the
// pen.
package grid

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/scanorder/featureflag"
	"github.com/aukilabs/scanorder/models"
	"github.com/aukilabs/scanorder/modules"
)

type Options struct {
	// Allows reaching a path by its end, in which case it is marked
	// backward.
	Bidirectional bool

	// Runs a pass with the first path forward and a pass with the first path
	// reversed, and keeps the one with the shortest travel.
	TieBreak bool

	// The number of cells along the longest side of the grid. 0 derives it
	// from the number of paths.
	CellsPerSide int
}

func DefaultOptions() Options {
	return Options{
		Bidirectional: true,
		TieBreak:      true,
	}
}

// OptionsFromFlags returns the default options amended by the given feature
// flags.
func OptionsFromFlags(flags featureflag.FeatureFlag) Options {
	opts := DefaultOptions()
	flags.IfSet(featureflag.FlagDisableReverseMatch, func() {
		opts.Bidirectional = false
	})
	flags.IfSet(featureflag.FlagDisableOrientationTieBreak, func() {
		opts.TieBreak = false
	})
	return opts
}

// Sequencer greedily marks the closest path to the pen, looking for it in
// growing square rings of grid cells. It trades the index maintenance of a
// tree for full cell scans, which stays cheap while the number of endpoints
// per cell is bounded.
type Sequencer struct {
	Options Options
}

// New returns a grid sequencer with the given options.
func New(opts Options) *Sequencer {
	return &Sequencer{Options: opts}
}

func (s *Sequencer) Name() string {
	return "grid"
}

func (s *Sequencer) Sequence(paths []models.Polyline, opts modules.Options) (modules.Result, error) {
	var res modules.Result

	eligible := make([]int, 0, len(paths))
	for i, p := range paths {
		if !p.Eligible() {
			res.Dropped++
			continue
		}
		if err := p.Validate(); err != nil {
			return modules.Result{}, errors.New("invalid path").
				WithType(models.ErrTypeCoordinateOutOfRange).
				WithTag("path_id", i).
				Wrap(err)
		}
		eligible = append(eligible, i)
	}
	if opts.Origin != nil {
		if err := opts.Origin.Validate(); err != nil {
			return modules.Result{}, errors.New("invalid origin").
				WithType(models.ErrTypeCoordinateOutOfRange).
				Wrap(err)
		}
	}

	if len(eligible) == 0 {
		res.Paths = []models.OrientedPath{}
		return res, nil
	}

	a := assembly{
		options:  s.Options,
		paths:    paths,
		eligible: eligible,
		origin:   opts.Origin,
	}

	firstReversed := false
	if opts.Origin == nil && s.Options.TieBreak {
		forward, err := a.run(false, false)
		if err != nil {
			return modules.Result{}, err
		}

		backward, err := a.run(true, false)
		if err != nil {
			return modules.Result{}, err
		}

		firstReversed = backward.total < forward.total
	}

	out, err := a.run(firstReversed, true)
	if err != nil {
		return modules.Result{}, err
	}

	res.Paths = out.paths
	return res, nil
}

// SequenceStream orders a flat travel/mark stream.
func (s *Sequencer) SequenceStream(records []models.ScanRecord, opts modules.Options) ([]models.ScanRecord, modules.Result, error) {
	return modules.SequenceStream(s, records, opts)
}

type assembly struct {
	options  Options
	paths    []models.Polyline
	eligible []int
	origin   *models.Point
}

type pass struct {
	starts *RegularGrid
	ends   *RegularGrid
	first  []models.Point
	last   []models.Point
	used   []bool
	paths  []models.OrientedPath
	total  float64
}

type match struct {
	segment  int
	dist     uint64
	reversed bool
}

func (m *match) found() bool {
	return m.segment >= 0
}

func (m *match) offer(segment int, dist uint64, reversed bool) {
	switch {
	case !m.found(),
		dist < m.dist,
		dist == m.dist && segment < m.segment,
		dist == m.dist && segment == m.segment && m.reversed && !reversed:
		m.segment = segment
		m.dist = dist
		m.reversed = reversed
	}
}

func (a *assembly) cellsPerSide() int {
	if a.options.CellsPerSide > 0 {
		return a.options.CellsPerSide
	}
	return int(math.Ceil(math.Sqrt(float64(len(a.eligible)))))
}

func (a *assembly) segment(i int) models.Polyline {
	return a.paths[a.eligible[i]]
}

func (a *assembly) newPass(emit bool) *pass {
	p := &pass{
		first: make([]models.Point, len(a.eligible)),
		last:  make([]models.Point, len(a.eligible)),
		used:  make([]bool, len(a.eligible)),
	}
	for i := range a.eligible {
		seg := a.segment(i)
		p.first[i] = seg.First()
		p.last[i] = seg.Last()
	}

	bounds := models.Bounds(p.first...).Union(models.Bounds(p.last...))
	p.starts = NewRegularGrid(bounds, a.cellsPerSide())
	p.ends = NewRegularGrid(bounds, a.cellsPerSide())
	for i := range a.eligible {
		p.starts.Insert(p.first[i], i)
		p.ends.Insert(p.last[i], i)
	}

	if emit {
		p.paths = make([]models.OrientedPath, 0, len(a.eligible))
	}
	return p
}

// run assembles every eligible segment. The first segment of the batch is
// marked first, in the requested orientation, unless an origin is set. The
// ordered paths are only kept when emit is true.
func (a *assembly) run(firstReversed, emit bool) (*pass, error) {
	p := a.newPass(emit)
	remaining := len(a.eligible)

	var pen models.Point
	if a.origin != nil {
		pen = *a.origin
	} else {
		pen = p.consume(a, match{segment: 0, reversed: firstReversed}, emit)
		remaining--
	}

	if emit {
		debug := p.starts.GetDebugInfo()
		logs.WithTag("resolution", debug.Resolution).
			WithTag("cols", debug.ColCount).
			WithTag("rows", debug.RowCount).
			WithTag("segments", len(a.eligible)).
			Debug("grid built")
	}

	for ; remaining > 0; remaining-- {
		m := p.closest(pen, a.options.Bidirectional)
		if !m.found() {
			return nil, errors.New("ring search found no segment while segments remain").
				WithType(models.ErrTypeIndexInconsistent).
				WithTag("remaining", remaining).
				WithTag("pen_x", pen.X).
				WithTag("pen_y", pen.Y)
		}

		entry := p.first[m.segment]
		if m.reversed {
			entry = p.last[m.segment]
		}
		p.total += pen.Distance(entry)
		pen = p.consume(a, m, emit)
	}
	return p, nil
}

// consume marks the matched segment as used and returns the pen position
// once it has been marked.
func (p *pass) consume(a *assembly, m match, emit bool) models.Point {
	p.used[m.segment] = true

	if emit {
		p.paths = append(p.paths, models.Orient(a.eligible[m.segment], a.segment(m.segment), m.reversed))
	}

	if m.reversed {
		return p.first[m.segment]
	}
	return p.last[m.segment]
}

// closest scans rings of cells around the pen and returns the closest unused
// segment of the first ring holding any.
func (p *pass) closest(pen models.Point, bidirectional bool) match {
	m := match{segment: -1}
	used := func(i int) bool {
		return p.used[i]
	}

	col, row := p.starts.CellOf(pen)
	maxRing := p.starts.MaxRing(col, row)

	for r := 0; r <= maxRing && !m.found(); r++ {
		p.starts.Ring(col, row, r, func(c, rw int) {
			for _, i := range p.starts.Compact(c, rw, used) {
				m.offer(i, pen.DistanceSquared(p.first[i]), false)
			}
			if bidirectional {
				for _, i := range p.ends.Compact(c, rw, used) {
					m.offer(i, pen.DistanceSquared(p.last[i]), true)
				}
			}
		})
	}
	return m
}
