package modules

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/scanorder/models"
)

// WithLogs returns a sequencer that logs every invocation of s.
func WithLogs(s Sequencer) Sequencer {
	return &sequencerWithLogs{Sequencer: s}
}

type sequencerWithLogs struct {
	Sequencer
}

func (s *sequencerWithLogs) Sequence(paths []models.Polyline, opts Options) (Result, error) {
	start := time.Now()

	res, err := s.Sequencer.Sequence(paths, opts)
	if err != nil {
		logs.WithTag("sequencer", s.Name()).
			WithTag("paths", len(paths)).
			Error(errors.New("sequencing paths failed").Wrap(err))
		return res, err
	}

	logs.WithTag("sequencer", s.Name()).
		WithTag("paths", len(paths)).
		WithTag("dropped", res.Dropped).
		WithTag("jump_length", models.TravelLength(opts.Origin, res.Paths)).
		WithTag("duration", time.Since(start).String()).
		Debug("paths sequenced")
	return res, nil
}
