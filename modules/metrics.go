package modules

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/scanorder/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel   = "error_type"
	sequencerLabel = "sequencer"
)

var (
	sequencedPaths = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sequenced_paths",
		Help: "The number of paths emitted by sequencers.",
	}, []string{
		sequencerLabel,
	})

	droppedPaths = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dropped_paths",
		Help: "The number of paths with less than 2 vertices left out by sequencers.",
	}, []string{
		sequencerLabel,
	})

	sequenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sequence_errors",
		Help: "The errors that occured while sequencing paths.",
	}, []string{
		sequencerLabel,
		errTypeLabel,
	})

	sequenceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "sequence_latency",
		Help: "The time to sequence a path batch.",
	}, []string{
		sequencerLabel,
	})

	sequenceJumpLength = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sequence_jump_length",
		Help:    "The travel distance of a sequenced path batch, in vertex units.",
		Buckets: prometheus.ExponentialBuckets(1000, 4, 12),
	}, []string{
		sequencerLabel,
	})
)

// WithMetrics returns a sequencer that records metrics about every invocation
// of s.
func WithMetrics(s Sequencer) Sequencer {
	return &sequencerWithMetrics{Sequencer: s}
}

type sequencerWithMetrics struct {
	Sequencer
}

func (s *sequencerWithMetrics) Sequence(paths []models.Polyline, opts Options) (Result, error) {
	start := time.Now()

	res, err := s.Sequencer.Sequence(paths, opts)
	if err != nil {
		sequenceErrors.
			With(prometheus.Labels{
				sequencerLabel: s.Name(),
				errTypeLabel:   errors.Type(err),
			}).
			Inc()
		return res, err
	}

	labels := prometheus.Labels{sequencerLabel: s.Name()}
	sequenceLatency.With(labels).Observe(time.Since(start).Seconds())
	sequencedPaths.With(labels).Add(float64(len(res.Paths)))
	droppedPaths.With(labels).Add(float64(res.Dropped))
	sequenceJumpLength.With(labels).Observe(models.TravelLength(opts.Origin, res.Paths))
	return res, nil
}
