package dispatch

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/scanorder/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
)

var (
	jobsSequenced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobs_sequenced",
		Help: "The number of jobs sequenced.",
	})

	jobErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "job_errors",
		Help: "The errors that occured while sequencing a job.",
	}, []string{
		errTypeLabel,
	})

	jobLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "job_latency",
		Help:    "The time to sequence a job.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	partsSequenced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parts_sequenced",
		Help: "The number of parts sequenced.",
	})

	partDroppedPaths = promauto.NewCounter(prometheus.CounterOpts{
		Name: "part_dropped_paths",
		Help: "The number of degenerate paths left out of sequenced parts.",
	})
)

func instrumentJob(start time.Time) {
	jobsSequenced.Inc()
	jobLatency.Observe(time.Since(start).Seconds())
}

func instrumentJobError(err error) {
	jobErrors.
		With(prometheus.Labels{
			errTypeLabel: errors.Type(err),
		}).
		Inc()
}

func instrumentPart(pr models.PartResult) {
	partsSequenced.Inc()
	partDroppedPaths.Add(float64(pr.Dropped))
}
