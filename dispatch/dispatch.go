// Package dispatch sequences whole jobs by running every part of every layer
// as an independent sequencing invocation.
package dispatch

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/scanorder/models"
	"github.com/aukilabs/scanorder/modules"
)

// Dispatcher runs the parts of a job over a bounded pool of workers.
type Dispatcher struct {
	// The sequencer used for every part. It must be safe to call from
	// multiple goroutines.
	Sequencer modules.Sequencer

	// The maximum number of parts sequenced at the same time. Defaults to
	// GOMAXPROCS when not set.
	Workers int
}

type partRef struct {
	layer int
	part  int
}

// Run sequences all the parts of the given job. The result keeps the layer
// and part order of the job. The first failing part aborts the job and its
// error is returned, tagged with the layer number and the part id.
func (d Dispatcher) Run(ctx context.Context, job models.Job) (models.JobResult, error) {
	start := time.Now()

	res := models.JobResult{
		ID:     job.ID,
		Layers: make([]models.LayerResult, len(job.Layers)),
	}

	refs := make([]partRef, 0, job.PartCount())
	for i, l := range job.Layers {
		res.Layers[i] = models.LayerResult{
			Number: l.Number,
			Parts:  make([]models.PartResult, len(l.Parts)),
		}
		for j := range l.Parts {
			refs = append(refs, partRef{layer: i, part: j})
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
		done     atomic.Int64
	)

	queue := make(chan partRef)
	for range d.workers(len(refs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for ref := range queue {
				if ctx.Err() != nil {
					continue
				}

				layer := job.Layers[ref.layer]
				part := layer.Parts[ref.part]

				pr, err := d.sequencePart(part, job.Origin)
				if err != nil {
					errOnce.Do(func() {
						firstErr = errors.New("sequencing part failed").
							WithType(errors.Type(err)).
							WithTag("job_id", job.ID).
							WithTag("layer", layer.Number).
							WithTag("part_id", part.ID).
							Wrap(err)
						cancel()
					})
					continue
				}

				res.Layers[ref.layer].Parts[ref.part] = pr
				done.Add(1)
				instrumentPart(pr)
			}
		}()
	}

feed:
	for _, ref := range refs {
		select {
		case <-ctx.Done():
			break feed
		case queue <- ref:
		}
	}
	close(queue)
	wg.Wait()

	if firstErr != nil {
		instrumentJobError(firstErr)
		return models.JobResult{}, firstErr
	}
	if done.Load() != int64(len(refs)) {
		err := errors.New("job canceled").
			WithType(models.ErrTypeJobCanceled).
			WithTag("job_id", job.ID).
			WithTag("sequenced_parts", done.Load()).
			WithTag("parts", len(refs)).
			Wrap(ctx.Err())
		instrumentJobError(err)
		return models.JobResult{}, err
	}

	instrumentJob(start)
	logs.WithTag("job_id", job.ID).
		WithTag("sequencer", d.Sequencer.Name()).
		WithTag("layers", len(job.Layers)).
		WithTag("parts", len(refs)).
		WithTag("jump_length", res.JumpLength()).
		WithTag("duration", time.Since(start).String()).
		Info("job sequenced")
	return res, nil
}

func (d Dispatcher) workers(parts int) int {
	n := d.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return min(n, parts)
}

func (d Dispatcher) sequencePart(part models.Part, origin *models.Point) (models.PartResult, error) {
	opts := modules.Options{Origin: origin}
	pr := models.PartResult{ID: part.ID}

	var res modules.Result
	if len(part.Scan) != 0 {
		scan, r, err := modules.SequenceStream(d.Sequencer, part.Scan, opts)
		if err != nil {
			return pr, err
		}
		pr.Scan = scan
		res = r
	} else {
		r, err := d.Sequencer.Sequence(part.Paths, opts)
		if err != nil {
			return pr, err
		}
		pr.Paths = r.Paths
		res = r
	}

	pr.Dropped = res.Dropped
	pr.JumpLength = models.TravelLength(origin, res.Paths)
	pr.Digest = models.Digest(res.Paths)
	return pr, nil
}
