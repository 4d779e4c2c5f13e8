package dispatch

import (
	"context"
	"fmt"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/scanorder/models"
	"github.com/aukilabs/scanorder/modules"
	"github.com/aukilabs/scanorder/modules/greedy"
	"github.com/aukilabs/scanorder/modules/grid"
	"github.com/stretchr/testify/require"
)

func line(x0, y0, x1, y1 int64) models.Polyline {
	return models.Polyline{{X: x0, Y: y0}, {X: x1, Y: y1}}
}

func testJob(layers, parts int) models.Job {
	job := models.Job{ID: "test-job"}
	for l := 0; l < layers; l++ {
		layer := models.Layer{Number: l + 1}
		for p := 0; p < parts; p++ {
			offset := int64(l*100 + p*10)
			layer.Parts = append(layer.Parts, models.Part{
				ID: fmt.Sprintf("part-%d", p),
				Paths: []models.Polyline{
					line(offset, 0, offset+10, 0),
					line(offset+20, 0, offset+30, 0),
					{{X: offset, Y: 5}},
				},
			})
		}
		job.Layers = append(job.Layers, layer)
	}
	return job
}

// failOn fails when sequencing a batch whose first path starts at the given
// point.
type failOn struct {
	modules.Sequencer
	at models.Point
}

func (s failOn) Sequence(paths []models.Polyline, opts modules.Options) (modules.Result, error) {
	if len(paths) != 0 && paths[0].First().Equal(s.at) {
		return modules.Result{}, errors.New("index inconsistent").
			WithType(models.ErrTypeIndexInconsistent)
	}
	return s.Sequencer.Sequence(paths, opts)
}

func TestDispatcherRun(t *testing.T) {
	sequencers := []modules.Sequencer{
		&greedy.Sequencer{},
		grid.New(grid.DefaultOptions()),
	}

	for _, s := range sequencers {
		t.Run(s.Name(), func(t *testing.T) {
			job := testJob(3, 4)

			res, err := Dispatcher{Sequencer: s, Workers: 3}.Run(context.Background(), job)
			require.NoError(t, err)
			require.Equal(t, job.ID, res.ID)
			require.Len(t, res.Layers, 3)

			for i, l := range res.Layers {
				require.Equal(t, i+1, l.Number)
				require.Len(t, l.Parts, 4)

				for j, p := range l.Parts {
					require.Equal(t, fmt.Sprintf("part-%d", j), p.ID)
					require.Equal(t, 1, p.Dropped)
					require.Len(t, p.Paths, 2)
					require.Equal(t, 0, p.Paths[0].Index)
					require.Equal(t, 1, p.Paths[1].Index)
					require.False(t, p.Paths[0].Reversed)
					require.False(t, p.Paths[1].Reversed)
					require.Equal(t, 10.0, p.JumpLength)
					require.Equal(t, models.Digest(p.Paths), p.Digest)
				}
			}
			require.Equal(t, 120.0, res.JumpLength())

			again, err := Dispatcher{Sequencer: s, Workers: 1}.Run(context.Background(), job)
			require.NoError(t, err)
			require.Equal(t, res, again)
		})
	}
}

func TestDispatcherRunWithOrigin(t *testing.T) {
	job := models.Job{
		Origin: &models.Point{X: 100, Y: 0},
		Layers: []models.Layer{{
			Number: 1,
			Parts: []models.Part{{
				ID:    "a",
				Paths: []models.Polyline{line(0, 0, 10, 0), line(90, 0, 80, 0)},
			}},
		}},
	}

	res, err := Dispatcher{Sequencer: &greedy.Sequencer{}}.Run(context.Background(), job)
	require.NoError(t, err)

	part := res.Layers[0].Parts[0]
	require.Equal(t, 1, part.Paths[0].Index)
	require.Equal(t, 0, part.Paths[1].Index)
	require.True(t, part.Paths[1].Reversed)
	require.Equal(t, 80.0, part.JumpLength)
}

func TestDispatcherRunScan(t *testing.T) {
	job := models.Job{
		Layers: []models.Layer{{
			Number: 1,
			Parts: []models.Part{{
				ID: "scan",
				Scan: []models.ScanRecord{
					{Kind: models.Travel, Point: models.Point{X: 0, Y: 0}},
					{Kind: models.Mark, Point: models.Point{X: 10, Y: 0}},
					{Kind: models.Travel, Point: models.Point{X: 50, Y: 0}},
					{Kind: models.Travel, Point: models.Point{X: 11, Y: 0}},
					{Kind: models.Mark, Point: models.Point{X: 20, Y: 0}},
				},
			}},
		}},
	}

	res, err := Dispatcher{Sequencer: &greedy.Sequencer{}}.Run(context.Background(), job)
	require.NoError(t, err)

	part := res.Layers[0].Parts[0]
	require.Empty(t, part.Paths)
	require.Equal(t, 1, part.Dropped)
	require.Equal(t, 1.0, part.JumpLength)
	require.Equal(t, []models.ScanRecord{
		{Kind: models.Travel, Point: models.Point{X: 0, Y: 0}},
		{Kind: models.Mark, Point: models.Point{X: 10, Y: 0}},
		{Kind: models.Travel, Point: models.Point{X: 11, Y: 0}},
		{Kind: models.Mark, Point: models.Point{X: 20, Y: 0}},
	}, part.Scan)
}

func TestDispatcherRunError(t *testing.T) {
	job := testJob(3, 4)
	s := failOn{
		Sequencer: &greedy.Sequencer{},
		at:        job.Layers[1].Parts[2].Paths[0].First(),
	}

	_, err := Dispatcher{Sequencer: s, Workers: 2}.Run(context.Background(), job)
	require.Error(t, err)
	require.Equal(t, models.ErrTypeIndexInconsistent, errors.Type(err))
}

func TestDispatcherRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Dispatcher{Sequencer: &greedy.Sequencer{}}.Run(ctx, testJob(2, 2))
	require.Error(t, err)
	require.Equal(t, models.ErrTypeJobCanceled, errors.Type(err))
}

func TestDispatcherRunEmptyJob(t *testing.T) {
	res, err := Dispatcher{Sequencer: &greedy.Sequencer{}}.Run(context.Background(), models.Job{ID: "empty"})
	require.NoError(t, err)
	require.Equal(t, "empty", res.ID)
	require.Empty(t, res.Layers)
}
