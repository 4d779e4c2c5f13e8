package http

import (
	"context"
	"io"
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/scanorder/models"
	"github.com/segmentio/encoding/json"
)

const (
	// DefaultMaxJobSize is the default maximum size in bytes of a job request
	// body.
	DefaultMaxJobSize = 64 << 20

	errTypeServerBusy = "server_busy"
)

// JobRunner is the interface that describes a job sequencing engine.
type JobRunner interface {
	Run(ctx context.Context, job models.Job) (models.JobResult, error)
}

type JobOptions struct {
	// The maximum size in bytes of a request body. Defaults to
	// DefaultMaxJobSize.
	MaxSize int64

	// Admits the jobs. Every job is admitted when nil.
	Readiness *Readiness
}

// ErrorResponse is the body sent when a job is refused before being run.
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

// HandleJob returns a handler that sequences the JSON job posted in the
// request body and responds with the JSON job result.
func HandleJob(runner JobRunner, opts JobOptions) http.HandlerFunc {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxJobSize
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}

		if opts.Readiness != nil {
			if !opts.Readiness.admit() {
				writeError(w, http.StatusServiceUnavailable, errors.New("job server is busy").
					WithType(errTypeServerBusy).
					WithTag("running_jobs", opts.Readiness.Running()))
				return
			}
			defer opts.Readiness.release()
		}

		b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, opts.MaxSize))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New("reading body failed").
				WithTag("max_size", opts.MaxSize).
				Wrap(err))
			return
		}

		var job models.Job
		if err := json.Unmarshal(b, &job); err != nil {
			logs.Warn(errors.New("decoding job failed").
				WithType(models.ErrTypeMalformedJob).
				Wrap(err))
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}
		job.EnsureID()

		res, err := runner.Run(r.Context(), job)
		if err != nil {
			switch jobErrorStatus(err) {
			case http.StatusBadRequest:
				logs.WithTag("job_id", job.ID).Warn(err)
				httpcmn.BadRequest(w, err)

			case http.StatusServiceUnavailable:
				logs.WithTag("job_id", job.ID).Warn(err)
				writeError(w, http.StatusServiceUnavailable, err)

			default:
				logs.WithTag("job_id", job.ID).Error(err)
				httpcmn.InternalServerError(w, err)
			}
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func jobErrorStatus(err error) int {
	switch errors.Type(err) {
	case models.ErrTypeCoordinateOutOfRange,
		models.ErrTypeMalformedStream,
		models.ErrTypeMalformedJob,
		models.ErrTypeUnknownSequencer:
		return http.StatusBadRequest

	case models.ErrTypeJobCanceled:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{
		Error: err.Error(),
		Type:  errors.Type(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		httpcmn.InternalServerError(w, errors.New("encoding response failed").Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
