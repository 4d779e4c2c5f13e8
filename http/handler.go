package http

import (
	"net/http"
	"sync/atomic"
)

// Readiness tracks the jobs run by the job server. The server is ready while
// it is not draining and runs less than MaxJobs jobs.
type Readiness struct {
	// The maximum number of jobs run at the same time. No limit when 0.
	MaxJobs int64

	running  atomic.Int64
	draining atomic.Bool
}

func (r *Readiness) Ready() bool {
	if r.draining.Load() {
		return false
	}
	return r.MaxJobs <= 0 || r.running.Load() < r.MaxJobs
}

// Running returns the number of jobs being sequenced.
func (r *Readiness) Running() int64 {
	return r.running.Load()
}

// Drain stops the admission of new jobs. Running jobs are not affected.
func (r *Readiness) Drain() {
	r.draining.Store(true)
}

func (r *Readiness) admit() bool {
	if r.draining.Load() {
		return false
	}
	if n := r.running.Add(1); r.MaxJobs > 0 && n > r.MaxJobs {
		r.running.Add(-1)
		return false
	}
	return true
}

func (r *Readiness) release() {
	r.running.Add(-1)
}

type readyResponse struct {
	Ready       bool  `json:"ready"`
	RunningJobs int64 `json:"running_jobs"`
}

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// HandleReadyCheck answers 200 while r admits jobs and 503 otherwise, along
// with the number of running jobs.
func HandleReadyCheck(r *Readiness) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		res := readyResponse{
			Ready:       r.Ready(),
			RunningJobs: r.Running(),
		}

		status := http.StatusOK
		if !res.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, res)
	}
}

type versionResponse struct {
	Version   string `json:"version"`
	Sequencer string `json:"sequencer"`
}

// HandleVersion answers the build version and the name of the sequencer
// used for jobs.
func HandleVersion(version, sequencer string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, versionResponse{
			Version:   version,
			Sequencer: sequencer,
		})
	}
}
