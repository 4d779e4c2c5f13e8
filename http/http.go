package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// DefaultShutdownTimeout is the default time given to running jobs to finish
// once the servers are asked to stop.
const DefaultShutdownTimeout = 30 * time.Second

// ListenAndServe runs the given servers until ctx is done. Servers then stop
// accepting connections and get shutdownTimeout to answer the requests in
// flight before being closed. It returns once every server is stopped.
func ListenAndServe(ctx context.Context, shutdownTimeout time.Duration, servers ...*http.Server) {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	stopped := make(chan struct{})
	drained := make(chan struct{})
	go func() {
		defer close(drained)

		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				logs.Warn(errors.New("draining server failed").
					WithTag("addr", s.Addr).
					WithTag("timeout", shutdownTimeout.String()).
					Wrap(err))
				s.Close()
			}
		}
	}()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)

		go func(s *http.Server) {
			defer wg.Done()

			logs.WithTag("addr", s.Addr).Info("starting server")

			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logs.Warn(errors.New("server stopped").
					WithTag("addr", s.Addr).
					Wrap(err))
				return
			}
			logs.WithTag("addr", s.Addr).Info("stopping server")
		}(s)
	}

	wg.Wait()
	close(stopped)
	<-drained
}

// MetricsPathFormatter drops the path of redirects and of requests that did
// not match a route, so that arbitrary paths do not end up as metric labels.
// Rejected jobs keep their path.
func MetricsPathFormatter(statusCode int, path string) string {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusNotFound,
		http.StatusMethodNotAllowed:
		return ""
	}
	return path
}
