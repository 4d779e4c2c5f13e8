package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/scanorder/dispatch"
	"github.com/aukilabs/scanorder/featureflag"
	scanhttp "github.com/aukilabs/scanorder/http"
	"github.com/aukilabs/scanorder/models"
	"github.com/aukilabs/scanorder/modules"
	"github.com/aukilabs/scanorder/modules/greedy"
	"github.com/aukilabs/scanorder/modules/grid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// The scanorder version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "scanorder_info",
		Help:        "Scanorder information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Input           string        `cli:""        env:"SCANORDER_INPUT"            help:"The JSON job file to sequence. Reads stdin when set to -."`
	Output          string        `cli:""        env:"SCANORDER_OUTPUT"           help:"The file where the JSON job result is written. Writes stdout when set to -."`
	Addr            string        `cli:""        env:"SCANORDER_ADDR"             help:"Listening address for job requests. Serves jobs over HTTP instead of sequencing the input file when set."`
	AdminAddr       string        `cli:""        env:"SCANORDER_ADMIN_ADDR"       help:"Admin listening address."`
	Sequencer       string        `cli:""        env:"SCANORDER_SEQUENCER"        help:"The path sequencer (quadtree|grid)."`
	Workers         int           `cli:""        env:"SCANORDER_WORKERS"          help:"The maximum number of parts sequenced at the same time."`
	MaxJobSize      int64         `cli:",hidden" env:"SCANORDER_MAX_JOB_SIZE"     help:"The maximum size in bytes of a job request."`
	MaxJobs         int64         `cli:",hidden" env:"SCANORDER_MAX_JOBS"         help:"The maximum number of jobs served at the same time. No limit when 0."`
	ShutdownTimeout time.Duration `cli:",hidden" env:"SCANORDER_SHUTDOWN_TIMEOUT" help:"The time given to running jobs to finish on shutdown."`
	LogLevel        string        `cli:""        env:"SCANORDER_LOG_LEVEL"        help:"Log level (debug|info|warning|error)."`
	LogIndent       bool          `cli:""        env:"SCANORDER_LOG_INDENT"       help:"Indent logs."`
	Events          eventsConfig  `cli:",hidden" env:"-"                          help:"Event pusher configuration."`
	FeatureFlags    []string      `cli:",hidden" env:"SCANORDER_FEATURE_FLAGS"    help:"Comma separated feature flags"`
	Version         bool          `cli:""        env:"-"                          help:"Show version."`
	Help            bool          `cli:""        env:"-"                          help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"SCANORDER_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"SCANORDER_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"SCANORDER_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"SCANORDER_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Input:           "-",
		Output:          "-",
		Sequencer:       (&greedy.Sequencer{}).Name(),
		MaxJobSize:      scanhttp.DefaultMaxJobSize,
		ShutdownTimeout: scanhttp.DefaultShutdownTimeout,
		LogLevel:        logs.InfoLevel.String(),
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Orders the paths of a laser scan job to minimize travel.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "scanorder",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	flags := featureflag.New(conf.FeatureFlags)
	sequencer, err := newSequencer(conf.Sequencer, flags)
	if err != nil {
		logs.Fatal(err)
	}

	dispatcher := dispatch.Dispatcher{
		Sequencer: sequencer,
		Workers:   conf.Workers,
	}

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("sequencer", sequencer.Name()).
		WithTag("feature_flags", flags.Strings()).
		Info("starting scanorder")

	if conf.Addr != "" {
		serve(ctx, conf, dispatcher)
		return
	}

	if conf.AdminAddr != "" {
		adminCtx, stopAdmin := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			scanhttp.ListenAndServe(adminCtx, conf.ShutdownTimeout, &http.Server{
				Addr:    conf.AdminAddr,
				Handler: newAdminHandler(&scanhttp.Readiness{}, sequencer.Name()),
			})
		}()
		defer func() {
			stopAdmin()
			<-done
		}()
	}

	if err := sequenceFile(ctx, conf, dispatcher); err != nil {
		logs.Fatal(err)
	}
}

// newSequencer returns the named sequencer, instrumented with logs and
// metrics.
func newSequencer(name string, flags featureflag.FeatureFlag) (modules.Sequencer, error) {
	registry := modules.NewRegistry(
		&greedy.Sequencer{},
		grid.New(grid.OptionsFromFlags(flags)),
	)

	s, err := registry.Get(name)
	if err != nil {
		return nil, err
	}

	s = modules.WithLogs(s)
	flags.IfNotSet(featureflag.FlagDisableSequencerMetrics, func() {
		s = modules.WithMetrics(s)
	})
	return s, nil
}

func serve(ctx context.Context, conf config, d dispatch.Dispatcher) {
	readiness := &scanhttp.Readiness{MaxJobs: conf.MaxJobs}
	go func() {
		<-ctx.Done()
		readiness.Drain()
	}()

	var service http.ServeMux
	service.Handle("/jobs", scanhttp.HandleJob(d, scanhttp.JobOptions{
		MaxSize:   conf.MaxJobSize,
		Readiness: readiness,
	}))
	service.HandleFunc("/health", scanhttp.HandleHealthCheck)
	service.Handle("/version", scanhttp.HandleVersion(version, d.Sequencer.Name()))
	service.Handle("/ready", scanhttp.HandleReadyCheck(readiness))

	servers := []*http.Server{
		{
			Addr: conf.Addr,
			Handler: metrics.HTTPHandler(&service,
				scanhttp.MetricsPathFormatter),
		},
	}
	if conf.AdminAddr != "" {
		servers = append(servers, &http.Server{
			Addr: conf.AdminAddr,
			Handler: newAdminHandler(readiness, d.Sequencer.Name()),
		})
	}

	scanhttp.ListenAndServe(ctx, conf.ShutdownTimeout, servers...)
}

func newAdminHandler(readiness *scanhttp.Readiness, sequencer string) http.Handler {
	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", scanhttp.HandleHealthCheck)
	admin.Handle("/version", scanhttp.HandleVersion(version, sequencer))
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.Handle("/ready", scanhttp.HandleReadyCheck(readiness))
	return &admin
}

func sequenceFile(ctx context.Context, conf config, d dispatch.Dispatcher) error {
	job, err := readJob(conf.Input)
	if err != nil {
		return err
	}
	job.EnsureID()

	res, err := d.Run(ctx, job)
	if err != nil {
		return err
	}

	return writeResult(conf.Output, res)
}

func readJob(filename string) (models.Job, error) {
	var r io.Reader = os.Stdin
	if filename != "-" {
		f, err := os.Open(filename)
		if err != nil {
			return models.Job{}, errors.New("opening job file failed").
				WithTag("file_name", filename).
				Wrap(err)
		}
		defer f.Close()
		r = f
	}

	var job models.Job
	if err := json.NewDecoder(r).Decode(&job); err != nil {
		return models.Job{}, errors.New("decoding job failed").
			WithType(models.ErrTypeMalformedJob).
			WithTag("file_name", filename).
			Wrap(err)
	}
	return job, nil
}

func writeResult(filename string, res models.JobResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return errors.New("encoding job result failed").Wrap(err)
	}
	b = append(b, '\n')

	if filename == "-" {
		_, err = os.Stdout.Write(b)
	} else {
		err = os.WriteFile(filename, b, 0o644)
	}
	if err != nil {
		return errors.New("writing job result failed").
			WithTag("file_name", filename).
			Wrap(err)
	}
	return nil
}
