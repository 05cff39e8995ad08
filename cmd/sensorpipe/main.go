// Command sensorpipe reads sensor logs through the filter pipeline.
//
//	sensorpipe [flags] count  files...   print the number of accepted readings
//	sensorpipe [flags] filter files...   write accepted readings as NDJSON to stdout
//
// A file named "-" (or no file at all) reads standard input.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arloliu/sensorpipe/compress"
	"github.com/arloliu/sensorpipe/config"
	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/filter"
	"github.com/arloliu/sensorpipe/format"
	"github.com/arloliu/sensorpipe/internal/pool"
	"github.com/arloliu/sensorpipe/pipeline"
	"github.com/arloliu/sensorpipe/reader"
	"github.com/arloliu/sensorpipe/reading"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exit codes.
const (
	exitOK      = 0
	exitPartial = 1 // some sources failed; the output covers the rest
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cli struct {
	configPath  string
	invert      bool
	unique      bool
	tail        int
	follow      bool
	workers     int
	format      string
	compress    string
	logLevel    string
	metricsAddr string
}

func (c *cli) flags(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML pipeline file")
	fs.BoolVar(&c.invert, "invert", false, "emit the readings the filter would reject")
	fs.BoolVar(&c.unique, "unique", false, "drop readings identical to an earlier one")
	fs.IntVar(&c.tail, "tail", 0, "read only the last N lines of each source")
	fs.BoolVar(&c.follow, "follow", false, "keep reading as the source grows")
	fs.IntVar(&c.workers, "workers", 0, "parallel workers for count (0 = GOMAXPROCS)")
	fs.StringVar(&c.format, "format", "", "input format: auto, json or csv")
	fs.StringVar(&c.compress, "compress", "none", "filter output compression: none, zstd, s2, lz4 or gz")
	fs.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&c.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

// apply lays the flags that were given on the command line over cfg.
func (c *cli) apply(fs *flag.FlagSet, cfg *config.Config) error {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "invert":
			cfg.Filter.Invert = c.invert
		case "unique":
			cfg.Filter.Unique = c.unique
		case "tail":
			cfg.Input.Tail = c.tail
		case "follow":
			cfg.Input.Follow = c.follow
		case "workers":
			cfg.Workers = c.workers
		case "format":
			cfg.Input.Format = c.format
		case "log-level":
			cfg.Log.Level = c.logLevel
		case "metrics-addr":
			cfg.Metrics.Addr = c.metricsAddr
		}
	})

	return cfg.Validate()
}

func usage(fs *flag.FlagSet, w io.Writer) func() {
	return func() {
		fmt.Fprintf(w, "Usage:\n  sensorpipe [flags] <count|filter> [files...]\n\nFlags:\n")
		fs.PrintDefaults()
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var c cli
	fs := flag.NewFlagSet("sensorpipe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs, stderr)
	c.flags(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return exitUsage
	}
	cmd, sources := fs.Arg(0), fs.Args()[1:]
	if len(sources) == 0 {
		sources = []string{reader.StdinSource}
	}

	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			fmt.Fprintf(stderr, "sensorpipe: %v\n", err)
			return exitUsage
		}
		cfg = loaded
	}
	if err := c.apply(fs, cfg); err != nil {
		fmt.Fprintf(stderr, "sensorpipe: %v\n", err)
		return exitUsage
	}
	if cfg.Input.Follow && len(sources) > 1 {
		fmt.Fprintf(stderr, "sensorpipe: %v: follow reads exactly one source, got %d\n", errs.ErrFollowUnsupported, len(sources))
		return exitUsage
	}
	outComp, err := format.ParseCompression(c.compress)
	if err != nil || outComp == format.CompressionAuto {
		fmt.Fprintf(stderr, "sensorpipe: -compress %q: %v\n", c.compress, errs.ErrUnknownCompression)
		return exitUsage
	}

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	p, stopMetrics, err := build(cfg, stdin, logger)
	if err != nil {
		fmt.Fprintf(stderr, "sensorpipe: %v\n", err)
		return exitUsage
	}
	defer stopMetrics()

	logger.Info("starting", slog.String("command", cmd), slog.Int("sources", len(sources)), slog.Bool("follow", cfg.Input.Follow))

	switch cmd {
	case "count":
		err = countCommand(ctx, p, sources, stdout)
	case "filter":
		err = filterCommand(ctx, p, sources, outComp, cfg.Input.Follow, stdout)
	default:
		fmt.Fprintf(stderr, "sensorpipe: unknown command %q\n", cmd)
		fs.Usage()
		return exitUsage
	}

	switch {
	case err == nil, errors.Is(err, context.Canceled) && ctx.Err() != nil:
		logger.Info("done", slog.String("command", cmd))
		return exitOK
	default:
		logger.Error("finished with errors", slog.String("command", cmd), slog.Any("error", err))
		return exitPartial
	}
}

// build wires the filter engine, metrics and pipeline described by cfg. The
// returned stop function shuts the metrics endpoint down.
func build(cfg *config.Config, stdin io.Reader, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	fc, err := cfg.BuildFilter(logger)
	if err != nil {
		return nil, nil, err
	}
	engine, err := filter.New(fc, filter.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	readerOpts, err := cfg.ReaderOptions()
	if err != nil {
		return nil, nil, err
	}
	readerOpts = append(readerOpts, reader.WithStdin(stdin))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := pipeline.NewMetrics(reg, cfg.Metrics.Namespace)
	if err != nil {
		return nil, nil, err
	}

	opts := append(cfg.PipelineOptions(), pipeline.WithMetrics(metrics), pipeline.WithLogger(logger))
	p, err := pipeline.New(engine, readerOpts, opts...)
	if err != nil {
		return nil, nil, err
	}

	stop := func() {}
	if cfg.Metrics.Addr != "" {
		stop, err = serveMetrics(cfg.Metrics.Addr, reg, logger)
		if err != nil {
			return nil, nil, err
		}
	}

	return p, stop, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func countCommand(ctx context.Context, p *pipeline.Pipeline, sources []string, stdout io.Writer) error {
	n, err := pipeline.Count(ctx, p, sources)
	fmt.Fprintln(stdout, n)

	return err
}

// filterCommand writes sources one after another so the output keeps each
// source's line order. In follow mode every reading is flushed as it arrives.
func filterCommand(ctx context.Context, p *pipeline.Pipeline, sources []string, comp format.CompressionType, follow bool, stdout io.Writer) error {
	bw := bufio.NewWriter(stdout)
	out, err := compress.NewWriter(bw, comp)
	if err != nil {
		return err
	}

	bb := pool.GetOutputBuffer()
	defer pool.PutOutputBuffer(bb)

	var writeErr error
	visit := func(r reading.Reading, _ int, _ string) {
		if writeErr != nil {
			return
		}
		bb.B = reading.AppendJSON(bb.B[:0], r)
		bb.B = append(bb.B, '\n')
		if _, writeErr = out.Write(bb.B); writeErr == nil && follow {
			writeErr = bw.Flush()
		}
	}

	var failures []error
	for _, src := range sources {
		if _, err := p.Run(ctx, src, visit); err != nil {
			if ctx.Err() != nil {
				failures = append(failures, err)
				break
			}
			failures = append(failures, fmt.Errorf("%s: %w", reader.SourceID(src), err))
		}
		if writeErr != nil {
			break
		}
	}

	if err := out.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if err := bw.Flush(); err != nil && writeErr == nil {
		writeErr = err
	}

	return errors.Join(append(failures, writeErr)...)
}
