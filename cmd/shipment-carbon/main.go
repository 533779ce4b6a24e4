package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	shipmentcarbon "github.com/lastlap/shipment-carbon"
	"github.com/lastlap/shipment-carbon/internal/report"
	"github.com/lastlap/shipment-carbon/internal/server"
	"github.com/lastlap/shipment-carbon/internal/source"
	"github.com/lastlap/shipment-carbon/internal/tabular"
	"github.com/lastlap/shipment-carbon/model/emissions"
	"github.com/lastlap/shipment-carbon/model/factors"
	"github.com/lastlap/shipment-carbon/model/insight"
)

type config struct {
	input       string
	preset      string
	compareAll  bool
	overrides   string
	output      string
	format      string
	summarize   bool
	listPresets bool
	showFactors bool
	listen      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])

		flag.PrintDefaults()

		fmt.Fprint(os.Stderr, "\nSources (-input, -overrides):\n")
		fmt.Fprint(os.Stderr, "  path/to/file, - (stdin), gs://bucket/object, s3://bucket/key\n")
		fmt.Fprint(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprint(os.Stderr, "  GOOGLE_APPLICATION_CREDENTIALS, AWS_PROFILE, AWS_REGION\n")
		fmt.Fprint(os.Stderr, "        cloud credentials used for gs:// and s3:// sources\n")
	}

	cfg := config{}
	flagLogLevel := ""
	flagLogFormat := ""

	flag.StringVar(&cfg.input, "input", "-", "shipment table to compute (csv)")
	flag.StringVar(&cfg.preset, "preset", "", "industry material preset to compute with")
	flag.BoolVar(&cfg.compareAll, "compare-all", false, "run the table under every preset and report the spread")
	flag.StringVar(&cfg.overrides, "overrides", "", "emission factor overrides document (json, yaml)")
	flag.StringVar(&cfg.output, "output", "", "write the computed table to this csv file")
	flag.StringVar(&cfg.format, "format", "text", "report format (text, json, openmetrics)")
	flag.BoolVar(&cfg.summarize, "summarize", false, "input is an already computed table, only summarize it")
	flag.BoolVar(&cfg.listPresets, "list-presets", false, "print the available presets and exit")
	flag.BoolVar(&cfg.showFactors, "show-factors", false, "print the factors in use, overrides included, and exit")
	flag.StringVar(&cfg.listen, "listen", "", "serve the http api on this addr instead of computing a file")
	flag.StringVar(&flagLogLevel, "log.level", "info", "log severity (debug, info, warn, error)")
	flag.StringVar(&flagLogFormat, "log.format", "text", "log format (text, json)")

	flag.Parse()

	initLogging(flagLogLevel, flagLogFormat)

	if err := run(ctx, cfg, source.NewOpener(), os.Stdout); err != nil {
		slog.Error("shipment carbon failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, opener *source.Opener, stdout io.Writer) error {
	registry := factors.NewRegistry()
	if cfg.overrides != "" {
		if err := loadOverrides(ctx, registry, opener, cfg.overrides); err != nil {
			return err
		}
	}
	pipeline := emissions.NewPipeline(registry)

	switch {
	case cfg.listPresets:
		for _, preset := range pipeline.ListPresets() {
			fmt.Fprintln(stdout, preset)
		}
		return nil
	case cfg.showFactors:
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(registry.Factors())
	case cfg.listen != "":
		return serve(ctx, cfg.listen, pipeline)
	case cfg.summarize:
		return summarize(ctx, cfg, opener, stdout)
	}

	return compute(ctx, cfg, pipeline, opener, stdout)
}

func loadOverrides(ctx context.Context, registry *factors.Registry, opener *source.Opener, uri string) error {
	r, err := opener.Open(ctx, uri)
	if err != nil {
		return &shipmentcarbon.OverridesSourceError{Source: uri, Err: err}
	}
	defer r.Close()

	return registry.LoadOverridesFrom(r, uri)
}

func compute(ctx context.Context, cfg config, pipeline *emissions.Pipeline, opener *source.Opener, stdout io.Writer) error {
	r, err := opener.Open(ctx, cfg.input)
	if err != nil {
		return err
	}
	defer r.Close()

	sheet, err := tabular.Read(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.input, err)
	}

	results, err := pipeline.Run(sheet.Records, cfg.preset)
	if err != nil {
		return err
	}

	if cfg.output != "" {
		if err := writeResults(cfg.output, sheet.Columns, results); err != nil {
			return err
		}
		slog.Info("computed table written", "output", cfg.output, "records", len(results.Records))
	}

	var sweep []shipmentcarbon.Sensitivity
	if cfg.compareAll {
		sweep, err = pipeline.CompareAll(ctx, sheet.Records)
		if err != nil {
			return err
		}
	}

	return printSummary(stdout, cfg.format, results, sweep)
}

func summarize(ctx context.Context, cfg config, opener *source.Opener, stdout io.Writer) error {
	r, err := opener.Open(ctx, cfg.input)
	if err != nil {
		return err
	}
	defer r.Close()

	results, err := tabular.ReadResults(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.input, err)
	}

	return printSummary(stdout, cfg.format, results, nil)
}

func writeResults(path string, columns []string, results *shipmentcarbon.Results) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := tabular.Write(f, columns, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type jsonReport struct {
	Preset      string                          `json:"preset,omitempty"`
	Records     int                             `json:"records"`
	Summary     shipmentcarbon.EmissionsSummary `json:"summary"`
	Sensitivity []shipmentcarbon.Sensitivity    `json:"sensitivity,omitempty"`
}

func printSummary(w io.Writer, format string, results *shipmentcarbon.Results, sweep []shipmentcarbon.Sensitivity) error {
	summary, err := insight.Summarize(results)
	if err != nil {
		return err
	}

	switch format {
	case "text":
		return report.Text(w, results.Preset, len(results.Records), summary, sweep)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(jsonReport{
			Preset:      results.Preset,
			Records:     len(results.Records),
			Summary:     summary,
			Sensitivity: sweep,
		})
	case "openmetrics":
		metrics := shipmentcarbon.SummaryMetrics(results.Preset, summary)
		metrics = append(metrics, shipmentcarbon.SensitivityMetrics(sweep)...)
		return shipmentcarbon.WriteMetrics(w, metrics)
	}

	return fmt.Errorf("unsupported format %s", format)
}

func serve(ctx context.Context, listen string, pipeline *emissions.Pipeline) error {
	httpServer := &http.Server{
		Addr:              listen,
		Handler:           server.New(ctx, pipeline).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errg, errgctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		slog.Info("starting shipment carbon api", "listen", listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start shipment carbon api: %w", err)
		}
		return nil
	})
	errg.Go(func() error {
		<-errgctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("stopping shipment carbon api")
		return httpServer.Shutdown(shutdownCtx)
	})

	return errg.Wait()
}

func initLogging(logLevel string, logFormat string) {
	switch logFormat {
	case "text":
		slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:   slogLevel(logLevel),
			NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
		})))
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slogLevel(logLevel),
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				switch a.Key {
				case slog.LevelKey:
					a.Key = "severity"
					return a
				case slog.MessageKey:
					a.Key = "message"
					return a
				default:
					return a
				}
			},
		})))
	}
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}
