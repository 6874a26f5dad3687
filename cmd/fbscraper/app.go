package main

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"
	"syscall"

	"fbscraper/pkg/config"
	"fbscraper/pkg/connector"
	"fbscraper/pkg/extract"
	"fbscraper/pkg/logger"
	"fbscraper/pkg/metrics"
	"fbscraper/pkg/render"
	"fbscraper/pkg/scraper"
	"fbscraper/pkg/session"
	"fbscraper/pkg/ui"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// app holds everything one extraction command needs
type app struct {
	cfg      *config.Config
	log      logger.Logger
	term     *ui.Terminal
	scraper  *scraper.Scraper
	recorder *metrics.PrometheusRecorder
	out      io.Writer
	closers  []func() error
}

// newApp loads configuration and wires the connector, renderer and scraper.
// extra holds command-specific flag overrides.
func newApp(cmd *cobra.Command, extra map[string]interface{}) (*app, error) {
	flags := globalFlags(cmd)
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	a := &app{cfg: cfg, log: log, term: ui.NewTerminal(quiet), out: os.Stdout}

	if cfg.Facebook.Cookie == "" {
		cfg.Facebook.Cookie = storedCookie(log)
	}

	var rec metrics.Recorder
	if cfg.Metrics.Textfile != "" {
		a.recorder = metrics.NewPrometheusRecorder(nil)
		rec = a.recorder
	}

	var renderer extract.Renderer
	if r := render.FromConfig(cfg, log); r != nil {
		renderer = r
		a.closers = append(a.closers, r.Close)
	}

	client := connector.NewFromConfig(cfg, log, rec)
	a.scraper = scraper.NewFromConfig(cfg, client, renderer, log, rec)

	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		a.out = f
		a.closers = append(a.closers, f.Close)
	}

	return a, nil
}

// storedCookie returns the session cookie for the selected profile, if any
func storedCookie(log logger.Logger) string {
	manager, err := session.NewManager()
	if err != nil {
		log.WithError(err).Debug("Session store unavailable")
		return ""
	}
	cookie := manager.Cookie(profile)
	if cookie != "" {
		log.WithField("profile", profileName()).Debug("Using stored session")
	}
	return cookie
}

func profileName() string {
	if profile == "" {
		return session.DefaultProfile
	}
	return profile
}

// close writes the metrics textfile and releases resources
func (a *app) close() {
	if a.recorder != nil {
		if err := a.recorder.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			a.log.WithError(err).Error("Failed to write metrics")
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("Failed to release resource")
		}
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// writeRecords encodes each record of seq as one JSON line on out
func writeRecords[R any](out io.Writer, progress *ui.Progress, seq iter.Seq2[R, error]) error {
	enc := json.NewEncoder(out)
	for record, err := range seq {
		if err != nil {
			progress.Fail()
			return err
		}
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		progress.Record()
	}
	return nil
}

// run executes one extraction command end to end
func run[R any](a *app, kind, target string, seq func(ctx context.Context) iter.Seq2[R, error]) error {
	defer a.close()

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	a.term.PrintInfo("Target", target)
	progress := a.term.NewProgress(kind, target)

	if err := writeRecords(a.out, progress, seq(ctx)); err != nil {
		a.log.WithError(err).WithField("target", target).Error("Extraction failed")
		return err
	}

	progress.Complete()
	return nil
}
