package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fwojciec/sdr"
	"github.com/fwojciec/sdr/agent"
	bt "github.com/fwojciec/sdr/bubbletea"
	sdrcsv "github.com/fwojciec/sdr/csv"
	"github.com/fwojciec/sdr/goldmark"
	"github.com/fwojciec/sdr/session"
	"github.com/fwojciec/sdr/telemetry"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger returns a JSON logger writing to a rotating file, or a no-op
// logger when path is empty. The TUI owns the terminal, so logs never go to
// stderr.
func newLogger(path string, debug bool) (zerolog.Logger, io.Closer) {
	if path == "" {
		return zerolog.Nop(), io.NopCloser(nil)
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), w
}

// runTUI wires the chat provider, session client and agent and runs the
// TUI until it exits. A nil roster runs the inbound chat.
func runTUI(ctx context.Context, o *options, roster *sdr.Roster) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	pc, err := resolveConfig(o.provider, o.apiKey, o.env.anthropicKey, o.env.geminiKey)
	if err != nil {
		return err
	}

	logger, closer := newLogger(o.logFile, o.debug)
	defer closer.Close()

	if o.telemetryDir != "" {
		tel, err := telemetry.Setup(ctx, o.telemetryDir, telemetry.WithServiceVersion(version))
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tel.Shutdown(sctx); err != nil {
				logger.Error().Err(err).Msg("telemetry shutdown failed")
			}
		}()
	}

	provider, err := newProvider(ctx, pc, &cfg.Session)
	if err != nil {
		return err
	}
	client := session.New(provider,
		session.WithConfig(cfg.SessionDefaults()),
		session.WithFallback(cfg.Fallback),
		session.WithLogger(logger.With().Str("component", "session").Logger()),
	)

	events := make(chan sdr.Event, 64)
	a := agent.New(client, cfg,
		agent.WithLogger(logger.With().Str("component", "agent").Logger()),
		agent.WithEventHandler(bt.Forward(events)),
		agent.WithFormatter(goldmark.Format),
	)

	opts := []bt.Option{bt.WithEvents(events)}
	leads := 0
	if roster != nil {
		opts = append(opts, bt.WithRoster(roster), bt.WithLeadParser(sdrcsv.ParseLead))
		leads = roster.Len()
	}
	logger.Info().
		Str("version", version).
		Str("provider", pc.name).
		Int("leads", leads).
		Msg("starting")
	if err := bt.Run(ctx, bt.New(a, sdr.DefaultTheme(), opts...)); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}
