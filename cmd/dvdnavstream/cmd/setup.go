package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/javi11/dvdnavstream/internal/config"
	"github.com/javi11/dvdnavstream/internal/nav"
	_ "github.com/javi11/dvdnavstream/internal/nav/replay"
	"github.com/javi11/dvdnavstream/internal/navstream"
	"github.com/javi11/dvdnavstream/internal/pathutil"
	"github.com/javi11/dvdnavstream/internal/sidechannel"
	"github.com/javi11/dvdnavstream/internal/slogutil"
	"github.com/spf13/afero"
)

// app holds what every command needs: the loaded configuration, the
// loggers and the engine opener it names.
type app struct {
	cfg *config.Config
	// logger is unscoped; log adds component=cli for the commands' own lines.
	logger *slog.Logger
	log    *slog.Logger
	open   nav.Opener
	closer io.Closer
}

func setup() (*app, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if language != "" {
		cfg.Language = language
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --language: %w", err)
		}
	}

	if err := pathutil.CheckFileDirectoryWritable(afero.NewOsFs(), cfg.Log.File, "log"); err != nil {
		return nil, err
	}

	logger, closer := slogutil.NewLogger(cfg.LogOptions())
	slog.SetDefault(logger)

	open, err := nav.Lookup(nav.Type(cfg.Engine))
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		log:    logger.With("component", "cli"),
		open:   open,
		closer: closer,
	}, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}

// streamOptions returns the adapter settings with sink attached. The stream
// scopes its own logger, so it is handed the unscoped one.
func (a *app) streamOptions(sink sidechannel.Sink) navstream.Options {
	opts := a.cfg.StreamOptions()
	opts.Sink = sink
	opts.Logger = a.logger
	return opts
}

// closeAll joins the close errors of every closer, in order.
func closeAll(closers ...io.Closer) error {
	var errs []error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
