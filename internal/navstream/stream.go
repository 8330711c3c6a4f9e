// Package navstream adapts an event-driven navigation engine to a plain
// io.ReadSeeker. Navigation events met while pulling blocks are drained
// inline and turned into side-channel packets for the UI layer.
package navstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/javi11/dvdnavstream/internal/nav"
	"github.com/javi11/dvdnavstream/internal/sidechannel"
)

// Prefix is the optional scheme stripped from identifiers passed to Open.
const Prefix = "dvd:"

var (
	_ io.ReadSeeker = &Stream{}
	_ io.Closer     = &Stream{}
)

// Options configures a Stream.
type Options struct {
	// Language is the two-letter code used for menus, audio and subtitles.
	Language       string
	ReadAhead      bool
	PGCPositioning bool
	// Sink receives side-channel packets. Nil discards them.
	Sink   sidechannel.Sink
	Logger *slog.Logger
}

// DefaultOptions returns the settings streams open with unless overridden.
func DefaultOptions() Options {
	return Options{
		Language:  "en",
		ReadAhead: true,
	}
}

// Stream is one open disc. It is driven by a single caller: Read, Seek and
// the UI calls must not overlap.
type Stream struct {
	id      string
	log     *slog.Logger
	engine  nav.Engine
	sink    sidechannel.Sink
	builder builder
	lease   lease
	title   int

	// cache holds the unread tail of the last data block; pending is the
	// part of it not yet returned.
	cache   []byte
	pending []byte

	stats Stats
}

// Open opens the disc named by identifier through open, configures the
// engine from opts and starts playback of the longest title.
func Open(ctx context.Context, open nav.Opener, identifier string, opts Options) (*Stream, error) {
	path := strings.TrimPrefix(identifier, Prefix)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Sink
	if sink == nil {
		sink = sidechannel.Discard
	}

	id := uuid.NewString()
	log := logger.With("component", "navstream", "stream_id", id)

	engine, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("navstream: opening %q: %w: %w", path, ErrEngineUnavailable, err)
	}

	if err := configure(engine, opts); err != nil {
		log.ErrorContext(ctx, "Failed to configure navigation engine", "path", path, "error", err)
		_ = engine.Close()
		return nil, err
	}

	s := &Stream{
		id:      id,
		log:     log,
		engine:  engine,
		sink:    sink,
		builder: builder{engine: engine},
		lease:   lease{engine: engine},
		cache:   make([]byte, 0, nav.BlockSize),
	}

	s.title = s.startPlayback(ctx)

	log.InfoContext(ctx, "Opened disc", "path", path, "title", s.title, "language", opts.Language)
	return s, nil
}

func configure(engine nav.Engine, opts Options) error {
	steps := []struct {
		op string
		fn func() error
	}{
		{"set read-ahead", func() error { return engine.SetReadAhead(opts.ReadAhead) }},
		{"select menu language", func() error { return engine.SelectMenuLanguage(opts.Language) }},
		{"select audio language", func() error { return engine.SelectAudioLanguage(opts.Language) }},
		{"select subtitle language", func() error { return engine.SelectSubtitleLanguage(opts.Language) }},
		{"set PGC positioning", func() error { return engine.SetPGCPositioning(opts.PGCPositioning) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return engineErr(step.op, ErrEngineUnavailable, err)
		}
	}
	return nil
}

// ID returns the stream identifier used in logs.
func (s *Stream) ID() string { return s.id }

// Title returns the title playback started with.
func (s *Stream) Title() int { return s.title }

// Stats returns the stream counters.
func (s *Stream) Stats() *Stats { return &s.stats }

// Read fills p from the next data block. Navigation events met on the way
// are drained and dispatched before it returns. It returns io.EOF once the
// engine stops. At most min(len(p), block length) bytes are returned per
// call; a block's remainder is kept for the following calls.
func (s *Stream) Read(p []byte) (n int, err error) {
	if s.engine == nil {
		return 0, ErrInvalidState
	}
	if len(p) == 0 {
		return 0, nil
	}

	if len(s.pending) > 0 {
		n = copy(p, s.pending)
		s.pending = s.pending[n:]
		s.stats.BytesRead.Add(int64(n))
		return n, nil
	}

	defer func() {
		if rerr := s.lease.release(); rerr != nil && err == nil {
			err = engineErr("release block", ErrIOFailure, rerr)
		}
	}()

	for {
		if err := s.lease.release(); err != nil {
			return 0, engineErr("release block", ErrIOFailure, err)
		}

		blk, err := s.engine.NextBlock()
		if err != nil {
			s.log.Error("Failed to read next block", "error", err)
			return 0, engineErr("next block", ErrIOFailure, err)
		}
		if blk.Data != nil {
			s.lease.acquire(blk.Data)
		}

		kind := Classify(blk.Event)
		s.stats.recordEvent(kind)

		switch kind {
		case KindData:
			n = copy(p, blk.Data)
			if n < len(blk.Data) {
				s.cache = append(s.cache[:0], blk.Data[n:]...)
				s.pending = s.cache
			}
			s.stats.Blocks.Add(1)
			s.stats.BytesRead.Add(int64(n))
			return n, nil

		case KindTerminal:
			s.log.Debug("Playback stopped")
			return 0, io.EOF

		default:
			if err := s.dispatch(kind, blk); err != nil {
				return 0, err
			}
		}
	}
}

// dispatch builds the packet for a navigation event, if any, and hands it to
// the sink.
func (s *Stream) dispatch(kind Kind, blk nav.Block) error {
	switch kind {
	case KindStillFrame:
		s.log.Debug("Navigation event", "event", kind,
			"length", blk.Still.Length, "infinite", blk.Still.Length == stillInfinite)
	case KindTitleChange:
		s.log.Debug("Navigation event", "event", kind,
			"old_vts", blk.VTSChange.OldVTS, "new_vts", blk.VTSChange.NewVTS,
			"new_domain", blk.VTSChange.NewDomain)
	default:
		s.log.Debug("Navigation event", "event", kind, "raw", blk.Event)
	}

	p, ok := s.builder.build(kind, blk)
	if !ok {
		return nil
	}

	if err := s.sink.Send(p); err != nil {
		s.stats.PacketsRejected.Add(1)
		s.log.Error("Side-channel sink rejected packet", "packet", p.Kind(), "error", err)
		if errors.Is(err, sidechannel.ErrSinkFull) {
			return fmt.Errorf("navstream: dispatching %s: %w: %w", p.Kind(), ErrResourceExhausted, err)
		}
		return fmt.Errorf("navstream: dispatching %s: %w", p.Kind(), err)
	}
	s.stats.PacketsSent.Add(1)
	return nil
}

// SelectButton activates the zero-based button of the current menu.
func (s *Stream) SelectButton(index int) error {
	if s.engine == nil {
		return ErrInvalidState
	}

	pci := s.engine.CurrentNav()
	if pci == nil {
		s.log.Debug("No navigation context, ignoring button selection", "index", index)
		return nil
	}
	if err := s.engine.ButtonActivate(pci, index+1); err != nil {
		return engineErr("button activate", ErrIOFailure, err)
	}
	return nil
}

// SignalQueueDrained tells the engine the UI consumed the pending wait or
// highlight cue.
func (s *Stream) SignalQueueDrained() error {
	if s.engine == nil {
		return ErrInvalidState
	}
	if err := s.engine.WaitSkip(); err != nil {
		return engineErr("wait skip", ErrIOFailure, err)
	}
	return nil
}

// Close releases any held block and closes the engine. Closing twice is a
// no-op.
func (s *Stream) Close() error {
	if s.engine == nil {
		return nil
	}

	var errs []error
	if err := s.lease.release(); err != nil {
		errs = append(errs, engineErr("release block", ErrIOFailure, err))
	}
	if err := s.engine.Close(); err != nil {
		errs = append(errs, engineErr("close", ErrIOFailure, err))
	}
	s.engine = nil
	s.pending = nil

	snap := s.stats.Snapshot()
	s.log.Info("Closed disc",
		"blocks", snap.Blocks,
		"bytes_read", snap.BytesRead,
		"packets_sent", snap.PacketsSent,
		"packets_rejected", snap.PacketsRejected,
		"events", snap.Events)

	return errors.Join(errs...)
}
