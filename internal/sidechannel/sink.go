package sidechannel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

var (
	ErrSinkClosed = errors.New("sidechannel: sink is closed")
	ErrSinkFull   = errors.New("sidechannel: sink buffer is full")
)

// Sink accepts side-channel packets. Send takes ownership of p and should
// return promptly: the reader is stalled while it runs.
type Sink interface {
	Send(p Packet) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(p Packet) error

func (f SinkFunc) Send(p Packet) error { return f(p) }

// Discard accepts and drops every packet.
var Discard Sink = SinkFunc(func(Packet) error { return nil })

// SinkStats tracks packet delivery.
type SinkStats struct {
	Sent    uint64
	Dropped uint64
}

// ChanSink hands packets to a buffered channel. By default a full buffer
// drops the incoming packet and Send reports ErrSinkFull; a sink created by
// NewQueueSink waits for room instead.
type ChanSink struct {
	mu      sync.RWMutex
	ch      chan Packet
	closed  bool
	wait    context.Context
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewChanSink creates a ChanSink holding up to size undelivered packets.
func NewChanSink(size int) *ChanSink {
	if size <= 0 {
		size = 1
	}
	return &ChanSink{ch: make(chan Packet, size)}
}

// NewQueueSink creates a ChanSink whose Send blocks while the buffer is full,
// until a receiver makes room or ctx is done. Close must not be called while
// a Send is waiting.
func NewQueueSink(ctx context.Context, size int) *ChanSink {
	s := NewChanSink(size)
	s.wait = ctx
	return s
}

// Send implements Sink.
func (s *ChanSink) Send(p Packet) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}

	if s.wait != nil {
		select {
		case s.ch <- p:
			s.sent.Add(1)
			return nil
		case <-s.wait.Done():
			s.dropped.Add(1)
			return fmt.Errorf("sidechannel: queueing %s: %w", p.Kind(), s.wait.Err())
		}
	}

	select {
	case s.ch <- p:
		s.sent.Add(1)
		return nil
	default:
		s.dropped.Add(1)
		return ErrSinkFull
	}
}

// C returns the receive side. It is closed by Close.
func (s *ChanSink) C() <-chan Packet {
	return s.ch
}

// Close stops accepting packets. Packets already buffered remain readable.
func (s *ChanSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Stats returns delivery counters.
func (s *ChanSink) Stats() SinkStats {
	return SinkStats{
		Sent:    s.sent.Load(),
		Dropped: s.dropped.Load(),
	}
}

// JSONSink writes one JSON object per packet, each on its own line.
type JSONSink struct {
	mu sync.Mutex
	w  io.Writer
	n  atomic.Uint64
}

// NewJSONSink creates a JSONSink writing to w.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w}
}

// Send implements Sink.
func (s *JSONSink) Send(p Packet) error {
	line, err := Marshal(p)
	if err != nil {
		return fmt.Errorf("sidechannel: encoding %s: %w", p.Kind(), err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("sidechannel: writing %s: %w", p.Kind(), err)
	}
	s.n.Add(1)
	return nil
}

// Written returns the number of packets written.
func (s *JSONSink) Written() uint64 {
	return s.n.Load()
}

// Drain forwards packets from src to dst until src is closed or ctx is done.
func Drain(ctx context.Context, src <-chan Packet, dst Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-src:
			if !ok {
				return nil
			}
			if err := dst.Send(p); err != nil {
				return err
			}
		}
	}
}
