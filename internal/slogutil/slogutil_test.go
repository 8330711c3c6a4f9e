package slogutil

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWith_AccumulatesAttrs(t *testing.T) {
	t.Parallel()

	ctx := With(context.Background(), "stream_id", "abc")
	ctx = With(ctx, "title", 3)

	attrs := Attrs(ctx)
	require.Len(t, attrs, 2)
	assert.Equal(t, "stream_id", attrs[0].Key)
	assert.Equal(t, "title", attrs[1].Key)
	assert.Equal(t, int64(3), attrs[1].Value.Int64())

	assert.Equal(t, ctx, With(ctx))
}

func TestContextHandler_AddsAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, Options{Level: "debug", Format: "json"})

	ctx := With(context.Background(), "stream_id", "abc")
	log.DebugContext(ctx, "Event", "event", "nav_packet")

	assert.Contains(t, buf.String(), `"stream_id":"abc"`)
	assert.Contains(t, buf.String(), `"event":"nav_packet"`)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewLogger_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dvdnavstream.log")
	log, closer := NewLogger(Options{Level: "info", File: path, MaxSizeMB: 1})
	log.Info("hello")
	require.NoError(t, closer.Close())

	assert.FileExists(t, path)
}
