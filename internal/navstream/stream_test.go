package navstream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/javi11/dvdnavstream/internal/nav"
	"github.com/javi11/dvdnavstream/internal/sidechannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type collectingSink struct {
	packets []sidechannel.Packet
}

func (c *collectingSink) Send(p sidechannel.Packet) error {
	c.packets = append(c.packets, p)
	return nil
}

func openStream(t *testing.T, m *MockEngine, sink sidechannel.Sink) *Stream {
	t.Helper()

	expectOpen(m, 100)
	m.On("TitlePlay", 1).Return(nil).Once()

	opts := DefaultOptions()
	opts.Sink = sink
	s, err := Open(context.Background(), opener(m), "dvd:/dev/sr0", opts)
	require.NoError(t, err)
	return s
}

func block(fill byte, size int) []byte {
	return bytes.Repeat([]byte{fill}, size)
}

func TestRead_DrainsEventsThenReturnsData(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	sink := &collectingSink{}
	s := openStream(t, m, sink)

	data := block(0xAB, nav.BlockSize)
	palette := nav.Palette{0x10, 0x20, 0x30}

	m.On("CurrentTime").Return(int64(90000))
	m.On("NextBlock").Return(nav.Block{Event: nav.EventNOP}, nil).Once()
	m.On("NextBlock").Return(nav.Block{Event: nav.EventCellChange}, nil).Once()
	m.On("NextBlock").Return(nav.Block{Event: nav.EventHighlight, Highlight: nav.HighlightEvent{Button: 3}}, nil).Once()
	m.On("NextBlock").Return(nav.Block{Event: nav.EventSPUCLUTChange, Palette: palette}, nil).Once()
	m.On("NextBlock").Return(nav.Block{Event: nav.EventWait, Wait: nav.WaitEvent{Length: 5}}, nil).Once()
	m.On("NextBlock").Return(nav.Block{Event: nav.Event(11)}, nil).Once()
	m.On("NextBlock").Return(nav.Block{Event: nav.EventBlockOK, Data: data}, nil).Once()
	m.On("ReleaseBlock", data).Return(nil).Once()

	buf := make([]byte, 4096)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, nav.BlockSize, n)
	assert.Equal(t, data, buf[:n])

	require.Len(t, sink.packets, 3)
	assert.Equal(t, &sidechannel.HighlightChange{Header: sidechannel.Header{PTS: 90000}, Index: 2}, sink.packets[0])
	assert.Equal(t, [16]uint32(palette), sink.packets[1].(*sidechannel.PaletteChange).Palette)
	assert.Equal(t, uint32(5), sink.packets[2].(*sidechannel.WaitCue).Duration)

	assert.False(t, s.lease.active())
	m.AssertNumberOfCalls(t, "ReleaseBlock", 1)
	m.AssertExpectations(t)

	snap := s.Stats().Snapshot()
	assert.Equal(t, int64(1), snap.Blocks)
	assert.Equal(t, int64(nav.BlockSize), snap.BytesRead)
	assert.Equal(t, int64(3), snap.PacketsSent)
	assert.Equal(t, int64(2), snap.Events["noop"])
}

func TestRead_ReleasesEveryBorrowedBlockOnce(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	s := openStream(t, m, nil)

	lentWithEvent := block(0x01, 16)
	data := block(0x02, nav.BlockSize)

	m.On("CurrentNav").Return(nil)
	m.On("NextBlock").Return(nav.Block{Event: nav.EventNavPacket, Data: lentWithEvent}, nil).Once()
	m.On("NextBlock").Return(nav.Block{Event: nav.EventBlockOK, Data: data}, nil).Once()
	m.On("ReleaseBlock", lentWithEvent).Return(nil).Once()
	m.On("ReleaseBlock", data).Return(nil).Once()

	n, err := s.Read(make([]byte, nav.BlockSize))
	require.NoError(t, err)
	assert.Equal(t, nav.BlockSize, n)

	m.AssertNumberOfCalls(t, "ReleaseBlock", 2)
	m.AssertExpectations(t)
}

func TestRead_StopReturnsEOF(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	s := openStream(t, m, nil)

	m.On("NextBlock").Return(nav.Block{Event: nav.EventStop}, nil).Twice()

	buf := make([]byte, 64)
	for i := 0; i < 2; i++ {
		n, err := s.Read(buf)
		assert.Zero(t, n)
		assert.ErrorIs(t, err, io.EOF)
	}

	assert.False(t, s.lease.active())
	m.AssertNotCalled(t, "ReleaseBlock", mock.Anything)
}

func TestRead_StopReleasesLentBuffer(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	s := openStream(t, m, nil)

	lent := block(0x07, 32)
	m.On("NextBlock").Return(nav.Block{Event: nav.EventStop, Data: lent}, nil).Once()
	m.On("ReleaseBlock", lent).Return(nil).Once()

	n, err := s.Read(make([]byte, 64))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
	m.AssertNumberOfCalls(t, "ReleaseBlock", 1)
}

func TestRead_EngineErrorIsIOFailure(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	s := openStream(t, m, nil)

	cause := errors.New("read error")
	m.On("NextBlock").Return(nav.Block{}, cause).Once()

	n, err := s.Read(make([]byte, 64))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrIOFailure)
	assert.ErrorIs(t, err, cause)

	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, "next block", engErr.Op)

	m.AssertNotCalled(t, "ReleaseBlock", mock.Anything)
}

func TestRead_EventsBeforeErrorAreNotRolledBack(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	sink := &collectingSink{}
	s := openStream(t, m, sink)

	m.On("CurrentTime").Return(int64(0))
	m.On("NextBlock").Return(nav.Block{Event: nav.EventWait, Wait: nav.WaitEvent{Length: 1}}, nil).Once()
	m.On("NextBlock").Return(nav.Block{}, errors.New("read error")).Once()

	_, err := s.Read(make([]byte, 64))
	require.ErrorIs(t, err, ErrIOFailure)
	assert.Len(t, sink.packets, 1)
}

func TestRead_SinkFullIsResourceExhausted(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	sink := sidechannel.NewChanSink(1)
	require.NoError(t, sink.Send(&sidechannel.WaitCue{}))
	s := openStream(t, m, sink)

	m.On("CurrentTime").Return(int64(0))
	m.On("NextBlock").Return(nav.Block{Event: nav.EventHighlight}, nil).Once()

	n, err := s.Read(make([]byte, 64))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrResourceExhausted)
	assert.ErrorIs(t, err, sidechannel.ErrSinkFull)
	assert.Equal(t, int64(1), s.Stats().PacketsRejected.Load())
}

func TestRead_ShortBufferKeepsRemainder(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	s := openStream(t, m, nil)

	data := make([]byte, nav.BlockSize)
	for i := range data {
		data[i] = byte(i)
	}
	m.On("NextBlock").Return(nav.Block{Event: nav.EventBlockOK, Data: data}, nil).Once()
	m.On("ReleaseBlock", data).Return(nil).Once()

	var got []byte
	buf := make([]byte, 1000)

	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1000, n)
	got = append(got, buf[:n]...)
	m.AssertNumberOfCalls(t, "ReleaseBlock", 1)

	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1000, n)
	got = append(got, buf[:n]...)

	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 48, n)
	got = append(got, buf[:n]...)

	assert.Equal(t, data, got)
	m.AssertNumberOfCalls(t, "NextBlock", 1)
}

func TestRead_ReleaseFailureSurfaces(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	s := openStream(t, m, nil)

	data := block(0x05, 128)
	m.On("NextBlock").Return(nav.Block{Event: nav.EventBlockOK, Data: data}, nil).Once()
	m.On("ReleaseBlock", data).Return(errors.New("not leased")).Once()

	n, err := s.Read(make([]byte, 256))
	assert.Equal(t, 128, n)
	assert.ErrorIs(t, err, ErrIOFailure)
	assert.False(t, s.lease.active())
}

func TestRead_EmptyBufferDoesNotPull(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	s := openStream(t, m, nil)

	n, err := s.Read(nil)
	assert.Zero(t, n)
	assert.NoError(t, err)
	m.AssertNotCalled(t, "NextBlock")
}

func TestClosedStream(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	s := openStream(t, m, nil)
	m.On("Close").Return(nil).Once()

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	m.AssertNumberOfCalls(t, "Close", 1)

	_, err := s.Read(make([]byte, 8))
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, s.SelectButton(0), ErrInvalidState)
	assert.ErrorIs(t, s.SignalQueueDrained(), ErrInvalidState)
}

func TestSelectButton(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	s := openStream(t, m, nil)

	pci := &nav.NavContext{ButtonCount: 2}
	m.On("CurrentNav").Return(pci).Once()
	m.On("ButtonActivate", pci, 2).Return(nil).Once()

	require.NoError(t, s.SelectButton(1))
	m.AssertExpectations(t)
}

func TestSelectButton_NoNavContext(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	s := openStream(t, m, nil)

	m.On("CurrentNav").Return(nil).Once()

	require.NoError(t, s.SelectButton(0))
	m.AssertNotCalled(t, "ButtonActivate", mock.Anything, mock.Anything)
}

func TestSignalQueueDrained(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	s := openStream(t, m, nil)

	m.On("WaitSkip").Return(nil).Once()
	require.NoError(t, s.SignalQueueDrained())

	m.On("WaitSkip").Return(errors.New("no wait pending")).Once()
	assert.ErrorIs(t, s.SignalQueueDrained(), ErrIOFailure)
}

func TestOpen_StripsPrefixAndSelectsLongestTitle(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	expectOpen(m, 5, 9, 9, 3)
	m.On("TitlePlay", 2).Return(nil).Once()

	var path string
	open := func(p string) (nav.Engine, error) {
		path = p
		return m, nil
	}

	s, err := Open(context.Background(), open, "dvd:/media/disc.iso", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "/media/disc.iso", path)
	assert.Equal(t, 2, s.Title())
	assert.NotEmpty(t, s.ID())
	m.AssertExpectations(t)
}

func TestOpen_TitleCountFailureStillPlays(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	m.On("SetReadAhead", true).Return(nil)
	m.On("SelectMenuLanguage", "en").Return(nil)
	m.On("SelectAudioLanguage", "en").Return(nil)
	m.On("SelectSubtitleLanguage", "en").Return(nil)
	m.On("SetPGCPositioning", false).Return(nil)
	m.On("TitleCount").Return(0, errors.New("ifo unreadable"))
	m.On("TitlePlay", 1).Return(nil).Once()

	s, err := Open(context.Background(), opener(m), "/dev/sr0", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Title())
	m.AssertNotCalled(t, "DescribeTitle", mock.Anything)
}

func TestOpen_OpenerFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("no such device")
	open := func(string) (nav.Engine, error) { return nil, cause }

	_, err := Open(context.Background(), open, "/dev/sr9", DefaultOptions())
	assert.ErrorIs(t, err, ErrEngineUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestOpen_ConfigurationFailureClosesEngine(t *testing.T) {
	t.Parallel()

	m := new(MockEngine)
	m.On("SetReadAhead", true).Return(nil)
	m.On("SelectMenuLanguage", "en").Return(nil)
	m.On("SelectAudioLanguage", "en").Return(errors.New("unknown language"))
	m.On("Close").Return(nil).Once()

	_, err := Open(context.Background(), opener(m), "/dev/sr0", DefaultOptions())
	assert.ErrorIs(t, err, ErrEngineUnavailable)

	var engErr *EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, "select audio language", engErr.Op)

	m.AssertCalled(t, "Close")
	m.AssertNotCalled(t, "SelectSubtitleLanguage", mock.Anything)
	m.AssertNotCalled(t, "TitlePlay", mock.Anything)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event nav.Event
		want  Kind
	}{
		{nav.EventBlockOK, KindData},
		{nav.EventNOP, KindNoOp},
		{nav.EventStillFrame, KindStillFrame},
		{nav.EventSPUStreamChange, KindSubtitleStreamChange},
		{nav.EventAudioStreamChange, KindAudioStreamChange},
		{nav.EventVTSChange, KindTitleChange},
		{nav.EventCellChange, KindCellChange},
		{nav.EventNavPacket, KindNavPacket},
		{nav.EventStop, KindTerminal},
		{nav.EventHighlight, KindHighlight},
		{nav.EventSPUCLUTChange, KindPaletteChange},
		{nav.Event(11), KindNoOp},
		{nav.EventHopChannel, KindChannelHop},
		{nav.EventWait, KindWait},
		{nav.Event(200), KindNoOp},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.event), "event %d", tt.event)
	}

	// Only the stop code terminates.
	for e := 0; e < 256; e++ {
		if nav.Event(e) != nav.EventStop {
			assert.NotEqual(t, KindTerminal, Classify(nav.Event(e)))
		}
	}
}
