// Package nav describes the navigation engine the stream adapter drives:
// the pull-based block call, the raw event codes it emits inline with data,
// and the attribute queries used to describe the current title.
package nav

import "errors"

// BlockSize is the logical block length of a disc sector.
const BlockSize = 2048

// PositionUnknown is reported by Position when the engine cannot place the
// current sector, for example while a menu is playing.
const PositionUnknown = ^uint32(0)

var (
	// ErrNotFound is returned by attribute queries for an index the current
	// title does not carry.
	ErrNotFound = errors.New("nav: attribute not found")
	// ErrClosed is returned by any call made after Close.
	ErrClosed = errors.New("nav: engine is closed")
)

// Event is the raw event code returned with every block pull.
type Event uint8

// Raw event codes. The numeric values follow the navigation library; 11 is
// unassigned.
const (
	EventBlockOK           Event = 0
	EventNOP               Event = 1
	EventStillFrame        Event = 2
	EventSPUStreamChange   Event = 3
	EventAudioStreamChange Event = 4
	EventVTSChange         Event = 5
	EventCellChange        Event = 6
	EventNavPacket         Event = 7
	EventStop              Event = 8
	EventHighlight         Event = 9
	EventSPUCLUTChange     Event = 10
	EventHopChannel        Event = 12
	EventWait              Event = 13
)

var eventNames = map[Event]string{
	EventBlockOK:           "block_ok",
	EventNOP:               "nop",
	EventStillFrame:        "still_frame",
	EventSPUStreamChange:   "spu_stream_change",
	EventAudioStreamChange: "audio_stream_change",
	EventVTSChange:         "vts_change",
	EventCellChange:        "cell_change",
	EventNavPacket:         "nav_packet",
	EventStop:              "stop",
	EventHighlight:         "highlight",
	EventSPUCLUTChange:     "spu_clut_change",
	EventHopChannel:        "hop_channel",
	EventWait:              "wait",
}

func (e Event) String() string {
	if s, ok := eventNames[e]; ok {
		return s
	}
	return "unknown"
}

// ParseEvent returns the event code for a name produced by Event.String.
func ParseEvent(name string) (Event, bool) {
	for e, s := range eventNames {
		if s == name {
			return e, true
		}
	}
	return 0, false
}

// Domain identifies which part of the disc a VTS change moved into.
type Domain uint8

const (
	DomainInfoFile   Domain = 0
	DomainInfoBackup Domain = 1
	DomainMenuVOBs   Domain = 2
	DomainTitleVOBs  Domain = 3
)

// StillEvent accompanies EventStillFrame. Length is in seconds, 0xff means
// the still lasts until the user acts.
type StillEvent struct {
	Length uint32
}

// WaitEvent accompanies EventWait.
type WaitEvent struct {
	Length uint32
}

// HighlightEvent accompanies EventHighlight. Button is 1-based, 0 means no
// button is highlighted.
type HighlightEvent struct {
	Display uint32
	Palette uint32
	Button  uint32
	PTS     uint32
}

// VTSChangeEvent accompanies EventVTSChange.
type VTSChangeEvent struct {
	OldVTS    int
	NewVTS    int
	OldDomain Domain
	NewDomain Domain
}

// StreamChangeEvent accompanies the audio and subpicture stream change events.
type StreamChangeEvent struct {
	Physical int
}

// Palette is a subpicture color look-up table.
type Palette [16]uint32

// Block is one unit returned by Engine.NextBlock. Data is only set for
// EventBlockOK; it is owned by the engine and must be handed back through
// Engine.ReleaseBlock. The payload field matching Event is populated.
type Block struct {
	Event Event
	Data  []byte

	Still     StillEvent
	Wait      WaitEvent
	Highlight HighlightEvent
	VTSChange VTSChangeEvent
	Stream    StreamChangeEvent
	Palette   Palette
}

// AudioAttr describes one audio stream of the current title. LangCode packs
// two ASCII letters, first letter in the high byte; zero means no language.
type AudioAttr struct {
	LangCode        uint16
	CodeExtension   uint8
	Channels        uint8
	ApplicationMode uint8
}

// SubtitleAttr describes one subpicture stream of the current title.
type SubtitleAttr struct {
	LangCode      uint16
	CodeExtension uint8
}

// ButtonInfo is one entry of the highlight button table.
type ButtonInfo struct {
	XStart, YStart uint16
	XEnd, YEnd     uint16
}

// NavContext is the presentation control information for the current
// navigation packet. ButtonCount is the count reported by the disc and may
// exceed len(Buttons).
type NavContext struct {
	ButtonCount int
	Buttons     []ButtonInfo
}

// TitleInfo is the chapter layout of one title. Times and Duration are in
// 90kHz ticks.
type TitleInfo struct {
	ChapterTimes []uint64
	Duration     uint64
}

// Engine is the navigation engine consumed by the stream adapter. A single
// caller drives it; implementations need not be safe for concurrent use.
type Engine interface {
	Close() error

	SetReadAhead(enabled bool) error
	SelectMenuLanguage(code string) error
	SelectAudioLanguage(code string) error
	SelectSubtitleLanguage(code string) error
	SetPGCPositioning(enabled bool) error

	// NextBlock pulls the next unit. For EventBlockOK the returned Data is
	// on loan until ReleaseBlock.
	NextBlock() (Block, error)
	ReleaseBlock(data []byte) error

	TitleCount() (int, error)
	DescribeTitle(title int) (TitleInfo, error)
	TitlePlay(title int) error
	CurrentTitle() (title, part int, err error)

	AudioAttr(stream int) (AudioAttr, error)
	SubtitleAttr(stream int) (SubtitleAttr, error)
	ActiveSubtitleStream() int
	VideoResolution() (width, height uint32, err error)
	VideoAspect() uint8
	AngleInfo() (current, max int, err error)

	CurrentNav() *NavContext
	CurrentTime() int64
	ButtonActivate(nav *NavContext, button int) error
	WaitSkip() error

	// Position reports the current sector and the title length in sectors.
	Position() (sector, length uint32, err error)
	SectorSeek(sector int64, whence int) error
}
