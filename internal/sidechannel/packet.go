// Package sidechannel defines the structured records describing navigation
// state that travels beside the payload byte stream: menu buttons, the
// highlighted button, subpicture palettes, wait cues and per-title metadata.
package sidechannel

import (
	"encoding/json"
	"fmt"
)

// Table limits. Engines may report more entries; builders clamp to these.
const (
	MaxButtons           = 36
	MaxAudioLanguages    = 8
	MaxSubtitleLanguages = 32
)

// Kind tags a Packet variant.
type Kind uint8

const (
	KindButtonList Kind = iota + 1
	KindHighlightChange
	KindPaletteChange
	KindWaitCue
	KindTitleReset
)

var kindNames = map[Kind]string{
	KindButtonList:      "button_list",
	KindHighlightChange: "highlight_change",
	KindPaletteChange:   "palette_change",
	KindWaitCue:         "wait_cue",
	KindTitleReset:      "title_reset",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Packet is one side-channel record. Ownership passes to the Sink on Send.
type Packet interface {
	Kind() Kind
	// Timestamp is the disc-relative presentation time in 90kHz ticks.
	Timestamp() int64
}

// Header carries the fields common to every packet.
type Header struct {
	PTS int64 `json:"pts"`
}

func (h Header) Timestamp() int64 { return h.PTS }

// Button is a menu button rectangle in picture coordinates.
type Button struct {
	X uint16 `json:"x"`
	Y uint16 `json:"y"`
	W uint16 `json:"w"`
	H uint16 `json:"h"`
}

// ButtonList carries the button geometry of the current menu.
type ButtonList struct {
	Header
	Buttons []Button `json:"buttons"`
}

func (ButtonList) Kind() Kind { return KindButtonList }

// HighlightChange carries the zero-based index of the highlighted button.
type HighlightChange struct {
	Header
	Index int `json:"index"`
}

func (HighlightChange) Kind() Kind { return KindHighlightChange }

// PaletteChange carries a new subpicture color table.
type PaletteChange struct {
	Header
	Palette [16]uint32 `json:"palette"`
}

func (PaletteChange) Kind() Kind { return KindPaletteChange }

// WaitCue asks the consumer to hold presentation for Duration engine time
// units.
type WaitCue struct {
	Header
	Duration uint32 `json:"duration"`
}

func (WaitCue) Kind() Kind { return KindWaitCue }

// AudioTrack is one row of the audio language table.
type AudioTrack struct {
	Language  Language `json:"language"`
	Extension uint8    `json:"extension"`
	Channels  uint8    `json:"channels"`
	Mode      uint8    `json:"mode"`
}

// SubtitleTrack is one row of the subtitle language table.
type SubtitleTrack struct {
	Language  Language `json:"language"`
	Extension uint8    `json:"extension"`
}

// TitleReset is the snapshot taken when playback enters a new title. Width
// and Height are zero when the aspect class is not recognised; consumers
// must then defer to the stream's own metadata.
type TitleReset struct {
	Header
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	VTS            int             `json:"vts"`
	Audio          []AudioTrack    `json:"audio"`
	Subtitles      []SubtitleTrack `json:"subtitles"`
	ActiveSubtitle int             `json:"active_subtitle"`
	Angle          int             `json:"angle"`
	MaxAngle       int             `json:"max_angle"`
	Duration       uint64          `json:"duration"`
}

func (TitleReset) Kind() Kind { return KindTitleReset }

// envelope is the line format written by JSONSink.
type envelope struct {
	Kind   Kind   `json:"kind"`
	Packet Packet `json:"packet"`
}

// Marshal encodes p with its kind tag.
func Marshal(p Packet) ([]byte, error) {
	return json.Marshal(envelope{Kind: p.Kind(), Packet: p})
}
