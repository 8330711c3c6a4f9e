package navstream

import "github.com/javi11/dvdnavstream/internal/nav"

// Kind is the adapter's closed classification of engine events.
type Kind uint8

const (
	KindData Kind = iota
	KindNavPacket
	KindHighlight
	KindPaletteChange
	KindStillFrame
	KindWait
	KindTitleChange
	KindCellChange
	KindAudioStreamChange
	KindSubtitleStreamChange
	KindChannelHop
	KindNoOp
	KindTerminal

	numKinds
)

var kindNames = [numKinds]string{
	KindData:                 "data",
	KindNavPacket:            "nav_packet",
	KindHighlight:            "highlight",
	KindPaletteChange:        "palette_change",
	KindStillFrame:           "still_frame",
	KindWait:                 "wait",
	KindTitleChange:          "title_change",
	KindCellChange:           "cell_change",
	KindAudioStreamChange:    "audio_stream_change",
	KindSubtitleStreamChange: "subtitle_stream_change",
	KindChannelHop:           "channel_hop",
	KindNoOp:                 "noop",
	KindTerminal:             "terminal",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return "invalid"
}

// Classify maps a raw engine event onto a Kind. Every code has a
// classification: unassigned codes are KindNoOp, and only EventStop ends
// the stream.
func Classify(e nav.Event) Kind {
	switch e {
	case nav.EventBlockOK:
		return KindData
	case nav.EventNavPacket:
		return KindNavPacket
	case nav.EventHighlight:
		return KindHighlight
	case nav.EventSPUCLUTChange:
		return KindPaletteChange
	case nav.EventStillFrame:
		return KindStillFrame
	case nav.EventWait:
		return KindWait
	case nav.EventVTSChange:
		return KindTitleChange
	case nav.EventCellChange:
		return KindCellChange
	case nav.EventAudioStreamChange:
		return KindAudioStreamChange
	case nav.EventSPUStreamChange:
		return KindSubtitleStreamChange
	case nav.EventHopChannel:
		return KindChannelHop
	case nav.EventStop:
		return KindTerminal
	case nav.EventNOP:
		return KindNoOp
	default:
		return KindNoOp
	}
}
