package navstream

import (
	"github.com/javi11/dvdnavstream/internal/nav"
	"github.com/javi11/dvdnavstream/internal/sidechannel"
)

// Aspect classes reported by Engine.VideoAspect.
const (
	aspect4x3  = 0
	aspect16x9 = 3
)

// stillInfinite is the still length meaning "until the user acts".
const stillInfinite = 0xff

// builder turns engine events into side-channel packets. A false second
// return means the event produces no packet.
type builder struct {
	engine nav.Engine
}

func (b builder) build(kind Kind, blk nav.Block) (sidechannel.Packet, bool) {
	switch kind {
	case KindNavPacket:
		return b.buttonList()
	case KindHighlight:
		return b.highlight(blk.Highlight), true
	case KindPaletteChange:
		return b.palette(blk.Palette), true
	case KindStillFrame:
		return b.wait(blk.Still.Length), true
	case KindWait:
		return b.wait(blk.Wait.Length), true
	case KindTitleChange:
		return b.titleReset(blk.VTSChange)
	default:
		return nil, false
	}
}

func (b builder) header() sidechannel.Header {
	return sidechannel.Header{PTS: b.engine.CurrentTime()}
}

// buttonList copies the button table of the current navigation packet. A
// menu with no buttons yields no packet.
func (b builder) buttonList() (sidechannel.Packet, bool) {
	pci := b.engine.CurrentNav()
	if pci == nil || pci.ButtonCount <= 0 {
		return nil, false
	}

	count := min(pci.ButtonCount, sidechannel.MaxButtons, len(pci.Buttons))
	p := &sidechannel.ButtonList{
		Header:  b.header(),
		Buttons: make([]sidechannel.Button, count),
	}
	for i, btn := range pci.Buttons[:count] {
		p.Buttons[i] = sidechannel.Button{
			X: btn.XStart,
			Y: btn.YStart,
			W: span(btn.XStart, btn.XEnd),
			H: span(btn.YStart, btn.YEnd),
		}
	}
	return p, true
}

func span(start, end uint16) uint16 {
	if end < start {
		return 0
	}
	return end - start
}

// highlight converts the engine's 1-based button number, where 0 means
// none, to a 0-based index clamped at 0.
func (b builder) highlight(ev nav.HighlightEvent) sidechannel.Packet {
	idx := 0
	if ev.Button > 0 {
		idx = int(ev.Button) - 1
	}
	return &sidechannel.HighlightChange{Header: b.header(), Index: idx}
}

func (b builder) palette(clut nav.Palette) sidechannel.Packet {
	return &sidechannel.PaletteChange{Header: b.header(), Palette: clut}
}

func (b builder) wait(length uint32) sidechannel.Packet {
	return &sidechannel.WaitCue{Header: b.header(), Duration: length}
}

// titleReset snapshots title metadata when playback enters the title VOBs.
// Each query failure leaves its fields zero instead of dropping the packet.
func (b builder) titleReset(ev nav.VTSChangeEvent) (sidechannel.Packet, bool) {
	if ev.NewDomain != nav.DomainTitleVOBs {
		return nil, false
	}

	p := &sidechannel.TitleReset{
		Header: b.header(),
		VTS:    ev.NewVTS,
	}

	w, h, err := b.engine.VideoResolution()
	if err != nil {
		w, h = 0, 0
	}
	p.Width, p.Height = displaySize(b.engine.VideoAspect(), w, h)

	p.Audio = b.audioTable()
	p.Subtitles = b.subtitleTable()
	p.ActiveSubtitle = b.engine.ActiveSubtitleStream()

	if title, _, err := b.engine.CurrentTitle(); err == nil {
		if info, err := b.engine.DescribeTitle(title); err == nil {
			p.Duration = info.Duration
		}
	}

	if cur, maxAngle, err := b.engine.AngleInfo(); err == nil {
		p.Angle = cur
		p.MaxAngle = maxAngle
	}

	return p, true
}

// displaySize scales the raw resolution by the aspect class: 4:3 yields
// (3w, 4h), 16:9 yields (9w, 16h), anything else is unknown.
func displaySize(aspect uint8, w, h uint32) (int, int) {
	switch aspect {
	case aspect4x3:
		return 3 * int(w), 4 * int(h)
	case aspect16x9:
		return 9 * int(w), 16 * int(h)
	default:
		return 0, 0
	}
}

// audioTable reads audio attributes until the first null language code.
// The terminating entry is kept and counted.
func (b builder) audioTable() []sidechannel.AudioTrack {
	tracks := make([]sidechannel.AudioTrack, 0, sidechannel.MaxAudioLanguages)
	for i := 0; i < sidechannel.MaxAudioLanguages; i++ {
		attr, err := b.engine.AudioAttr(i)
		if err != nil {
			break
		}
		tracks = append(tracks, sidechannel.AudioTrack{
			Language:  sidechannel.Language(attr.LangCode),
			Extension: attr.CodeExtension,
			Channels:  attr.Channels,
			Mode:      attr.ApplicationMode,
		})
		if attr.LangCode == 0 {
			break
		}
	}
	return tracks
}

// subtitleTable reads subpicture attributes until the first null language
// code. Unlike audioTable the terminating entry is not counted.
func (b builder) subtitleTable() []sidechannel.SubtitleTrack {
	tracks := make([]sidechannel.SubtitleTrack, 0, sidechannel.MaxSubtitleLanguages)
	for i := 0; i < sidechannel.MaxSubtitleLanguages; i++ {
		attr, err := b.engine.SubtitleAttr(i)
		if err != nil || attr.LangCode == 0 {
			break
		}
		tracks = append(tracks, sidechannel.SubtitleTrack{
			Language:  sidechannel.Language(attr.LangCode),
			Extension: attr.CodeExtension,
		})
	}
	return tracks
}
