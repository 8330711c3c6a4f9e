// Package replay is a navigation engine that plays back a scripted disc
// described in YAML: its titles, stream attributes and the sequence of
// blocks and navigation events the disc emits.
package replay

import (
	"errors"
	"fmt"

	"github.com/javi11/dvdnavstream/internal/nav"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const defaultBuffers = 4

// Script is the YAML description of a disc.
type Script struct {
	Titles         []TitleScript    `yaml:"titles"`
	Video          VideoScript      `yaml:"video"`
	Audio          []AudioScript    `yaml:"audio"`
	Subtitles      []SubtitleScript `yaml:"subtitles"`
	ActiveSubtitle int              `yaml:"active_subtitle"`
	Angle          AngleScript      `yaml:"angle"`
	Events         []EventScript    `yaml:"events"`
	// Buffers is the size of the read-ahead ring.
	Buffers int `yaml:"buffers"`
}

// TitleScript lists chapter lengths in 90kHz ticks.
type TitleScript struct {
	Chapters []uint64 `yaml:"chapters"`
}

type VideoScript struct {
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
	Aspect uint8  `yaml:"aspect"`
}

type AudioScript struct {
	Lang      string `yaml:"lang"`
	Extension uint8  `yaml:"extension"`
	Channels  uint8  `yaml:"channels"`
	Mode      uint8  `yaml:"mode"`
}

type SubtitleScript struct {
	Lang      string `yaml:"lang"`
	Extension uint8  `yaml:"extension"`
}

type AngleScript struct {
	Current int `yaml:"current"`
	Max     int `yaml:"max"`
}

type ButtonScript struct {
	X1 uint16 `yaml:"x1"`
	Y1 uint16 `yaml:"y1"`
	X2 uint16 `yaml:"x2"`
	Y2 uint16 `yaml:"y2"`
}

// EventScript is one entry of the event sequence. Event names are those of
// nav.Event.String; Code emits a raw code instead.
type EventScript struct {
	Event  string `yaml:"event"`
	Code   *uint8 `yaml:"code"`
	Time   *int64 `yaml:"time"`
	Repeat int    `yaml:"repeat"`

	// block
	Size int   `yaml:"size"`
	Fill *byte `yaml:"fill"`

	// still_frame, wait
	Length uint32 `yaml:"length"`

	// highlight
	Button uint32 `yaml:"button"`

	// nav_packet
	Buttons     []ButtonScript `yaml:"buttons"`
	ButtonCount *int           `yaml:"button_count"`

	// spu_clut_change
	Palette []uint32 `yaml:"palette"`

	// vts_change
	VTS    int    `yaml:"vts"`
	Domain string `yaml:"domain"`
	Title  int    `yaml:"title"`

	// audio_stream_change, spu_stream_change
	Stream int `yaml:"stream"`
}

// Load reads and parses a script from fsys.
func Load(fsys afero.Fs, path string) (*Script, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("replay: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("replay: parsing script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the script for entries the engine cannot play.
func (s *Script) Validate() error {
	var errs []error
	if len(s.Titles) == 0 {
		errs = append(errs, errors.New("at least one title is required"))
	}
	if s.Buffers < 0 {
		errs = append(errs, fmt.Errorf("buffers must be positive, got %d", s.Buffers))
	}
	for i, a := range s.Audio {
		if a.Lang != "" && len(a.Lang) != 2 {
			errs = append(errs, fmt.Errorf("audio[%d]: language %q must be two letters", i, a.Lang))
		}
	}
	for i, sub := range s.Subtitles {
		if sub.Lang != "" && len(sub.Lang) != 2 {
			errs = append(errs, fmt.Errorf("subtitles[%d]: language %q must be two letters", i, sub.Lang))
		}
	}
	for i, ev := range s.Events {
		if _, err := ev.event(); err != nil {
			errs = append(errs, fmt.Errorf("events[%d]: %w", i, err))
			continue
		}
		if ev.Size < 0 || ev.Size > nav.BlockSize {
			errs = append(errs, fmt.Errorf("events[%d]: block size %d out of range", i, ev.Size))
		}
		if len(ev.Palette) > len(nav.Palette{}) {
			errs = append(errs, fmt.Errorf("events[%d]: palette has %d entries", i, len(ev.Palette)))
		}
		if _, err := parseDomain(ev.Domain); err != nil {
			errs = append(errs, fmt.Errorf("events[%d]: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("replay: invalid script: %w", err)
	}
	return nil
}

func (ev EventScript) event() (nav.Event, error) {
	if ev.Code != nil {
		return nav.Event(*ev.Code), nil
	}
	if ev.Event == "block" {
		return nav.EventBlockOK, nil
	}
	e, ok := nav.ParseEvent(ev.Event)
	if !ok {
		return 0, fmt.Errorf("unknown event %q", ev.Event)
	}
	return e, nil
}

func parseDomain(s string) (nav.Domain, error) {
	switch s {
	case "", "title":
		return nav.DomainTitleVOBs, nil
	case "menu":
		return nav.DomainMenuVOBs, nil
	case "info":
		return nav.DomainInfoFile, nil
	case "backup":
		return nav.DomainInfoBackup, nil
	default:
		return 0, fmt.Errorf("unknown domain %q", s)
	}
}

func packLang(code string) uint16 {
	if len(code) != 2 {
		return 0
	}
	return uint16(code[0])<<8 | uint16(code[1])
}

// unit is one compiled step of the event sequence.
type unit struct {
	block nav.Block
	size  int
	fill  byte
	time  *int64
	nav   *nav.NavContext
	title int
}

// compile expands repeats and resolves every entry to a nav.Block.
func (s *Script) compile() ([]unit, error) {
	var units []unit
	sector := 0
	for i, ev := range s.Events {
		e, err := ev.event()
		if err != nil {
			return nil, fmt.Errorf("replay: events[%d]: %w", i, err)
		}
		domain, err := parseDomain(ev.Domain)
		if err != nil {
			return nil, fmt.Errorf("replay: events[%d]: %w", i, err)
		}

		repeat := max(ev.Repeat, 1)
		for r := 0; r < repeat; r++ {
			u := unit{
				block: nav.Block{Event: e},
				time:  ev.Time,
				title: ev.Title,
			}

			switch e {
			case nav.EventBlockOK:
				u.size = ev.Size
				if u.size == 0 {
					u.size = nav.BlockSize
				}
				if ev.Fill != nil {
					u.fill = *ev.Fill
				} else {
					u.fill = byte(sector)
				}
				sector++
			case nav.EventStillFrame:
				u.block.Still = nav.StillEvent{Length: ev.Length}
			case nav.EventWait:
				u.block.Wait = nav.WaitEvent{Length: ev.Length}
			case nav.EventHighlight:
				u.block.Highlight = nav.HighlightEvent{Display: 1, Button: ev.Button}
			case nav.EventSPUCLUTChange:
				copy(u.block.Palette[:], ev.Palette)
			case nav.EventVTSChange:
				u.block.VTSChange = nav.VTSChangeEvent{NewVTS: ev.VTS, NewDomain: domain}
			case nav.EventAudioStreamChange, nav.EventSPUStreamChange:
				u.block.Stream = nav.StreamChangeEvent{Physical: ev.Stream}
			case nav.EventNavPacket:
				u.nav = navContext(ev)
			}
			units = append(units, u)
		}
	}
	return units, nil
}

func navContext(ev EventScript) *nav.NavContext {
	pci := &nav.NavContext{
		ButtonCount: len(ev.Buttons),
		Buttons:     make([]nav.ButtonInfo, len(ev.Buttons)),
	}
	if ev.ButtonCount != nil {
		pci.ButtonCount = *ev.ButtonCount
	}
	for i, b := range ev.Buttons {
		pci.Buttons[i] = nav.ButtonInfo{XStart: b.X1, YStart: b.Y1, XEnd: b.X2, YEnd: b.Y2}
	}
	return pci
}
