package replay

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/javi11/dvdnavstream/internal/nav"
	"github.com/spf13/afero"
)

var (
	// ErrBlockLeased is returned by NextBlock while a previously returned
	// buffer has not been released.
	ErrBlockLeased = errors.New("replay: block requested while a buffer is still leased")
	// ErrNotLeased is returned when releasing a buffer the engine did not lend.
	ErrNotLeased = errors.New("replay: released buffer is not leased")
	ErrNoTitle   = errors.New("replay: no title is playing")
)

func init() {
	nav.Register(nav.Replay, Open)
}

// Open loads the script at path from the OS filesystem.
func Open(path string) (nav.Engine, error) {
	return OpenFs(afero.NewOsFs())(path)
}

// OpenFs returns an opener that loads scripts from fsys.
func OpenFs(fsys afero.Fs) nav.Opener {
	return func(path string) (nav.Engine, error) {
		s, err := Load(fsys, path)
		if err != nil {
			return nil, err
		}
		return New(s)
	}
}

// Engine plays back a Script. It lends buffers out of a fixed ring and
// holds at most one lease at a time.
type Engine struct {
	mu     sync.Mutex
	script *Script
	units  []unit
	// sectors maps each data block to its index in units.
	sectors []int

	ring     [][]byte
	next     int
	leased   []byte
	releases int

	cursor  int
	playing bool
	title   int
	part    int
	time    int64
	pci     *nav.NavContext
	closed  bool

	readAhead      bool
	pgcPositioning bool
	menuLang       string
	audioLang      string
	subtitleLang   string

	activated []int
	waitSkips int
}

var _ nav.Engine = (*Engine)(nil)

// New compiles s into a playable engine.
func New(s *Script) (*Engine, error) {
	units, err := s.compile()
	if err != nil {
		return nil, err
	}

	e := &Engine{script: s, units: units}
	for i, u := range units {
		if u.block.Event == nav.EventBlockOK {
			e.sectors = append(e.sectors, i)
		}
	}

	n := s.Buffers
	if n == 0 {
		n = defaultBuffers
	}
	e.ring = make([][]byte, n)
	for i := range e.ring {
		e.ring[i] = make([]byte, nav.BlockSize)
	}
	return e, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nav.ErrClosed
	}
	e.closed = true
	return nil
}

func (e *Engine) SetReadAhead(enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readAhead = enabled
	return nil
}

func (e *Engine) SetPGCPositioning(enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pgcPositioning = enabled
	return nil
}

func (e *Engine) SelectMenuLanguage(code string) error {
	return e.selectLanguage(&e.menuLang, code)
}

func (e *Engine) SelectAudioLanguage(code string) error {
	return e.selectLanguage(&e.audioLang, code)
}

func (e *Engine) SelectSubtitleLanguage(code string) error {
	return e.selectLanguage(&e.subtitleLang, code)
}

func (e *Engine) selectLanguage(dst *string, code string) error {
	if len(code) != 2 {
		return fmt.Errorf("replay: language code %q must be two letters", code)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	*dst = code
	return nil
}

// NextBlock returns the next scripted block. Data blocks are served out of
// the ring and stay leased until ReleaseBlock. The end of the script reads
// as a stop event.
func (e *Engine) NextBlock() (nav.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nav.Block{}, nav.ErrClosed
	}
	if e.leased != nil {
		return nav.Block{}, ErrBlockLeased
	}
	if e.cursor >= len(e.units) {
		return nav.Block{Event: nav.EventStop}, nil
	}

	u := e.units[e.cursor]
	e.cursor++

	if u.time != nil {
		e.time = *u.time
	}
	if u.nav != nil {
		e.pci = u.nav
	}
	if u.block.Event == nav.EventVTSChange && u.title > 0 {
		e.title, e.part = u.title, 1
		e.playing = true
	}

	blk := u.block
	if blk.Event == nav.EventBlockOK {
		buf := e.ring[e.next]
		e.next = (e.next + 1) % len(e.ring)
		for i := range buf[:u.size] {
			buf[i] = u.fill
		}
		blk.Data = buf[:u.size]
		e.leased = blk.Data
	}
	return blk, nil
}

func (e *Engine) ReleaseBlock(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.leased == nil || len(data) == 0 || &data[0] != &e.leased[0] {
		return ErrNotLeased
	}
	e.leased = nil
	e.releases++
	return nil
}

func (e *Engine) TitleCount() (int, error) {
	return len(e.script.Titles), nil
}

// DescribeTitle reports cumulative chapter end times and the total duration.
func (e *Engine) DescribeTitle(title int) (nav.TitleInfo, error) {
	if title < 1 || title > len(e.script.Titles) {
		return nav.TitleInfo{}, fmt.Errorf("replay: title %d: %w", title, nav.ErrNotFound)
	}
	var info nav.TitleInfo
	for _, c := range e.script.Titles[title-1].Chapters {
		info.Duration += c
		info.ChapterTimes = append(info.ChapterTimes, info.Duration)
	}
	return info, nil
}

func (e *Engine) TitlePlay(title int) error {
	if title < 1 || title > len(e.script.Titles) {
		return fmt.Errorf("replay: title %d: %w", title, nav.ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.title, e.part = title, 1
	e.playing = true
	return nil
}

func (e *Engine) CurrentTitle() (int, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		return 0, 0, ErrNoTitle
	}
	return e.title, e.part, nil
}

// AudioAttr reports zero attributes for unused slots of the stream table.
func (e *Engine) AudioAttr(stream int) (nav.AudioAttr, error) {
	if stream < 0 || stream >= 8 {
		return nav.AudioAttr{}, fmt.Errorf("replay: audio stream %d: %w", stream, nav.ErrNotFound)
	}
	if stream >= len(e.script.Audio) {
		return nav.AudioAttr{}, nil
	}
	a := e.script.Audio[stream]
	return nav.AudioAttr{
		LangCode:        packLang(a.Lang),
		CodeExtension:   a.Extension,
		Channels:        a.Channels,
		ApplicationMode: a.Mode,
	}, nil
}

func (e *Engine) SubtitleAttr(stream int) (nav.SubtitleAttr, error) {
	if stream < 0 || stream >= 32 {
		return nav.SubtitleAttr{}, fmt.Errorf("replay: subtitle stream %d: %w", stream, nav.ErrNotFound)
	}
	if stream >= len(e.script.Subtitles) {
		return nav.SubtitleAttr{}, nil
	}
	s := e.script.Subtitles[stream]
	return nav.SubtitleAttr{LangCode: packLang(s.Lang), CodeExtension: s.Extension}, nil
}

func (e *Engine) ActiveSubtitleStream() int {
	return e.script.ActiveSubtitle
}

func (e *Engine) VideoResolution() (uint32, uint32, error) {
	v := e.script.Video
	if v.Width == 0 || v.Height == 0 {
		return 0, 0, errors.New("replay: no video attributes")
	}
	return v.Width, v.Height, nil
}

func (e *Engine) VideoAspect() uint8 {
	return e.script.Video.Aspect
}

func (e *Engine) AngleInfo() (int, int, error) {
	a := e.script.Angle
	if a.Max == 0 {
		return 0, 0, errors.New("replay: no angle information")
	}
	return a.Current, a.Max, nil
}

func (e *Engine) CurrentNav() *nav.NavContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pci
}

func (e *Engine) CurrentTime() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.time
}

// ButtonActivate takes a 1-based button number.
func (e *Engine) ButtonActivate(pci *nav.NavContext, button int) error {
	if pci == nil {
		return errors.New("replay: no navigation context")
	}
	if button < 1 || button > pci.ButtonCount {
		return fmt.Errorf("replay: button %d: %w", button, nav.ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activated = append(e.activated, button)
	return nil
}

func (e *Engine) WaitSkip() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.waitSkips++
	return nil
}

// Position reports the index of the next data block and the number of
// data blocks in the script.
func (e *Engine) Position() (uint32, uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	length := uint32(len(e.sectors))
	if !e.playing {
		return nav.PositionUnknown, length, nil
	}
	return uint32(e.sectorAt(e.cursor)), length, nil
}

// sectorAt counts the data blocks before unit index i.
func (e *Engine) sectorAt(i int) int {
	n := 0
	for n < len(e.sectors) && e.sectors[n] < i {
		n++
	}
	return n
}

func (e *Engine) SectorSeek(sector int64, whence int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	length := int64(len(e.sectors))
	var target int64
	switch whence {
	case io.SeekStart:
		target = sector
	case io.SeekCurrent:
		target = int64(e.sectorAt(e.cursor)) + sector
	case io.SeekEnd:
		target = length + sector
	default:
		return fmt.Errorf("replay: invalid whence %d", whence)
	}
	if target < 0 || target > length {
		return fmt.Errorf("replay: sector %d out of range [0, %d]", target, length)
	}

	if target == length {
		e.cursor = len(e.units)
	} else {
		e.cursor = e.sectors[target]
	}
	return nil
}

// Released reports how many buffers have been returned to the ring.
func (e *Engine) Released() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.releases
}

// Leased reports whether a buffer is currently lent out.
func (e *Engine) Leased() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leased != nil
}

// Activated lists the 1-based buttons activated so far.
func (e *Engine) Activated() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.activated...)
}

func (e *Engine) WaitSkips() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.waitSkips
}

// Settings reports the configuration applied through the Set and Select
// calls.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Settings{
		ReadAhead:        e.readAhead,
		PGCPositioning:   e.pgcPositioning,
		MenuLanguage:     e.menuLang,
		AudioLanguage:    e.audioLang,
		SubtitleLanguage: e.subtitleLang,
	}
}

type Settings struct {
	ReadAhead        bool
	PGCPositioning   bool
	MenuLanguage     string
	AudioLanguage    string
	SubtitleLanguage string
}
