package navstream

import (
	"github.com/javi11/dvdnavstream/internal/nav"
	"github.com/stretchr/testify/mock"
)

// MockEngine is a testify mock of nav.Engine.
type MockEngine struct {
	mock.Mock
}

var _ nav.Engine = (*MockEngine)(nil)

func (m *MockEngine) Close() error {
	return m.Called().Error(0)
}

func (m *MockEngine) SetReadAhead(enabled bool) error {
	return m.Called(enabled).Error(0)
}

func (m *MockEngine) SelectMenuLanguage(code string) error {
	return m.Called(code).Error(0)
}

func (m *MockEngine) SelectAudioLanguage(code string) error {
	return m.Called(code).Error(0)
}

func (m *MockEngine) SelectSubtitleLanguage(code string) error {
	return m.Called(code).Error(0)
}

func (m *MockEngine) SetPGCPositioning(enabled bool) error {
	return m.Called(enabled).Error(0)
}

func (m *MockEngine) NextBlock() (nav.Block, error) {
	args := m.Called()
	return args.Get(0).(nav.Block), args.Error(1)
}

func (m *MockEngine) ReleaseBlock(data []byte) error {
	return m.Called(data).Error(0)
}

func (m *MockEngine) TitleCount() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *MockEngine) DescribeTitle(title int) (nav.TitleInfo, error) {
	args := m.Called(title)
	return args.Get(0).(nav.TitleInfo), args.Error(1)
}

func (m *MockEngine) TitlePlay(title int) error {
	return m.Called(title).Error(0)
}

func (m *MockEngine) CurrentTitle() (int, int, error) {
	args := m.Called()
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockEngine) AudioAttr(stream int) (nav.AudioAttr, error) {
	args := m.Called(stream)
	return args.Get(0).(nav.AudioAttr), args.Error(1)
}

func (m *MockEngine) SubtitleAttr(stream int) (nav.SubtitleAttr, error) {
	args := m.Called(stream)
	return args.Get(0).(nav.SubtitleAttr), args.Error(1)
}

func (m *MockEngine) ActiveSubtitleStream() int {
	return m.Called().Int(0)
}

func (m *MockEngine) VideoResolution() (uint32, uint32, error) {
	args := m.Called()
	return args.Get(0).(uint32), args.Get(1).(uint32), args.Error(2)
}

func (m *MockEngine) VideoAspect() uint8 {
	return m.Called().Get(0).(uint8)
}

func (m *MockEngine) AngleInfo() (int, int, error) {
	args := m.Called()
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockEngine) CurrentNav() *nav.NavContext {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*nav.NavContext)
}

func (m *MockEngine) CurrentTime() int64 {
	return m.Called().Get(0).(int64)
}

func (m *MockEngine) ButtonActivate(pci *nav.NavContext, button int) error {
	return m.Called(pci, button).Error(0)
}

func (m *MockEngine) WaitSkip() error {
	return m.Called().Error(0)
}

func (m *MockEngine) Position() (uint32, uint32, error) {
	args := m.Called()
	return args.Get(0).(uint32), args.Get(1).(uint32), args.Error(2)
}

func (m *MockEngine) SectorSeek(sector int64, whence int) error {
	return m.Called(sector, whence).Error(0)
}

// expectOpen sets up the configuration calls Open makes, with one title per
// duration.
func expectOpen(m *MockEngine, durations ...uint64) {
	m.On("SetReadAhead", true).Return(nil).Once()
	m.On("SelectMenuLanguage", "en").Return(nil).Once()
	m.On("SelectAudioLanguage", "en").Return(nil).Once()
	m.On("SelectSubtitleLanguage", "en").Return(nil).Once()
	m.On("SetPGCPositioning", false).Return(nil).Once()
	m.On("TitleCount").Return(len(durations), nil).Once()
	for i, d := range durations {
		m.On("DescribeTitle", i+1).Return(nav.TitleInfo{Duration: d, ChapterTimes: []uint64{d}}, nil).Once()
	}
}

func opener(e nav.Engine) nav.Opener {
	return func(string) (nav.Engine, error) { return e, nil }
}
