package navstream

import (
	"context"
	"log/slog"

	"github.com/javi11/dvdnavstream/internal/nav"
)

// TitleSummary describes one title of the disc.
type TitleSummary struct {
	Title    int
	Chapters int
	Duration uint64
}

// ListTitles describes titles 1 through the engine's title count. Titles
// whose description fails are skipped.
func ListTitles(ctx context.Context, engine nav.Engine, log *slog.Logger) ([]TitleSummary, error) {
	count, err := engine.TitleCount()
	if err != nil {
		return nil, engineErr("title count", ErrIOFailure, err)
	}

	titles := make([]TitleSummary, 0, count)
	for t := 1; t <= count; t++ {
		info, err := engine.DescribeTitle(t)
		if err != nil {
			log.DebugContext(ctx, "Failed to describe title", "title", t, "error", err)
			continue
		}
		log.DebugContext(ctx, "Title duration", "title", t, "duration", info.Duration)
		titles = append(titles, TitleSummary{
			Title:    t,
			Chapters: len(info.ChapterTimes),
			Duration: info.Duration,
		})
	}
	return titles, nil
}

// Longest returns the title with the strictly greatest duration; ties keep
// the earliest. Title 1 is returned when no title lasts longer than zero.
func Longest(titles []TitleSummary) int {
	best, bestDuration := 1, uint64(0)
	for _, t := range titles {
		if t.Duration > bestDuration {
			best, bestDuration = t.Title, t.Duration
		}
	}
	return best
}

// startPlayback picks the longest title and asks the engine to play it.
// Failures are logged only: the choice is a convenience default.
func (s *Stream) startPlayback(ctx context.Context) int {
	titles, err := ListTitles(ctx, s.engine, s.log)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to get number of titles", "error", err)
	}

	title := Longest(titles)
	s.log.InfoContext(ctx, "Selected title with maximum duration", "title", title)

	if err := s.engine.TitlePlay(title); err != nil {
		s.log.WarnContext(ctx, "Failed to start title playback", "title", title, "error", err)
	}
	return title
}
