package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/javi11/dvdnavstream/internal/nav"
	"github.com/javi11/dvdnavstream/internal/navstream"
	"github.com/javi11/dvdnavstream/internal/sidechannel"
	"github.com/javi11/dvdnavstream/internal/slogutil"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "titles <disc>",
		Short: "List the titles of a disc",
		Long:  `List every title with its chapter count and duration. The title playback would start with is highlighted.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runTitles,
	})
}

func runTitles(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	path := strings.TrimPrefix(args[0], navstream.Prefix)
	ctx := slogutil.With(cmd.Context(), "disc", path)

	engine, err := nav.Open(nav.Type(a.cfg.Engine), path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer engine.Close()

	titles, err := navstream.ListTitles(ctx, engine, a.log)
	if err != nil {
		return err
	}
	selected := navstream.Longest(titles)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-6s %-9s %s\n", "TITLE", "CHAPTERS", "DURATION")
	for _, t := range titles {
		line := fmt.Sprintf("%-6d %-9d %s", t.Title, t.Chapters, formatTicks(t.Duration))
		if t.Title == selected {
			line = color.New(color.FgGreen, color.Bold).Sprint(line + "  *")
		}
		fmt.Fprintln(w, line)
	}

	if err := engine.TitlePlay(selected); err != nil {
		a.log.WarnContext(ctx, "Failed to start title playback", "title", selected, "error", err)
		return nil
	}
	printStreams(w, engine)
	return nil
}

// formatTicks renders a 90kHz tick count as a duration.
func formatTicks(ticks uint64) string {
	return (time.Duration(ticks) * time.Second / 90000).Round(time.Second).String()
}

func printStreams(w io.Writer, engine nav.Engine) {
	var audio []string
	for i := 0; i < sidechannel.MaxAudioLanguages; i++ {
		attr, err := engine.AudioAttr(i)
		if err != nil || attr.LangCode == 0 {
			break
		}
		audio = append(audio, describeLanguage(sidechannel.Language(attr.LangCode)))
	}

	var subs []string
	for i := 0; i < sidechannel.MaxSubtitleLanguages; i++ {
		attr, err := engine.SubtitleAttr(i)
		if err != nil || attr.LangCode == 0 {
			break
		}
		subs = append(subs, describeLanguage(sidechannel.Language(attr.LangCode)))
	}

	faint := color.New(color.Faint)
	fmt.Fprintf(w, "\n%s %s\n", faint.Sprint("audio:"), joinOrNone(audio))
	fmt.Fprintf(w, "%s %s\n", faint.Sprint("subtitles:"), joinOrNone(subs))
}

func describeLanguage(l sidechannel.Language) string {
	if name := l.Name(); name != l.String() {
		return fmt.Sprintf("%s (%s)", name, l)
	}
	return l.String()
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}
