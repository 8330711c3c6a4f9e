package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile string
	language   string

	rootCmd = &cobra.Command{
		Use:   "dvdnavstream",
		Short: "Read DVD discs as a plain byte stream",
		Long: `dvdnavstream plays a disc through a navigation engine and exposes the title payload
as a byte stream. Menu buttons, highlights, palettes, wait cues and title changes are
written to a separate side channel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./config.yaml, $HOME/.dvdnavstream/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&language, "language", "l", "", "two-letter language for menus, audio and subtitles")
}
