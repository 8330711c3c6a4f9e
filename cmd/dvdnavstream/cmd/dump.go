package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/javi11/dvdnavstream/internal/config"
	"github.com/javi11/dvdnavstream/internal/navstream"
	"github.com/javi11/dvdnavstream/internal/pathutil"
	"github.com/javi11/dvdnavstream/internal/sidechannel"
	"github.com/javi11/dvdnavstream/internal/slogutil"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

const stdio = "-"

var (
	dumpOutput  string
	dumpPackets string
	dumpForce   bool
)

func init() {
	dumpCmd := &cobra.Command{
		Use:   "dump <disc>",
		Short: "Stream a disc's payload to a file",
		Long: `Open a disc, play its longest title and write the payload to the output.
Side-channel packets are written as one JSON object per line to --packets,
or to side_channel.output from the config file when the flag is not set.`,
		Args: cobra.ExactArgs(1),
		RunE: runDump,
	}

	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", stdio, `payload destination, "-" for stdout`)
	dumpCmd.Flags().StringVar(&dumpPackets, "packets", "", `side-channel destination, "-" for stdout`)
	dumpCmd.Flags().BoolVarP(&dumpForce, "force", "f", false, "write the payload to stdout even when it is a terminal")

	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := slogutil.With(cmd.Context(), "disc", args[0])
	fs := afero.NewOsFs()

	packetsPath := dumpPackets
	if !cmd.Flags().Changed("packets") {
		packetsPath = a.cfg.SideChannel.Output
	}
	if dumpOutput == stdio && packetsPath == stdio {
		return errors.New("payload and side-channel packets cannot both go to stdout")
	}

	for _, target := range []struct{ path, kind string }{
		{dumpOutput, "output"},
		{packetsPath, "packets"},
	} {
		if target.path == stdio {
			continue
		}
		if err := pathutil.CheckFileDirectoryWritable(fs, target.path, target.kind); err != nil {
			return err
		}
	}

	out, err := openPayloadOutput(fs, dumpOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	packets, err := openPacketOutput(packetsPath, a.cfg.SideChannel, cmd.OutOrStdout())
	if err != nil {
		_ = out.Close()
		return err
	}
	defer func() {
		if cerr := closeAll(out, packets); cerr != nil {
			a.log.ErrorContext(ctx, "Failed to close dump outputs", "error", cerr)
		}
	}()

	// The queue waits for the writer rather than dropping, so a burst of
	// navigation events only slows the copy down.
	g, gctx := errgroup.WithContext(ctx)
	queue := sidechannel.NewQueueSink(gctx, a.cfg.SideChannel.Buffer)
	jsonl := sidechannel.NewJSONSink(packets)

	stream, err := navstream.Open(ctx, a.open, args[0], a.streamOptions(queue))
	if err != nil {
		return err
	}
	defer stream.Close()

	var written int64
	g.Go(func() error {
		defer queue.Close()
		n, err := io.Copy(out, stream)
		written = n
		if err != nil {
			return fmt.Errorf("failed to copy payload: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sidechannel.Drain(gctx, queue.C(), jsonl)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	qs := queue.Stats()
	a.log.InfoContext(ctx, "Dump complete",
		"title", stream.Title(),
		"bytes", written,
		"packets", jsonl.Written(),
		"packets_dropped", qs.Dropped)
	return nil
}

func openPayloadOutput(fs afero.Fs, path string, stdout io.Writer) (io.WriteCloser, error) {
	if path != stdio {
		f, err := fs.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output %s: %w", path, err)
		}
		return f, nil
	}

	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) && !dumpForce {
		return nil, errors.New("refusing to write disc payload to a terminal, use --output or --force")
	}
	return nopWriteCloser{stdout}, nil
}

// openPacketOutput returns the side-channel destination. An empty path
// discards packets; a file path is split into parts by lumberjack, and no
// part is ever pruned.
func openPacketOutput(path string, cfg config.SideChannelConfig, stdout io.Writer) (io.WriteCloser, error) {
	switch path {
	case "":
		return nopWriteCloser{io.Discard}, nil
	case stdio:
		return nopWriteCloser{stdout}, nil
	default:
		return &lumberjack.Logger{
			Filename: path,
			MaxSize:  cfg.MaxSizeMB,
		}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
