package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-album/internal/audio"
)

func init() {
	cmd := &cobra.Command{
		Use:   "play <id|file>",
		Short: "Play a memory's song",
		Long:  "Play the background song of a memory (or an audio file) and report progress until it ends. Ctrl-C stops playback.",
		Args:  cobra.ExactArgs(1),
		Run:   runPlay,
	}

	cmd.Flags().Float64("seek", 0, "Start position in seconds")
	cmd.Flags().Duration("for", 0, "Stop after this long (0 = until the song ends)")

	RootCmd.AddCommand(cmd)
}

func runPlay(cmd *cobra.Command, args []string) {
	seek, _ := cmd.Flags().GetFloat64("seek")
	limit, _ := cmd.Flags().GetDuration("for")

	uri := resolveSongURI(cmd, args[0])

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	bitrate, interval := audio.DefaultBitrateKbps, 250*time.Millisecond
	if cfg != nil {
		bitrate, interval = cfg.BitrateKbps, cfg.PollInterval
	}
	session := audio.NewSession(audio.NewClockDriver(audio.WithBitrate(bitrate)))
	defer session.Stop(context.Background())

	if !session.Play(ctx, uri) {
		exitErr("play", fmt.Errorf("could not play %s", uri))
	}
	if seek > 0 {
		if _, ok := session.Seek(ctx, seek); !ok {
			log.Warn().Float64("seconds", seek).Msg("seek failed, playing from the start")
		}
	}

	out := cmd.OutOrStdout()
	session.Poll(ctx, interval, func(st audio.Status) {
		writeStatus(out, st)
	})
	if textFormat() {
		fmt.Fprintln(out)
	}
	log.Debug().Str("uri", uri).Msg("playback ended")
}

// resolveSongURI maps a memory id to its song; anything else is taken
// as an audio file path.
func resolveSongURI(cmd *cobra.Command, arg string) string {
	if _, err := os.Stat(arg); err == nil {
		return arg
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	mem, ok := a.album.Get(arg)
	if !ok {
		exitErr("play", fmt.Errorf("%s is neither a memory id nor a file", arg))
	}
	if mem.Song == nil {
		exitErr("play", fmt.Errorf("memory %s has no song", arg))
	}
	return mem.Song.URI
}

func writeStatus(w io.Writer, st audio.Status) {
	if textFormat() {
		state := "paused"
		switch {
		case st.DidJustFinish:
			state = "finished"
		case st.IsPlaying:
			state = "playing"
		}
		fmt.Fprintf(w, "\r%s / %s  %-8s", clockTime(st.PositionSeconds), clockTime(st.DurationSeconds), state)
		return
	}
	b, _ := json.Marshal(st)
	fmt.Fprintln(w, string(b))
}

// clockTime formats seconds as m:ss.
func clockTime(sec float64) string {
	s := int(sec)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
