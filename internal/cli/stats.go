package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show album statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	stats := a.album.Stats(a.blobs.Path())

	if textFormat() {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Database:   %s (%s)\n", stats.DBPath, humanize.Bytes(uint64(stats.DBSizeBytes)))
		fmt.Fprintf(w, "Memories:   %s\n", humanize.Comma(int64(stats.TotalMemories)))
		fmt.Fprintf(w, "Photos:     %s (%d adjusted)\n", humanize.Comma(int64(stats.TotalImages)), stats.AdjustedImages)
		fmt.Fprintf(w, "With song:  %d\n", stats.WithSong)
		fmt.Fprintf(w, "Reminders:  %d\n", stats.WithReminder)
		for _, f := range stats.Frames {
			fmt.Fprintf(w, "  %-8s %d\n", f.Frame, f.Count)
		}
		return
	}
	printJSON(cmd, stats)
}
