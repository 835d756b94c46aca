package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-album/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List anniversaries coming up",
		Run:   runUpcoming,
	}

	cmd.Flags().Int("days", 30, "Look-ahead window in days")

	RootCmd.AddCommand(cmd)
}

func runUpcoming(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("days")

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	now := time.Now()
	upcoming := a.album.Upcoming(now, time.Duration(days)*24*time.Hour)

	if textFormat() {
		for _, an := range upcoming {
			writeAnniversary(cmd.OutOrStdout(), an, now)
		}
		return
	}
	if upcoming == nil {
		upcoming = []store.Anniversary{}
	}
	printJSON(cmd, upcoming)
}
