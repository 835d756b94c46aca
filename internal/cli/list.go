package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-album/internal/model"
	"github.com/rcliao/memory-album/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories, newest first",
		Run:   runList,
	}

	cmd.Flags().String("frame", "", "Filter by frame")
	cmd.Flags().IntP("limit", "l", 0, "Max results (0 = all)")
	cmd.Flags().Bool("ids-only", false, "Only output memory ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	frameStr, _ := cmd.Flags().GetString("frame")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	var memories []model.Memory
	if frameStr != "" {
		frame, err := model.ParseFrame(frameStr)
		if err != nil {
			exitErr("list", err)
		}
		memories = a.album.Search(store.SearchParams{Frame: frame, Limit: a.album.Len()})
	} else {
		memories = a.album.List()
	}
	if limit > 0 && len(memories) > limit {
		memories = memories[:limit]
	}

	out := cmd.OutOrStdout()
	switch {
	case idsOnly:
		for _, m := range memories {
			fmt.Fprintln(out, m.ID)
		}
	case textFormat():
		for _, m := range memories {
			writeMemoryLine(out, m)
		}
	default:
		if memories == nil {
			memories = []model.Memory{}
		}
		printJSON(cmd, memories)
	}
}
