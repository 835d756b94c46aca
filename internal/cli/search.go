package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-album/internal/model"
	"github.com/rcliao/memory-album/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories by keyword",
		Long:  "Search event names and descriptions for matching text.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("frame", "", "Filter by frame")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	frameStr, _ := cmd.Flags().GetString("frame")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	var frame model.Frame
	if frameStr != "" {
		f, err := model.ParseFrame(frameStr)
		if err != nil {
			exitErr("search", err)
		}
		frame = f
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	results := a.album.Search(store.SearchParams{Query: query, Frame: frame, Limit: limit})

	if textFormat() {
		for _, m := range results {
			writeMemoryLine(cmd.OutOrStdout(), m)
		}
		return
	}
	if len(results) == 0 {
		cmd.OutOrStdout().Write([]byte("[]\n"))
		return
	}
	printJSON(cmd, results)
}
