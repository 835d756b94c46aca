package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-album/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "frames",
		Short: "List the available frames",
		Run:   runFrames,
	}

	RootCmd.AddCommand(cmd)
}

type frameView struct {
	Frame model.Frame `json:"frame"`
	model.FrameStyle
}

func runFrames(cmd *cobra.Command, args []string) {
	var views []frameView
	for _, f := range model.Frames {
		st, _ := f.Style()
		views = append(views, frameView{Frame: f, FrameStyle: st})
	}

	if textFormat() {
		for _, v := range views {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-8s %s  %s border, %s %s\n",
				v.Frame, v.Name, v.Color, v.Border, v.Icon, v.Emoji)
		}
		return
	}
	printJSON(cmd, views)
}
