package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-album/internal/collab"
	"github.com/rcliao/memory-album/internal/model"
	"github.com/rcliao/memory-album/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a memory",
		Long:  "Edit a memory's fields. Only the flags given are changed; the date and reminder stay as they were.",
		Args:  cobra.ExactArgs(1),
		Run:   runUpdate,
	}

	cmd.Flags().String("event", "", "New event name")
	cmd.Flags().String("description", "", "New description")
	cmd.Flags().String("frame", "", "New frame")
	cmd.Flags().StringArrayP("image", "i", nil, "Replace the images (repeatable)")
	cmd.Flags().StringArray("adjust", nil, "Replace the adjustments scale,x,y (repeatable)")
	cmd.Flags().Bool("clear-adjust", false, "Reset every image to no adjustment")
	cmd.Flags().String("song", "", "New background song file")
	cmd.Flags().String("song-name", "", "Song display name (default: file name)")
	cmd.Flags().Bool("clear-song", false, "Remove the background song")

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	flags := cmd.Flags()
	ctx := cmd.Context()
	var p store.Patch

	if flags.Changed("event") {
		v, _ := flags.GetString("event")
		p.EventName = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		p.Description = &v
	}
	if flags.Changed("frame") {
		v, _ := flags.GetString("frame")
		frame, err := model.ParseFrame(v)
		if err != nil {
			exitErr("update", err)
		}
		p.Frame = &frame
	}
	if flags.Changed("image") {
		images, _ := flags.GetStringArray("image")
		picked, err := collab.FilePicker{Images: images}.PickImages(ctx)
		if err != nil {
			exitErr("update", err)
		}
		p.ImageURIs = make([]string, len(picked))
		for i, a := range picked {
			p.ImageURIs[i] = a.URI
		}
	}
	if reset, _ := flags.GetBool("clear-adjust"); reset {
		p.Adjustments = []model.Adjustment{}
	} else if flags.Changed("adjust") {
		raw, _ := flags.GetStringArray("adjust")
		adj, err := parseAdjustments(raw)
		if err != nil {
			exitErr("update", err)
		}
		p.Adjustments = adj
	}
	if reset, _ := flags.GetBool("clear-song"); reset {
		p.ClearSong = true
	} else if flags.Changed("song") {
		path, _ := flags.GetString("song")
		name, _ := flags.GetString("song-name")
		song, err := pickSong(cmd, collab.FilePicker{Audio: path}, name)
		if err != nil {
			exitErr("update", err)
		}
		p.Song = song
	}

	a, err := openApp(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	mem, err := a.album.Update(ctx, args[0], p)
	if err != nil {
		exitErr("update", err)
	}
	if mem == nil {
		exitErr("update", fmt.Errorf("memory %s not found", args[0]))
	}

	if textFormat() {
		writeMemoryLine(cmd.OutOrStdout(), *mem)
		return
	}
	printJSON(cmd, mem)
}
