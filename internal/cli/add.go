package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-album/internal/collab"
	"github.com/rcliao/memory-album/internal/model"
	"github.com/rcliao/memory-album/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [event name]",
		Short: "Add a memory",
		Long:  "Add a memory with one or more photos. A yearly reminder is scheduled for its date.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAdd,
	}

	cmd.Flags().StringArrayP("image", "i", nil, "Image file (repeatable, required)")
	cmd.Flags().String("description", "", "Free-text description")
	cmd.Flags().String("date", "", "Date of the memory, YYYY-MM-DD (default: today)")
	cmd.Flags().String("frame", "", "Frame: hearts, roses, classic, elegant, vintage")
	cmd.Flags().String("song", "", "Background song file")
	cmd.Flags().String("song-name", "", "Song display name (default: file name)")
	cmd.Flags().StringArray("adjust", nil, "Per-image adjustment scale,x,y (repeatable, in image order)")

	cmd.MarkFlagRequired("image")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	images, _ := cmd.Flags().GetStringArray("image")
	description, _ := cmd.Flags().GetString("description")
	dateStr, _ := cmd.Flags().GetString("date")
	frameStr, _ := cmd.Flags().GetString("frame")
	songPath, _ := cmd.Flags().GetString("song")
	songName, _ := cmd.Flags().GetString("song-name")
	adjustRaw, _ := cmd.Flags().GetStringArray("adjust")

	date, err := parseDate(dateStr)
	if err != nil {
		exitErr("add", err)
	}
	frame, err := model.ParseFrame(frameStr)
	if err != nil {
		exitErr("add", err)
	}
	adjustments, err := parseAdjustments(adjustRaw)
	if err != nil {
		exitErr("add", err)
	}

	ctx := cmd.Context()
	picker := collab.FilePicker{Images: images, Audio: songPath}
	picked, err := picker.PickImages(ctx)
	if err != nil {
		exitErr("add", err)
	}
	uris := make([]string, len(picked))
	for i, a := range picked {
		uris[i] = a.URI
	}
	song, err := pickSong(cmd, picker, songName)
	if err != nil {
		exitErr("add", err)
	}

	a, err := openApp(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	mem, err := a.album.Add(ctx, store.NewMemory{
		ImageURIs:   uris,
		EventName:   strings.Join(args, " "),
		Description: description,
		OccurredOn:  date,
		Frame:       frame,
		Song:        song,
		Adjustments: adjustments,
	})
	if err != nil {
		exitErr("add", err)
	}

	if textFormat() {
		writeMemoryLine(cmd.OutOrStdout(), *mem)
		return
	}
	printJSON(cmd, mem)
}

// pickSong resolves the song flag. It returns nil when no song was given.
func pickSong(cmd *cobra.Command, picker collab.Picker, name string) (*model.Song, error) {
	asset, err := picker.PickAudioFile(cmd.Context())
	if err != nil || asset == nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = asset.DisplayName
	}
	return &model.Song{URI: asset.URI, Name: name}, nil
}
