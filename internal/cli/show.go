package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-album/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one memory",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	mem, ok := a.album.Get(args[0])
	if !ok {
		exitErr("show", fmt.Errorf("memory %s not found", args[0]))
	}
	handle, _ := a.album.Binding(mem.ID)

	if textFormat() {
		writeMemoryDetail(cmd.OutOrStdout(), mem, handle)
		return
	}
	printJSON(cmd, shownMemory{Memory: mem, Reminder: handle})
}

type shownMemory struct {
	model.Memory
	Reminder string `json:"reminder,omitempty"`
}
