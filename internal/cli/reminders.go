package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-album/internal/notify"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Manage anniversary reminders",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled reminders",
		Run:   runRemindersList,
	}

	dueCmd := &cobra.Command{
		Use:   "due",
		Short: "Print reminders that have fired and move them to next year",
		Run:   runRemindersDue,
	}

	permCmd := &cobra.Command{
		Use:   "permission [granted|denied]",
		Short: "Show or set the notification permission",
		Args:  cobra.MaximumNArgs(1),
		Run:   runRemindersPermission,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Cancel every reminder; memories are kept",
		Run:   runRemindersClear,
	}

	cmd.AddCommand(listCmd, dueCmd, permCmd, clearCmd)
	RootCmd.AddCommand(cmd)
}

func runRemindersList(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	scheduled, err := a.reminder.ListScheduled(cmd.Context())
	if err != nil {
		exitErr("list reminders", err)
	}
	writeReminders(cmd, scheduled)
}

func runRemindersDue(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	due, err := a.reminder.Due(cmd.Context(), time.Now())
	if err != nil {
		exitErr("due reminders", err)
	}
	writeReminders(cmd, due)
}

func runRemindersPermission(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	ctx := cmd.Context()
	if len(args) == 1 {
		p := notify.Permission(args[0])
		if p != notify.PermissionGranted && p != notify.PermissionDenied {
			exitErr("permission", fmt.Errorf("want granted or denied, got %q", args[0]))
		}
		if err := a.reminder.SetPermission(ctx, p); err != nil {
			exitErr("permission", err)
		}
	}

	p, err := a.reminder.Permission(ctx)
	if err != nil {
		exitErr("permission", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"permission":%q}`+"\n", p)
}

func runRemindersClear(cmd *cobra.Command, args []string) {
	a, err := openApp(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	ctx := cmd.Context()
	unbound := a.album.ClearReminders(ctx)
	// Also drops reminders left behind while notifications were disabled.
	if err := a.reminder.CancelAll(ctx); err != nil {
		exitErr("clear reminders", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"cleared":%d}`+"\n", unbound)
}

func writeReminders(cmd *cobra.Command, rs []notify.Scheduled) {
	if textFormat() {
		writeReminderLines(cmd.OutOrStdout(), rs, time.Now())
		return
	}
	if rs == nil {
		rs = []notify.Scheduled{}
	}
	printJSON(cmd, rs)
}

func writeReminderLines(w io.Writer, rs []notify.Scheduled, now time.Time) {
	for _, r := range rs {
		fmt.Fprintf(w, "%s  %s  %s (%s)\n",
			r.NextFire.Local().Format("2006-01-02 15:04"), r.Title,
			humanize.RelTime(r.NextFire, now, "ago", "from now"), r.MemoryID)
	}
}
