// Package cli implements the memory-album CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-album/internal/config"
	"github.com/rcliao/memory-album/internal/notify"
	"github.com/rcliao/memory-album/internal/store"
)

var (
	dbPath     string
	formatFlag string

	cfg *config.Config
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memory-album",
	Short: "A photo album of shared memories",
	Long:  "Keep photos, a song and a yearly anniversary reminder for every memory. SQLite-backed, single binary.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		c, err := config.New()
		if err != nil {
			exitErr("load config", err)
		}
		if dbPath != "" {
			c.DBPath = dbPath
		}
		cfg = c
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $MEMORY_ALBUM_DB or ~/.memory-album/album.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if cfg != nil {
		return cfg.DBPath
	}
	c, err := config.New()
	if err != nil {
		exitErr("load config", err)
	}
	return c.DBPath
}

// app wires the album to its storage and reminder scheduler.
type app struct {
	blobs    *store.SQLiteBlobs
	reminder *notify.LocalScheduler
	album    *store.Album
}

func openApp(ctx context.Context) (*app, error) {
	blobs, err := store.NewSQLiteBlobs(getDBPath())
	if err != nil {
		return nil, err
	}

	local, err := notify.NewLocalScheduler(blobs.DB())
	if err != nil {
		blobs.Close()
		return nil, err
	}

	opts := []store.Option{}
	if cfg != nil {
		opts = append(opts, store.WithReminderTime(cfg.ReminderHour, cfg.ReminderMinute))
	}

	var sched notify.Scheduler
	if cfg == nil || cfg.Notifications {
		sched = notify.NewDefaultBreakerScheduler(local)
	} else {
		log.Debug().Msg("notifications disabled")
	}

	album := store.NewAlbum(blobs, sched, opts...)
	album.Load(ctx)
	return &app{blobs: blobs, reminder: local, album: album}, nil
}

func (a *app) Close() error {
	return a.blobs.Close()
}

func textFormat() bool {
	return formatFlag == "text"
}

func printJSON(cmd *cobra.Command, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
