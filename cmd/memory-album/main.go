package main

import (
	"os"

	"github.com/rcliao/memory-album/internal/cli"
	"github.com/rcliao/memory-album/internal/config"
)

func main() {
	config.InitLogger()
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
