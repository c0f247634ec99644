package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dormwatch",
	Short: "A live access-control display for a camera-monitored space",
	Long: `Dormwatch samples a camera feed, sends frames to a remote face-matching
service and decides, frame by frame, whether the monitored space currently
contains at least one recognized, authorized occupant. It serves monitor
controls, the room directory and a live state stream over HTTP.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
