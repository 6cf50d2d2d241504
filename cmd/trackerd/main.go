package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/huntlink/logger"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "trackerd",
	Short: "LoRa hunt-tracker firmware core",
	Long: "trackerd runs the hunt-tracker firmware core: LoRa presence beacons,\n" +
		"the emergency gesture recognizer, and the server connectivity watchdog.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLevel(logger.ParseLevel(logLevel))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(swarmCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
