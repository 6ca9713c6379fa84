// Package main provides the eventsink service: it consumes events from Kafka,
// serializes them into wide-column mutations and applies them to MongoDB.
//
// Usage:
//
//	eventsink run --config configs/config.yaml
//	eventsink replay --config configs/config.yaml --file events.ndjson
package main

import (
	"fmt"
	"os"

	"github.com/Sokol111/eventsink/pkg/core/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "eventsink",
		Short:        "Serialize events into wide-column mutations",
		Version:      config.Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (defaults to CONFIG_FILE)")

	rootCmd.AddCommand(
		newRunCmd(&configPath),
		newReplayCmd(&configPath),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Version)
		},
	}
}
