// VoxMate is a rule-based Spanish voice command assistant. It runs as a
// daemon answering utterances over HTTP, WebSocket, gRPC and NATS, or as a
// local one-shot/interactive CLI.
//
// Usage:
//
//	voxmate serve [--config /path/to/voxmate.yaml]
//	voxmate ask ¿qué hora es?
//	voxmate chat
//
// @title       VoxMate API
// @version     1.0
// @description Rule-based Spanish voice command interpreter.
// @BasePath    /
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "voxmate",
		Short: "Rule-based Spanish voice command assistant",
		Long: `VoxMate answers short Spanish commands: greetings, time and date,
arithmetic, unit conversions, jokes, random numbers and remembering your name.

Run "voxmate serve" for the daemon or "voxmate chat" to talk to it locally.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (e.g. configs/voxmate.yaml)")

	cmd.AddCommand(
		serveCmd(&configPath),
		askCmd(&configPath),
		chatCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "voxmate %s\n", version)
			},
		},
	)
	return cmd
}

// quietLogging keeps CLI output clean: only warnings and errors, on stderr.
func quietLogging() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
}
