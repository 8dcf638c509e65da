// Command tabedit applies column operations and recipes to CSV and Excel
// files from the command line, or serves the web editor.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabedit/internal/logging"
)

const (
	appName    = "tabedit"
	appVersion = "0.1.0"
)

var (
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:           appName,
		Short:         "Column transformation editor for CSV and Excel files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// stdout carries command output; logs go to stderr.
			slog.SetDefault(logging.New(os.Stderr, logLevel, logFormat))
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(applyCmd, recipeCmd, previewCmd, profileCmd, serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("error:", err)
		os.Exit(1)
	}
}
