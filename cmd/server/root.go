package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	addr       string
	logLevel   string
	withCaller bool
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "VibeMind Solutions assistant API",
	Long: `Serves POST /api/generate as a server-sent event stream and the
conversation history endpoints. Configuration comes from the environment
(DATABASE_URL, AI_PROVIDER, OPENAI_API_KEY, ...); flags override it.`,
	SilenceUsage: true,
	RunE:         runServer,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	rootCmd.Flags().BoolVar(&withCaller, "with-caller", false, "add file:line to log lines")
}
