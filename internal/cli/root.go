// Package cli wires the groqpilot cobra commands.
package cli

import (
	"os"
	"time"

	"github.com/Himanshujchavan/GROQPILOT/internal/client"
	"github.com/spf13/cobra"
)

const defaultServer = "http://127.0.0.1:8000"

type rootOptions struct {
	configPath string
	server     string
	jsonOutput bool
	timeout    time.Duration
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.server, o.timeout)
}

// SetupCLI registers the global flags and every subcommand on rootCmd.
func SetupCLI(rootCmd *cobra.Command) {
	opts := &rootOptions{}
	server := os.Getenv("GROQPILOT_SERVER")
	if server == "" {
		server = defaultServer
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default ./config.yaml or $HOME/.groqpilot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", server, "GroqPilot API address for client commands")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP request timeout")

	rootCmd.SilenceUsage = true
	rootCmd.AddCommand(
		newServeCommand(opts),
		newRunCommand(opts),
		newSubmitCommand(opts),
		newWorkflowCommand(opts),
		newTasksCommand(opts),
		newScheduleCommand(opts),
		newMigrateCommand(opts),
	)
}
