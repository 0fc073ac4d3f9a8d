package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "ema-link",
		Short: "Talk to a remote voice agent from the terminal",
		Long: `ema-link streams microphone audio to a remote voice agent and plays the
spoken replies back locally.

Press s to start talking, p to stop and q to quit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "write debug logs to ema-link.log")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newSchemaCmd())

	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
