package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"remotesync/internal/hostrun"
	"remotesync/internal/inspect"
	"remotesync/internal/session"
)

func newHostCommand(ctx *commandContext) *cobra.Command {
	var development bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Serve the configured objects until interrupted",
		Long: "Construct every [[objects]] entry, publish them on the configured\n" +
			"address, and write the session descriptor peers attach with.\n" +
			"The descriptor is removed again on SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return hostrun.Run(cmd.Context(), cfg, hostrun.Options{
				LogLevel:    ctx.logLevel(),
				Development: development,
				Ready: func(host *session.Session) {
					if quiet {
						return
					}
					desc := host.Descriptor()
					fmt.Fprintf(out, "Session %s serving %d objects on %s\n",
						desc.SessionID, len(desc.Objects), desc.Connection.Address())
					fmt.Fprintf(out, "Descriptor: %s\n", host.DescriptorPath())
					if summary, err := inspect.Render(host); err == nil && summary != "" {
						fmt.Fprintln(out, summary)
					}
				},
			})
		},
	}

	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log records")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the session summary on startup")
	return cmd
}
