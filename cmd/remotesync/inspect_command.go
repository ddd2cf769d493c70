package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"remotesync/internal/inspect"
	"remotesync/internal/session"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var asTable bool
	var wait bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the state of every shared object",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				var rendered string
				var err error
				if asTable {
					rendered, err = inspect.RenderTable(peer, inspect.TableOptions{Color: shouldColorize(out)})
				} else {
					rendered, err = inspect.Render(peer)
				}
				if err != nil {
					return err
				}
				if rendered == "" {
					fmt.Fprintln(out, "No shared objects")
					return nil
				}
				fmt.Fprintln(out, rendered)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&asTable, "table", "t", false, "Render as a table")
	addWaitFlag(cmd, &wait)
	return cmd
}

func addWaitFlag(cmd *cobra.Command, wait *bool) {
	cmd.Flags().BoolVarP(wait, "wait", "w", false, "Retry until the host is reachable (up to peer.wait_timeout)")
}
