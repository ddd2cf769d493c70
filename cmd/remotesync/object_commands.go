package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"remotesync/internal/session"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Put to and take from a shared queue",
	}

	var wait bool
	var timeout time.Duration
	var nowait bool

	putCmd := &cobra.Command{
		Use:   "put <name> <value>...",
		Short: "Append values to a queue",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				q, err := peer.Queue(args[0])
				if err != nil {
					return err
				}
				for _, arg := range args[1:] {
					value := parseValue(arg)
					switch {
					case nowait:
						err = q.PutNowait(value)
					case timeout > 0:
						err = q.PutTimeout(value, timeout)
					default:
						err = q.Put(value)
					}
					if err != nil {
						return fmt.Errorf("put %s: %w", args[0], err)
					}
				}
				return nil
			})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Remove and print the next value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				q, err := peer.Queue(args[0])
				if err != nil {
					return err
				}
				var value json.RawMessage
				switch {
				case nowait:
					err = q.GetNowait(&value)
				case timeout > 0:
					err = q.GetTimeout(&value, timeout)
				default:
					err = q.Get(&value)
				}
				if err != nil {
					return fmt.Errorf("get %s: %w", args[0], err)
				}
				printValue(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{putCmd, getCmd} {
		addWaitFlag(c, &wait)
		c.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0 blocks)")
		c.Flags().BoolVar(&nowait, "nowait", false, "Fail immediately instead of blocking")
		queueCmd.AddCommand(c)
	}
	return queueCmd
}

func newEventCommand(ctx *commandContext) *cobra.Command {
	eventCmd := &cobra.Command{
		Use:   "event",
		Short: "Set, clear, or wait on a shared event",
	}

	var wait bool
	var timeout time.Duration

	setCmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Set the flag and wake all waiters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				ev, err := peer.Event(args[0])
				if err != nil {
					return err
				}
				return ev.Set()
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <name>",
		Short: "Reset the flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				ev, err := peer.Event(args[0])
				if err != nil {
					return err
				}
				return ev.Clear()
			})
		},
	}

	waitCmd := &cobra.Command{
		Use:   "wait <name>",
		Short: "Block until the flag is set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				ev, err := peer.Event(args[0])
				if err != nil {
					return err
				}
				if timeout <= 0 {
					return ev.Wait()
				}
				set, err := ev.WaitTimeout(timeout)
				if err != nil {
					return err
				}
				if !set {
					return fmt.Errorf("event %s not set within %s", args[0], timeout)
				}
				return nil
			})
		},
	}
	waitCmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up after this long (0 blocks)")

	for _, c := range []*cobra.Command{setCmd, clearCmd, waitCmd} {
		addWaitFlag(c, &wait)
		eventCmd.AddCommand(c)
	}
	return eventCmd
}

func newDictCommand(ctx *commandContext) *cobra.Command {
	dictCmd := &cobra.Command{
		Use:   "dict",
		Short: "Read and write a shared dict",
	}

	var wait bool

	getCmd := &cobra.Command{
		Use:   "get <name> [key]",
		Short: "Print one value, or every entry when no key is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				d, err := peer.Dict(args[0])
				if err != nil {
					return err
				}
				if len(args) == 2 {
					var value json.RawMessage
					if err := d.Get(args[1], &value); err != nil {
						return fmt.Errorf("get %s[%s]: %w", args[0], args[1], err)
					}
					printValue(out, value)
					return nil
				}
				items, err := d.Items()
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "No entries")
					return nil
				}
				keys := make([]string, 0, len(items))
				for key := range items {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				rows := make([][]string, 0, len(keys))
				for _, key := range keys {
					rows = append(rows, []string{key, string(items[key])})
				}
				fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows, nil, shouldColorize(out)))
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <name> <key> <value>",
		Short: "Store a value under key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				d, err := peer.Dict(args[0])
				if err != nil {
					return err
				}
				return d.Set(args[1], parseValue(args[2]))
			})
		},
	}

	delCmd := &cobra.Command{
		Use:     "del <name> <key>",
		Aliases: []string{"delete"},
		Short:   "Remove a key",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				d, err := peer.Dict(args[0])
				if err != nil {
					return err
				}
				if err := d.Delete(args[1]); err != nil {
					return fmt.Errorf("delete %s[%s]: %w", args[0], args[1], err)
				}
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{getCmd, setCmd, delCmd} {
		addWaitFlag(c, &wait)
		dictCmd.AddCommand(c)
	}
	return dictCmd
}

func newCellCommand(ctx *commandContext) *cobra.Command {
	cellCmd := &cobra.Command{
		Use:   "cell",
		Short: "Read and write a shared value cell",
	}

	var wait bool

	getCmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Print the current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				c, err := peer.Cell(args[0])
				if err != nil {
					return err
				}
				var value json.RawMessage
				if err := c.Load(&value); err != nil {
					return err
				}
				printValue(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Replace the current value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				c, err := peer.Cell(args[0])
				if err != nil {
					return err
				}
				return c.Store(parseValue(args[1]))
			})
		},
	}

	for _, c := range []*cobra.Command{getCmd, setCmd} {
		addWaitFlag(c, &wait)
		cellCmd.AddCommand(c)
	}
	return cellCmd
}

func newLockCommand(ctx *commandContext) *cobra.Command {
	lockCmd := &cobra.Command{
		Use:   "lock",
		Short: "Work with a shared lock",
	}

	var wait bool
	var hold time.Duration
	var timeout time.Duration

	holdCmd := &cobra.Command{
		Use:   "hold <name>",
		Short: "Acquire the lock and keep it until interrupted or --for elapses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return ctx.withPeer(cmd, wait, func(peer *session.Session) error {
				if timeout > 0 {
					lock, err := peer.Lock(args[0])
					if err != nil {
						return err
					}
					ok, err := lock.AcquireTimeout(timeout)
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("lock %s not acquired within %s", args[0], timeout)
					}
					defer lock.Release()
					return holdUntilDone(cmd, out, args[0], hold)
				}
				scoped, err := peer.Scoped(args[0])
				if err != nil {
					return err
				}
				return scoped.With(func() error {
					return holdUntilDone(cmd, out, args[0], hold)
				})
			})
		},
	}
	addWaitFlag(holdCmd, &wait)
	holdCmd.Flags().DurationVar(&hold, "for", 0, "Release after this long (0 holds until interrupted)")
	holdCmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up acquiring after this long (0 blocks)")

	lockCmd.AddCommand(holdCmd)
	return lockCmd
}

func holdUntilDone(cmd *cobra.Command, out io.Writer, name string, hold time.Duration) error {
	fmt.Fprintf(out, "Holding %s\n", name)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if hold > 0 {
		timer := time.NewTimer(hold)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	} else {
		<-ctx.Done()
	}
	fmt.Fprintf(out, "Released %s\n", name)
	return nil
}
