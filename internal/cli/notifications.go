package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chefsync/backline/internal/api"
	"github.com/chefsync/backline/internal/entity"
	"github.com/chefsync/backline/internal/optimistic"
)

// NewNotificationsCommand creates the notifications command family.
func NewNotificationsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Manage admin notifications",
	}

	var unreadOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			page, err := s.client.Notifications().List(cmd.Context(), api.NotificationListOptions{
				UnreadOnly: unreadOnly,
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "list notifications", err)
			}

			f := formatterFor(cmd, rootOpts)
			if f.JSON() {
				return f.Success(map[string]any{"notifications": page.Items, "total": page.Total})
			}
			w := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tREAD\tTITLE\tMESSAGE")
			for _, n := range page.Items {
				fmt.Fprintf(w, "%d\t%v\t%s\t%s\n", n.ID, n.Read, n.Title, n.Message)
			}
			w.Flush()
			return nil
		},
	}
	list.Flags().BoolVar(&unreadOnly, "unread", false, "only unread notifications")

	cmd.AddCommand(list)
	cmd.AddCommand(newNotificationEditCommand(rootOpts, "read", "Mark a notification read", false))
	cmd.AddCommand(newNotificationEditCommand(rootOpts, "remove", "Delete a notification", true))
	return cmd
}

func newNotificationEditCommand(rootOpts *RootOptions, verb, short string, remove bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <notification-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "notification id", err)
			}

			s, err := newSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx := cmd.Context()

			page, err := s.client.Notifications().List(ctx, api.NotificationListOptions{})
			if err != nil {
				return WrapExitError(ExitCommandError, "fetch notifications", err)
			}

			var current entity.Notification
			found := false
			for _, n := range page.Items {
				if n.ID == id {
					current, found = n, true
					break
				}
			}
			if !found {
				return NewExitError(ExitCommandError, fmt.Sprintf("no notification with id %d", id))
			}

			out, err := executeEdit(ctx, s, "notifications", page.Items, entity.Notification.Key, current,
				func(c *optimistic.Coordinator[int64, entity.Notification]) error {
					if remove {
						return c.Delete(ctx, current, s.client.Notifications().Remove(current))
					}
					next := current
					next.Read = true
					return c.Apply(ctx, current, next, s.client.Notifications().MarkRead(current))
				})
			if err != nil {
				return err
			}
			return reportEdit(formatterFor(cmd, rootOpts), out)
		},
	}
}
