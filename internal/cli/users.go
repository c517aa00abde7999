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

// UsersOptions holds flags for the users command family.
type UsersOptions struct {
	*RootOptions
	Role   string
	Status string
	Search string
	Page   int
}

// NewUsersCommand creates the users command and its subcommands.
func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UsersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage platform accounts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(cmd, opts)
		},
	}
	list.Flags().StringVar(&opts.Role, "role", "", "filter by role (customer|cook|delivery_agent|admin)")
	list.Flags().StringVar(&opts.Status, "status", "", "filter by approval status (pending|approved|rejected)")
	list.Flags().StringVar(&opts.Search, "search", "", "search name and email")
	list.Flags().IntVar(&opts.Page, "page", 1, "result page")

	cmd.AddCommand(list)
	cmd.AddCommand(newUserEditCommand(rootOpts, "activate", "Activate an account (approves pending cooks and agents)", true))
	cmd.AddCommand(newUserEditCommand(rootOpts, "deactivate", "Deactivate an account", false))
	cmd.AddCommand(newUserRemoveCommand(rootOpts))
	return cmd
}

func runUsersList(cmd *cobra.Command, opts *UsersOptions) error {
	if opts.Role != "" && !entity.Role(opts.Role).Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown role %q", opts.Role))
	}
	if opts.Status != "" && !entity.ApprovalStatus(opts.Status).Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown approval status %q", opts.Status))
	}

	s, err := newSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	page, err := s.client.Users().List(cmd.Context(), api.UserListOptions{
		Role:   entity.Role(opts.Role),
		Status: entity.ApprovalStatus(opts.Status),
		Search: opts.Search,
		Page:   opts.Page,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "list users", err)
	}

	f := formatterFor(cmd, opts.RootOptions)
	if f.JSON() {
		return f.Success(map[string]any{"users": page.Items, "total": page.Total})
	}

	w := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tSTATUS\tACTIVE\tEMAIL")
	for _, u := range page.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%v\t%s\n",
			u.ID, u.Name, u.Role, u.ApprovalStatus, u.Active, u.Email)
	}
	w.Flush()
	fmt.Fprintf(f.Writer, "%d of %d users\n", len(page.Items), page.Total)
	return nil
}

func newUserEditCommand(rootOpts *RootOptions, verb, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserSetActive(cmd, rootOpts, args[0], active)
		},
	}
}

func runUserSetActive(cmd *cobra.Command, rootOpts *RootOptions, arg string, active bool) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return WrapExitError(ExitCommandError, "user id", err)
	}

	s, err := newSession(rootOpts)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := cmd.Context()

	page, err := s.client.Users().List(ctx, api.UserListOptions{})
	if err != nil {
		return WrapExitError(ExitCommandError, "fetch users", err)
	}
	current, ok := findUser(page.Items, id)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("no user with id %d", id))
	}

	confirm, err := s.client.Users().SetActive(current, active)
	if err != nil {
		return WrapExitError(ExitFailure, "refused", err)
	}

	out, err := executeEdit(ctx, s, "users", page.Items, entity.User.Key, current,
		func(c *optimistic.Coordinator[int64, entity.User]) error {
			return c.Apply(ctx, current, current.WithActive(active), confirm)
		})
	if err != nil {
		return err
	}
	return reportEdit(formatterFor(cmd, rootOpts), out)
}

func newUserRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <user-id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "user id", err)
			}

			s, err := newSession(rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()
			ctx := cmd.Context()

			page, err := s.client.Users().List(ctx, api.UserListOptions{})
			if err != nil {
				return WrapExitError(ExitCommandError, "fetch users", err)
			}
			current, ok := findUser(page.Items, id)
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("no user with id %d", id))
			}

			confirm, err := s.client.Users().Remove(current)
			if err != nil {
				return WrapExitError(ExitFailure, "refused", err)
			}

			out, err := executeEdit(ctx, s, "users", page.Items, entity.User.Key, current,
				func(c *optimistic.Coordinator[int64, entity.User]) error {
					return c.Delete(ctx, current, confirm)
				})
			if err != nil {
				return err
			}
			return reportEdit(formatterFor(cmd, rootOpts), out)
		},
	}
}

func findUser(users []entity.User, id int64) (entity.User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return entity.User{}, false
}

// formatterFor builds an OutputFormatter bound to the command's streams.
func formatterFor(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
