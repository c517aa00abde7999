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

// OrdersOptions holds flags for the orders command family.
type OrdersOptions struct {
	*RootOptions
	Status string
	Search string
	Page   int
}

// NewOrdersCommand creates the orders command and its subcommands.
func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrdersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage orders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrdersList(cmd, opts)
		},
	}
	list.Flags().StringVar(&opts.Status, "status", "", "filter by fulfillment status")
	list.Flags().StringVar(&opts.Search, "search", "", "search order number and customer")
	list.Flags().IntVar(&opts.Page, "page", 1, "result page")

	setStatus := &cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Move an order to a new fulfillment status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderSetStatus(cmd, rootOpts, args[0], args[1])
		},
	}

	cmd.AddCommand(list)
	cmd.AddCommand(setStatus)
	return cmd
}

func runOrdersList(cmd *cobra.Command, opts *OrdersOptions) error {
	if opts.Status != "" && !entity.OrderStatus(opts.Status).Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown order status %q", opts.Status))
	}

	s, err := newSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	page, err := s.client.Orders().List(cmd.Context(), api.OrderListOptions{
		Status: entity.OrderStatus(opts.Status),
		Search: opts.Search,
		Page:   opts.Page,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "list orders", err)
	}

	f := formatterFor(cmd, opts.RootOptions)
	if f.JSON() {
		return f.Success(map[string]any{"orders": page.Items, "total": page.Total})
	}

	w := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tSTATUS\tPAYMENT\tCUSTOMER\tTOTAL")
	for _, o := range page.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.OrderNumber, o.Status, o.PaymentStatus, o.CustomerName, o.TotalAmount)
	}
	w.Flush()
	fmt.Fprintf(f.Writer, "%d of %d orders\n", len(page.Items), page.Total)
	return nil
}

func runOrderSetStatus(cmd *cobra.Command, rootOpts *RootOptions, idArg, statusArg string) error {
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return WrapExitError(ExitCommandError, "order id", err)
	}
	status := entity.OrderStatus(statusArg)
	if !status.Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown order status %q", statusArg))
	}

	s, err := newSession(rootOpts)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := cmd.Context()

	page, err := s.client.Orders().List(ctx, api.OrderListOptions{})
	if err != nil {
		return WrapExitError(ExitCommandError, "fetch orders", err)
	}

	var current entity.Order
	found := false
	for _, o := range page.Items {
		if o.ID == id {
			current, found = o, true
			break
		}
	}
	if !found {
		return NewExitError(ExitCommandError, fmt.Sprintf("no order with id %d", id))
	}

	confirm, err := s.client.Orders().SetStatus(current, status)
	if err != nil {
		return WrapExitError(ExitCommandError, "refused", err)
	}

	out, err := executeEdit(ctx, s, "orders", page.Items, entity.Order.Key, current,
		func(c *optimistic.Coordinator[int64, entity.Order]) error {
			return c.Apply(ctx, current, current.WithStatus(status), confirm)
		})
	if err != nil {
		return err
	}
	return reportEdit(formatterFor(cmd, rootOpts), out)
}
