package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/chefsync/backline/internal/entity"
	"github.com/chefsync/backline/internal/optimistic"
)

// OrdersService manages orders through the admin API.
type OrdersService struct {
	c *Client
}

// OrderListOptions filters an order listing. Zero values are omitted.
type OrderListOptions struct {
	Status entity.OrderStatus
	Search string
	Page   int
}

func (o OrderListOptions) query() url.Values {
	q := url.Values{}
	if o.Status != "" {
		q.Set("status", string(o.Status))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Page > 1 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	return q
}

// List fetches orders matching opts.
func (s *OrdersService) List(ctx context.Context, opts OrderListOptions) (ListPage[entity.Order], error) {
	raw, err := s.c.get(ctx, "orders/", opts.query())
	if err != nil {
		return ListPage[entity.Order]{}, err
	}
	return ParseList[entity.Order](raw)
}

// Get fetches one order by ID.
func (s *OrdersService) Get(ctx context.Context, id int64) (entity.Order, error) {
	var o entity.Order
	err := s.c.getJSON(ctx, fmt.Sprintf("orders/%d/", id), nil, &o)
	return o, err
}

// SetStatus returns the confirm for moving an order to a new fulfillment
// status. The target status is validated here so an impossible value is
// never rendered optimistically.
func (s *OrdersService) SetStatus(o entity.Order, status entity.OrderStatus) (optimistic.ConfirmFunc, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown order status %q", status)
	}
	path := fmt.Sprintf("orders/%d/", o.ID)
	body := map[string]any{"status": string(status)}
	return func(ctx context.Context) error {
		return s.c.patch(ctx, path, body)
	}, nil
}
