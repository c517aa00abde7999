package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/chefsync/backline/internal/entity"
	"github.com/chefsync/backline/internal/optimistic"
)

// NotificationsService manages admin notifications.
type NotificationsService struct {
	c *Client
}

// NotificationListOptions filters a notification listing.
type NotificationListOptions struct {
	UnreadOnly bool
	Page       int
}

func (o NotificationListOptions) query() url.Values {
	q := url.Values{}
	if o.UnreadOnly {
		q.Set("is_read", "false")
	}
	if o.Page > 1 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	return q
}

// List fetches notifications matching opts.
func (s *NotificationsService) List(ctx context.Context, opts NotificationListOptions) (ListPage[entity.Notification], error) {
	raw, err := s.c.get(ctx, "notifications/", opts.query())
	if err != nil {
		return ListPage[entity.Notification]{}, err
	}
	return ParseList[entity.Notification](raw)
}

// MarkRead returns the confirm for marking a notification read.
func (s *NotificationsService) MarkRead(n entity.Notification) optimistic.ConfirmFunc {
	path := fmt.Sprintf("notifications/%d/", n.ID)
	body := map[string]any{"is_read": true}
	return func(ctx context.Context) error {
		return s.c.patch(ctx, path, body)
	}
}

// Remove returns the confirm for deleting a notification.
func (s *NotificationsService) Remove(n entity.Notification) optimistic.ConfirmFunc {
	path := fmt.Sprintf("notifications/%d/", n.ID)
	return func(ctx context.Context) error {
		return s.c.delete(ctx, path)
	}
}
