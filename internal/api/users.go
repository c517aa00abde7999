package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/chefsync/backline/internal/entity"
	"github.com/chefsync/backline/internal/optimistic"
)

// UsersService manages platform accounts through the admin API.
type UsersService struct {
	c *Client
}

// UserListOptions filters a user listing. Zero values are omitted.
type UserListOptions struct {
	Role   entity.Role
	Status entity.ApprovalStatus
	Search string
	Page   int
}

func (o UserListOptions) query() url.Values {
	q := url.Values{}
	if o.Role != "" {
		q.Set("role", string(o.Role))
	}
	if o.Status != "" {
		q.Set("approval_status", string(o.Status))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Page > 1 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	return q
}

// List fetches users matching opts.
func (s *UsersService) List(ctx context.Context, opts UserListOptions) (ListPage[entity.User], error) {
	raw, err := s.c.get(ctx, "users/", opts.query())
	if err != nil {
		return ListPage[entity.User]{}, err
	}
	return ParseList[entity.User](raw)
}

// Get fetches one user by ID.
func (s *UsersService) Get(ctx context.Context, id int64) (entity.User, error) {
	var u entity.User
	err := s.c.getJSON(ctx, fmt.Sprintf("users/%d/", id), nil, &u)
	return u, err
}

// SetActive returns the confirm for activating or deactivating a user.
// Activation also approves pending cook and delivery accounts, matching
// the backend side effect the optimistic value must mirror.
//
// Admin accounts cannot be deactivated; the backend enforces this and the
// guard here fails the edit before it is ever rendered optimistically.
func (s *UsersService) SetActive(u entity.User, active bool) (optimistic.ConfirmFunc, error) {
	if !active && u.Role == entity.RoleAdmin {
		return nil, fmt.Errorf("admin account %d cannot be deactivated", u.ID)
	}
	body := map[string]any{"is_active": active}
	if active {
		body["approval_status"] = string(entity.ApprovalApproved)
	} else {
		body["approval_status"] = string(entity.ApprovalRejected)
	}
	path := fmt.Sprintf("users/%d/", u.ID)
	return func(ctx context.Context) error {
		return s.c.patch(ctx, path, body)
	}, nil
}

// Remove returns the confirm for deleting a user account.
func (s *UsersService) Remove(u entity.User) (optimistic.ConfirmFunc, error) {
	if u.Role == entity.RoleAdmin {
		return nil, fmt.Errorf("admin account %d cannot be deleted", u.ID)
	}
	path := fmt.Sprintf("users/%d/", u.ID)
	return func(ctx context.Context) error {
		return s.c.delete(ctx, path)
	}, nil
}
