package entity

import "time"

// Role identifies a user's function on the platform.
type Role string

const (
	RoleCustomer      Role = "customer"
	RoleCook          Role = "cook"
	RoleDeliveryAgent Role = "delivery_agent"
	RoleAdmin         Role = "admin"
)

// ValidRoles lists every role the backend accepts, in display order.
var ValidRoles = []Role{RoleCustomer, RoleCook, RoleDeliveryAgent, RoleAdmin}

// Valid reports whether the role is one the backend defines.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleCook, RoleDeliveryAgent, RoleAdmin:
		return true
	}
	return false
}

// ApprovalStatus is the admin approval state for cook and delivery
// accounts. Customers are approved implicitly.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether the approval status is one the backend defines.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// User is a platform account as the admin API returns it.
type User struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone,omitempty"`
	Address        string         `json:"address,omitempty"`
	Role           Role           `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	Active         bool           `json:"is_active"`
	EmailVerified  bool           `json:"email_verified"`
	DateJoined     time.Time      `json:"date_joined"`
	LastLogin      *time.Time     `json:"last_login,omitempty"`
}

// Key returns the identity the coordinator tracks pending edits by.
func (u User) Key() int64 { return u.ID }

// WithActive returns a copy with the active flag set.
// Used to build the optimistic value for activate/deactivate.
func (u User) WithActive(active bool) User {
	u.Active = active
	if active {
		u.ApprovalStatus = ApprovalApproved
	} else {
		u.ApprovalStatus = ApprovalRejected
	}
	return u
}
