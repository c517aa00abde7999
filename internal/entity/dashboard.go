package entity

import "time"

// DashboardStats is the aggregate snapshot the admin dashboard renders.
// All counts are computed server-side; backline displays them as-is.
type DashboardStats struct {
	TotalUsers       int64  `json:"total_users"`
	ActiveUsers      int64  `json:"active_users"`
	PendingApprovals int64  `json:"pending_approvals"`
	TotalOrders      int64  `json:"total_orders"`
	OrdersToday      int64  `json:"orders_today"`
	ActiveChefs      int64  `json:"active_chefs"`
	TotalRevenue     string `json:"total_revenue"`
	RevenueToday     string `json:"revenue_today"`
}

// SystemHealth is the backend's self-reported health summary.
type SystemHealth struct {
	Status         string `json:"status"`
	DatabaseOK     bool   `json:"database_ok"`
	ActiveSessions int64  `json:"active_sessions"`
	ErrorRate      string `json:"error_rate,omitempty"`
}

// Notification is an admin-facing notification row.
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"type,omitempty"`
	Read      bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the identity the coordinator tracks pending edits by.
func (n Notification) Key() int64 { return n.ID }

// FoodItem is a menu entry as the admin food API returns it.
type FoodItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Cuisine   string `json:"cuisine,omitempty"`
	Price     string `json:"price"`
	Available bool   `json:"is_available"`
	ChefName  string `json:"chef_name,omitempty"`
}

// Key returns the identity the coordinator tracks pending edits by.
func (f FoodItem) Key() int64 { return f.ID }
