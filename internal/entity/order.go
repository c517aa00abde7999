package entity

import "time"

// OrderStatus is an order's position in the fulfillment lifecycle.
type OrderStatus string

const (
	OrderCart           OrderStatus = "cart"
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
	OrderRefunded       OrderStatus = "refunded"
)

// Valid reports whether the status is one the backend defines.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderCart, OrderPending, OrderConfirmed, OrderPreparing, OrderReady,
		OrderOutForDelivery, OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

// PaymentStatus mirrors the backend payment state on an order.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPaid          PaymentStatus = "paid"
	PaymentFailed        PaymentStatus = "failed"
	PaymentRefunded      PaymentStatus = "refunded"
	PaymentPartialRefund PaymentStatus = "partial_refund"
)

// Order is an order record as the admin API returns it.
// Amounts are decimal strings; see the package comment.
type Order struct {
	ID            int64         `json:"id"`
	OrderNumber   string        `json:"order_number"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	CustomerName  string        `json:"customer_name"`
	ChefName      string        `json:"chef_name,omitempty"`
	Subtotal      string        `json:"subtotal"`
	DeliveryFee   string        `json:"delivery_fee"`
	TotalAmount   string        `json:"total_amount"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Key returns the identity the coordinator tracks pending edits by.
func (o Order) Key() int64 { return o.ID }

// WithStatus returns a copy with the fulfillment status set.
// Used to build the optimistic value for status transitions.
func (o Order) WithStatus(status OrderStatus) Order {
	o.Status = status
	return o
}
