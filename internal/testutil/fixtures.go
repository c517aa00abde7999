package testutil

import (
	"time"

	"github.com/chefsync/backline/internal/entity"
)

// fixtureTime keeps canned entities byte-stable across runs.
var fixtureTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// SampleUsers returns a small, stable user list covering every role.
func SampleUsers() []entity.User {
	return []entity.User{
		{
			ID: 1, Name: "Priya Raman", Email: "priya@chefsync.example",
			Role: entity.RoleAdmin, ApprovalStatus: entity.ApprovalApproved,
			Active: true, EmailVerified: true, DateJoined: fixtureTime,
		},
		{
			ID: 2, Name: "Marco Diaz", Email: "marco@chefsync.example",
			Role: entity.RoleCook, ApprovalStatus: entity.ApprovalApproved,
			Active: true, EmailVerified: true, DateJoined: fixtureTime.Add(24 * time.Hour),
		},
		{
			ID: 3, Name: "Lena Okafor", Email: "lena@chefsync.example",
			Role: entity.RoleCook, ApprovalStatus: entity.ApprovalPending,
			Active: false, EmailVerified: true, DateJoined: fixtureTime.Add(48 * time.Hour),
		},
		{
			ID: 4, Name: "Tomas Berg", Email: "tomas@chefsync.example",
			Role: entity.RoleDeliveryAgent, ApprovalStatus: entity.ApprovalApproved,
			Active: true, EmailVerified: false, DateJoined: fixtureTime.Add(72 * time.Hour),
		},
		{
			ID: 5, Name: "Sam Whitfield", Email: "sam@chefsync.example",
			Role: entity.RoleCustomer, ApprovalStatus: entity.ApprovalApproved,
			Active: true, EmailVerified: true, DateJoined: fixtureTime.Add(96 * time.Hour),
		},
	}
}

// SampleOrders returns a small, stable order list across the lifecycle.
func SampleOrders() []entity.Order {
	return []entity.Order{
		{
			ID: 101, OrderNumber: "CS-2026-0101", Status: entity.OrderPending,
			PaymentStatus: entity.PaymentPending, CustomerName: "Sam Whitfield",
			ChefName: "Marco Diaz", Subtotal: "24.00", DeliveryFee: "3.50",
			TotalAmount: "27.50", CreatedAt: fixtureTime,
		},
		{
			ID: 102, OrderNumber: "CS-2026-0102", Status: entity.OrderPreparing,
			PaymentStatus: entity.PaymentPaid, CustomerName: "Ana Petrov",
			ChefName: "Marco Diaz", Subtotal: "18.25", DeliveryFee: "2.75",
			TotalAmount: "21.00", CreatedAt: fixtureTime.Add(time.Hour),
		},
		{
			ID: 103, OrderNumber: "CS-2026-0103", Status: entity.OrderDelivered,
			PaymentStatus: entity.PaymentPaid, CustomerName: "Sam Whitfield",
			ChefName: "Lena Okafor", Subtotal: "31.00", DeliveryFee: "0.00",
			TotalAmount: "31.00", CreatedAt: fixtureTime.Add(2 * time.Hour),
		},
	}
}
