package models

import (
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusServed    OrderStatus = "served"
	StatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus reports whether s names a known order status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusPreparing, StatusReady, StatusServed, StatusCancelled:
		return st, true
	}
	return "", false
}

type Order struct {
	ID                  string      `bson:"_id,omitempty" json:"id"`
	TableNumber         string      `bson:"tableNumber" json:"tableNumber"`
	Items               []CartItem  `bson:"items" json:"items"`
	Status              OrderStatus `bson:"status" json:"status"`
	CreatedAt           time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time   `bson:"updatedAt" json:"updatedAt"`
	Total               float64     `bson:"total" json:"total"`
	SpecialInstructions string      `bson:"specialInstructions" json:"specialInstructions"`
	WaiterID            string      `bson:"waiterId,omitempty" json:"waiterId,omitempty"`
}

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	TableNumber         TableNumber `json:"tableNumber"`
	Items               []CartItem  `json:"items"`
	Total               *float64    `json:"total,omitempty"`
	SpecialInstructions string      `json:"specialInstructions,omitempty"`
}

// CalculateTotal sums price times quantity over the request items.
func (req *CreateOrderRequest) CalculateTotal() float64 {
	total := 0.0
	for _, item := range req.Items {
		total += item.Subtotal()
	}
	return total
}

// UpdateOrderStatusRequest is the body of PUT /api/orders/:id/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}
