package models

import (
	"time"
)

// Order statuses. See order.Transitions for the allowed moves between them.
const (
	OrderStatusPending      = "pending"
	OrderStatusAcknowledged = "acknowledged"
	OrderStatusDispatched   = "dispatched"
	OrderStatusDelivered    = "delivered"
	OrderStatusReceived     = "received"
	OrderStatusCancelled    = "cancelled"
)

// Order represents a purchase order placed with one farmer for one crop.
type Order struct {
	ID                string     `json:"id"`
	FarmerID          string     `json:"farmer_id"`
	FarmID            string     `json:"farm_id"`
	LotID             string     `json:"lot_id"`
	CropID            string     `json:"crop_id"`
	CropName          string     `json:"crop_name"`
	AdminID           string     `json:"admin_id"`
	QuantityKg        float64    `json:"quantity_kg"`
	OriginalQuantity  float64    `json:"original_quantity"`
	OriginalUnit      string     `json:"original_unit"`
	Status            string     `json:"status"`
	Notes             *string    `json:"notes,omitempty"`
	ScheduledPickupAt *time.Time `json:"scheduled_pickup_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// UpdateOrderStatusRequest is the body of PATCH /orders/:orderId/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending acknowledged dispatched delivered received cancelled"`
}

// AdminUpdateOrderRequest is a partial update: only non-nil fields are applied.
type AdminUpdateOrderRequest struct {
	Status            *string    `json:"status,omitempty" validate:"omitempty,oneof=pending acknowledged dispatched delivered received cancelled"`
	Notes             *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
	ScheduledPickupAt *time.Time `json:"scheduled_pickup_at,omitempty"`
}

// Empty reports whether the patch carries no field at all.
func (r AdminUpdateOrderRequest) Empty() bool {
	return r.Status == nil && r.Notes == nil && r.ScheduledPickupAt == nil
}

// OrderList is the paginated list response.
type OrderList struct {
	Orders []*Order `json:"orders"`
	Total  int      `json:"total"`
}
