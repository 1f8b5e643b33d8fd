package models

import "time"

type WaiterCallStatus string

const (
	CallActive   WaiterCallStatus = "active"
	CallResolved WaiterCallStatus = "resolved"
)

type WaiterCall struct {
	ID          string           `bson:"_id,omitempty" json:"id"`
	TableNumber string           `bson:"tableNumber" json:"tableNumber"`
	Status      WaiterCallStatus `bson:"status" json:"status"`
	CreatedAt   time.Time        `bson:"createdAt" json:"createdAt"`
	ResolvedAt  *time.Time       `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	ResolvedBy  string           `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
}

type WaiterCallRequest struct {
	TableNumber TableNumber `json:"tableNumber"`
}
