// Package events names the domain events and their payloads. Events are
// fired only after the transaction that produced them has committed.
package events

import "time"

const (
	OrderPlaced    = "order.placed"
	ProduceCreated = "produce.created"
)

// OrderPlacedPayload describes a committed placement.
type OrderPlacedPayload struct {
	OrderID    uint      `json:"order_id"`
	ConsumerID uint      `json:"consumer_id"`
	ProduceID  uint      `json:"produce_id"`
	Quantity   int       `json:"quantity"`
	Remaining  int       `json:"remaining"`
	Status     string    `json:"status"`
	PlacedAt   time.Time `json:"placed_at"`
}

// ProduceCreatedPayload describes a new listing.
type ProduceCreatedPayload struct {
	ProduceID uint   `json:"produce_id"`
	FarmerID  uint   `json:"farmer_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}
