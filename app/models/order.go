package models

import (
	"errors"
	"time"
)

// Order statuses. Placement only ever writes StatusPending.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
)

// Order is the aggregate root for a purchase. It owns its items.
type Order struct {
	ID         uint        `gorm:"column:order_id;primaryKey;autoIncrement" json:"order_id"`
	ConsumerID uint        `gorm:"not null;index"                          json:"consumer_id"`
	Consumer   *User       `gorm:"foreignKey:ConsumerID;references:ID"     json:"-"`
	StaffID    *uint       `gorm:"index"                                   json:"staff_id"`
	Staff      *User       `gorm:"foreignKey:StaffID;references:ID"        json:"-"`
	OrderDate  time.Time   `gorm:"autoCreateTime"                          json:"order_date"`
	Status     string      `gorm:"size:20;not null;default:Pending"        json:"status"`
	Items      []OrderItem `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is one line of an order. It references exactly one of a produce
// listing or a processed food.
type OrderItem struct {
	ID              uint           `gorm:"column:order_item_id;primaryKey;autoIncrement" json:"order_item_id"`
	OrderID         uint           `gorm:"not null;index"                               json:"order_id"`
	ProduceID       *uint          `gorm:"index;check:chk_order_items_line,(produce_id IS NULL) <> (processed_food_id IS NULL)" json:"produce_id,omitempty"`
	Produce         *Produce       `gorm:"foreignKey:ProduceID;references:ID"           json:"-"`
	ProcessedFoodID *uint          `gorm:"index"                                        json:"processed_food_id,omitempty"`
	ProcessedFood   *ProcessedFood `gorm:"foreignKey:ProcessedFoodID;references:ID"     json:"-"`
	Quantity        int            `gorm:"not null"                                     json:"quantity"`
}

func (OrderItem) TableName() string { return "order_items" }

var (
	errItemReference = errors.New("order item must reference exactly one of produce or processed food")
	errItemQuantity  = errors.New("order item quantity must be positive")
	errItemOrder     = errors.New("order item must belong to a persisted order")
)

// Validate enforces the line invariants before the row reaches the store.
func (i *OrderItem) Validate() error {
	if (i.ProduceID == nil) == (i.ProcessedFoodID == nil) {
		return errItemReference
	}
	if i.Quantity <= 0 {
		return errItemQuantity
	}
	if i.OrderID == 0 {
		return errItemOrder
	}
	return nil
}
