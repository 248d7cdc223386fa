package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Produce is a farmer's listing. Quantity is the quantity-on-hand and never
// drops below zero; only order placement decrements it.
type Produce struct {
	ID       uint            `gorm:"column:produce_id;primaryKey;autoIncrement"         json:"produce_id"`
	Name     string          `gorm:"size:100;not null;index"                            json:"name"`
	Quantity int             `gorm:"not null;default:0;check:chk_produce_quantity,quantity >= 0" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:numeric(10,2);not null"                        json:"price"`
	FarmerID uint            `gorm:"not null;index"                                     json:"farmer_id"`
	Farmer   *User           `gorm:"foreignKey:FarmerID;references:ID"                  json:"-"`
}

func (Produce) TableName() string { return "produce" }

// Validate checks the invariants the store also enforces.
func (p *Produce) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Quantity < 0 {
		return errors.New("quantity must not be negative")
	}
	if p.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	return nil
}

// ProcessedFood is a value-added product derived from a produce listing.
type ProcessedFood struct {
	ID        uint     `gorm:"column:processed_food_id;primaryKey;autoIncrement" json:"processed_food_id"`
	ProduceID uint     `gorm:"not null;index"                                   json:"produce_id"`
	Produce   *Produce `gorm:"foreignKey:ProduceID;references:ID"              json:"-"`
	Quantity  int      `gorm:"not null;default:0"                               json:"quantity"`
}

func (ProcessedFood) TableName() string { return "processed_food" }
