package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kwanzatukule/marketplace/app/apperr"
	"github.com/kwanzatukule/marketplace/app/models"
)

type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Create inserts only the order row (associations are skipped); items are
// written with CreateItem once the id is known.
func (r *OrderStore) Create(ctx context.Context, o *models.Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(o).Error; err != nil {
		return fmt.Errorf("orders: create: %w", err)
	}
	if o.ID == 0 {
		return fmt.Errorf("orders: create: no id assigned")
	}
	return nil
}

func (r *OrderStore) CreateItem(ctx context.Context, item *models.OrderItem) error {
	if err := item.Validate(); err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, "Invalid order item", err)
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return fmt.Errorf("orders: create item: %w", err)
	}
	return nil
}

// FindWithItems loads an order and its items ordered by item id.
func (r *OrderStore) FindWithItems(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_item_id") }).
		First(&o, id).Error
	if err != nil {
		return nil, notFound(err, "Order not found")
	}
	return &o, nil
}
