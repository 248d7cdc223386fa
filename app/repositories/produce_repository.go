package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kwanzatukule/marketplace/app/apperr"
	"github.com/kwanzatukule/marketplace/app/models"
	"github.com/kwanzatukule/marketplace/pkg/database"
)

// ProduceStore is the inventory ledger.
type ProduceStore struct {
	db *gorm.DB
}

func NewProduceStore(db *gorm.DB) *ProduceStore {
	return &ProduceStore{db: db}
}

func (r *ProduceStore) Create(ctx context.Context, p *models.Produce) error {
	if err := p.Validate(); err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, "Invalid input", err)
	}
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("produce: create: %w", err)
	}
	return nil
}

// List returns every listing ordered by id.
func (r *ProduceStore) List(ctx context.Context) ([]models.Produce, error) {
	var out []models.Produce
	if err := r.db.WithContext(ctx).Order("produce_id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("produce: list: %w", err)
	}
	return out, nil
}

func (r *ProduceStore) Find(ctx context.Context, id uint) (*models.Produce, error) {
	var p models.Produce
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "Produce not found")
	}
	return &p, nil
}

// Reserve takes quantity units from produce id. It must run inside a
// transaction. The row is read under FOR UPDATE where the dialect supports
// it, then decremented with a guarded UPDATE:
//
//	UPDATE produce SET quantity = quantity - ? WHERE produce_id = ? AND quantity >= ?
//
// The returned remainder is read after the UPDATE.
//
// Errors: apperr.NotFound, apperr.InsufficientStock (stock unchanged) or
// apperr.Conflict when the guard matched no row after a successful read.
func (r *ProduceStore) Reserve(ctx context.Context, id uint, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, apperr.InvalidInput("Quantity must be a positive integer")
	}

	q := r.db.WithContext(ctx)
	if database.SupportsRowLocks(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var p models.Produce
	if err := q.Select("produce_id", "quantity").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound("Produce not found")
		}
		return 0, fmt.Errorf("produce: reserve %d: load: %w", id, err)
	}

	if p.Quantity < quantity {
		return p.Quantity, apperr.InsufficientStock("Insufficient quantity available")
	}

	res := r.db.WithContext(ctx).
		Model(&models.Produce{}).
		Where("produce_id = ? AND quantity >= ?", id, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return 0, fmt.Errorf("produce: reserve %d: decrement: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperr.Conflict("Stock changed while placing the order, please retry")
	}

	// Without a row lock the first read may be stale; the UPDATE now holds
	// the row, so read back what is actually left.
	var left []int
	if err := r.db.WithContext(ctx).Model(&models.Produce{}).
		Where("produce_id = ?", id).
		Pluck("quantity", &left).Error; err != nil {
		return 0, fmt.Errorf("produce: reserve %d: reload: %w", id, err)
	}
	if len(left) == 0 {
		return 0, apperr.NotFound("Produce not found")
	}
	return left[0], nil
}
