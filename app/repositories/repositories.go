// Package repositories is the persistence gateway for the marketplace
// aggregates. Services depend on the interfaces; the gorm implementations are
// built per transaction by UnitOfWork.
package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/kwanzatukule/marketplace/app/models"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	// Exists reports whether email or username is already taken.
	Exists(ctx context.Context, email, username string) (bool, error)
}

type ProduceRepository interface {
	Create(ctx context.Context, p *models.Produce) error
	List(ctx context.Context) ([]models.Produce, error)
	Find(ctx context.Context, id uint) (*models.Produce, error)
	// Reserve atomically decrements quantity-on-hand and returns what is left.
	Reserve(ctx context.Context, id uint, quantity int) (int, error)
}

type OrderRepository interface {
	// Create inserts the order row and assigns its id.
	Create(ctx context.Context, o *models.Order) error
	CreateItem(ctx context.Context, item *models.OrderItem) error
	FindWithItems(ctx context.Context, id uint) (*models.Order, error)
}

// Repos bundles the repositories bound to one connection or transaction.
type Repos struct {
	Users   UserRepository
	Produce ProduceRepository
	Orders  OrderRepository
}

// New binds gorm repositories to db, which may be a transaction handle.
func New(db *gorm.DB) Repos {
	return Repos{
		Users:   NewUserStore(db),
		Produce: NewProduceStore(db),
		Orders:  NewOrderStore(db),
	}
}

// UnitOfWork runs fn inside one store transaction. fn's error rolls back
// everything done through the Repos it was given.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(Repos) error) error
}

// GormUnitOfWork implements UnitOfWork with gorm's Transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Do(ctx context.Context, fn func(Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
