package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kwanzatukule/marketplace/app/models"
	"github.com/kwanzatukule/marketplace/app/repositories"
	"github.com/kwanzatukule/marketplace/pkg/testkit"
)

type env struct {
	db       *gorm.DB
	repos    repositories.Repos
	uow      *repositories.GormUnitOfWork
	farmer   *models.User
	consumer *models.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testkit.OpenDB(t, &models.User{}, &models.Produce{}, &models.ProcessedFood{}, &models.Order{}, &models.OrderItem{})
	e := &env{db: db, repos: repositories.New(db), uow: repositories.NewUnitOfWork(db)}

	e.farmer = &models.User{Username: "farmer", Email: "farmer@example.com", PasswordHash: "x", Role: models.RoleFarmer}
	e.consumer = &models.User{Username: "consumer", Email: "consumer@example.com", PasswordHash: "x", Role: models.RoleConsumer}
	require.NoError(t, db.Create(e.farmer).Error)
	require.NoError(t, db.Create(e.consumer).Error)
	return e
}

func (e *env) produce(t *testing.T, qty int) *models.Produce {
	t.Helper()
	p := &models.Produce{Name: "Sukuma wiki", Quantity: qty, Price: decimal.RequireFromString("30.00"), FarmerID: e.farmer.ID}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func (e *env) stock(t *testing.T, id uint) int {
	t.Helper()
	var p models.Produce
	require.NoError(t, e.db.First(&p, id).Error)
	return p.Quantity
}

func (e *env) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

// recordingBus captures fired events.
type recordingBus struct {
	mu     sync.Mutex
	events []string
	loads  []any
}

func (b *recordingBus) FireAsync(_ context.Context, name string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, name)
	b.loads = append(b.loads, payload)
}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}
