// Package migrations lists the marketplace schema changes in order.
package migrations

import (
	"gorm.io/gorm"

	"github.com/kwanzatukule/marketplace/app/models"
	"github.com/kwanzatukule/marketplace/pkg/migration"
	"github.com/kwanzatukule/marketplace/pkg/queue"
)

// Registry returns every migration, oldest first.
func Registry() []migration.Entry {
	return []migration.Entry{
		{Name: "20260101000000_create_users_table", Migration: &createTable{model: &models.User{}, table: "users"}},
		{Name: "20260101000001_create_produce_table", Migration: &createTable{model: &models.Produce{}, table: "produce"}},
		{Name: "20260101000002_create_processed_food_table", Migration: &createTable{model: &models.ProcessedFood{}, table: "processed_food"}},
		{Name: "20260101000003_create_orders_table", Migration: &createTable{model: &models.Order{}, table: "orders"}},
		{Name: "20260101000004_create_order_items_table", Migration: &createTable{model: &models.OrderItem{}, table: "order_items"}},
		{Name: "20260101000005_create_failed_jobs_table", Migration: &createTable{model: &queue.FailedJobRecord{}, table: "failed_jobs"}},
	}
}

// createTable migrates one model and drops its table on rollback.
type createTable struct {
	model any
	table string
}

func (m *createTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(m.model)
}

func (m *createTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.table)
}
