// Package seeders fills a fresh database with demo data:
//
//	kwanza seed
//
// Every seeder is idempotent, so running it twice leaves one copy of each row.
package seeders

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kwanzatukule/marketplace/app/models"
	"github.com/kwanzatukule/marketplace/pkg/auth"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password"

// Seeder is one named seed step.
type Seeder struct {
	Name string
	Run  func(db *gorm.DB) error
}

// Default returns the seeders `kwanza seed` runs, in order.
func Default() []Seeder {
	return []Seeder{
		{Name: "users", Run: SeedUsers},
		{Name: "produce", Run: SeedProduce},
	}
}

// RunAll executes seeders in order and stops on the first error.
func RunAll(db *gorm.DB, out io.Writer, seeders ...Seeder) error {
	if len(seeders) == 0 {
		fmt.Fprintln(out, "  (no seeders registered)")
		return nil
	}
	for _, s := range seeders {
		fmt.Fprintf(out, "  • Running seeder: %s … ", s.Name)
		if err := s.Run(db); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", s.Name, err)
		}
		fmt.Fprintln(out, "done")
	}
	return nil
}

var demoUsers = []models.User{
	{Username: "demo_farmer", Email: "farmer@kwanza.test", Role: models.RoleFarmer},
	{Username: "demo_consumer", Email: "consumer@kwanza.test", Role: models.RoleConsumer},
	{Username: "demo_staff", Email: "staff@kwanza.test", Role: models.RoleStaff},
}

// SeedUsers creates one account per role.
func SeedUsers(db *gorm.DB) error {
	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}
	for _, u := range demoUsers {
		u.PasswordHash = hash
		if err := db.Where(models.User{Email: u.Email}).FirstOrCreate(&u).Error; err != nil {
			return err
		}
	}
	return nil
}

var demoProduce = []struct {
	name  string
	qty   int
	price string
}{
	{"Maize", 100, "45.00"},
	{"Sukuma wiki", 250, "20.50"},
	{"Irish potatoes", 80, "60.00"},
}

// SeedProduce lists a few items under the demo farmer.
func SeedProduce(db *gorm.DB) error {
	var farmer models.User
	if err := db.Where("email = ?", demoUsers[0].Email).First(&farmer).Error; err != nil {
		return fmt.Errorf("demo farmer missing, run the users seeder first: %w", err)
	}
	for _, d := range demoProduce {
		p := models.Produce{
			Name:     d.name,
			Quantity: d.qty,
			Price:    decimal.RequireFromString(d.price),
			FarmerID: farmer.ID,
		}
		if err := db.Where(models.Produce{Name: p.Name, FarmerID: farmer.ID}).FirstOrCreate(&p).Error; err != nil {
			return err
		}
	}
	return nil
}
