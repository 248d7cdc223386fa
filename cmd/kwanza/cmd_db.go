package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/kwanzatukule/marketplace/database/migrations"
	"github.com/kwanzatukule/marketplace/database/seeders"
	"github.com/kwanzatukule/marketplace/pkg/database"
	"github.com/kwanzatukule/marketplace/pkg/migration"
)

// withDB loads config, opens the database for fn and closes it afterwards.
func withDB(fn func(db *gorm.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck
	return fn(db)
}

func runner(cmd *cobra.Command, db *gorm.DB) *migration.Runner {
	return migration.New(db, migrations.Registry()...).SetOutput(cmd.OutOrStdout())
}

// kwanza migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
			return runner(cmd, db).Run()
		})
	},
}

// kwanza migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Rolling back last batch…")
			return runner(cmd, db).Rollback()
		})
	},
}

// kwanza migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			return runner(cmd, db).Status()
		})
	},
}

// kwanza seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo users and produce",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
			return seeders.RunAll(db, cmd.OutOrStdout(), seeders.Default()...)
		})
	},
}
