// Command kwanza runs and administers the Kwanza Tukule marketplace:
//
//	kwanza serve             # HTTP + gRPC servers
//	kwanza migrate           # apply pending migrations
//	kwanza migrate:rollback  # undo the last batch
//	kwanza migrate:status
//	kwanza seed              # demo users and produce
//	kwanza route:list
//	kwanza queue:work        # background job workers only
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kwanzatukule/marketplace/config"
)

var configPaths []string

var rootCmd = &cobra.Command{
	Use:           "kwanza",
	Short:         "Kwanza Tukule marketplace",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configPaths, "config", config.DefaultPaths,
		"config files to load in order (*.json or dotenv)")

	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(scheduleListCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPaths...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
