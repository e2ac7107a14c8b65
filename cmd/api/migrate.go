package main

import (
	"errors"
	"log"

	"vaultbank-service/internal/config"
	"vaultbank-service/internal/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

func init() {
	for _, c := range []struct{ use, short string }{
		{"up", "Apply all pending migrations"},
		{"down", "Roll back the latest migration"},
		{"status", "Print migration status"},
	} {
		command := c.use
		migrateCmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: c.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(command)
			},
		})
	}
}

func runMigrate(command string) error {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL or DB_HOST/DB_NAME are required")
	}
	if err := db.Migrate(cfg.DatabaseURL, command); err != nil {
		return err
	}
	log.Printf("migrate %s: ok", command)
	return nil
}
