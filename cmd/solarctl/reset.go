package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func resetCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the public schema (development only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			if !strings.EqualFold(cfg.Env, "development") && !strings.EqualFold(cfg.Env, "test") {
				return fmt.Errorf("refusing to reset a %s database", cfg.Env)
			}
			if !confirm {
				return fmt.Errorf("reset drops every table in %s; pass --yes to continue", cfg.DBName)
			}

			if err := db.Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;").Error; err != nil {
				return fmt.Errorf("failed to drop schema: %w", err)
			}
			if err := db.Exec("GRANT ALL ON SCHEMA public TO public;").Error; err != nil {
				return fmt.Errorf("failed to grant schema permissions: %w", err)
			}
			cmd.Println("database reset; run `solarctl migrate up` next")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the reset")
	return cmd
}
