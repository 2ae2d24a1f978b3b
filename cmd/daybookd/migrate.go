package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/daybook"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := daybook.LoadConfig(confPath)
		if err != nil {
			return err
		}

		db, err := OpenDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck

		fmt.Fprintf(cmd.OutOrStdout(), "database at %s is up to date\n", cfg.DatabaseURL)
		return nil
	},
}
