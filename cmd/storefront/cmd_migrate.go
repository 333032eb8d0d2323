package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/storefront/internal/session"
	"github.com/spf13/cobra"
)

// migrateCmd applies the session storage schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the session storage schema to DATABASE_URL",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return session.Migrate(ctx, pool, func(name string) {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
	})
}
