package main

import (
	"github.com/go-band-notify/internal/config"
	"github.com/go-band-notify/internal/infrastructure/dynamo"
	"github.com/go-band-notify/internal/infrastructure/sqlite"
	"github.com/spf13/cobra"
)

func migrateCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create DynamoDB tables or apply SQLite migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if c.cfg.StoreBackend == config.BackendDynamo {
				client, err := dynamo.NewClient(ctx, c.cfg)
				if err != nil {
					return err
				}
				dynamo.Bootstrap(ctx, client, c.cfg.DynamoTables)
				return nil
			}
			db, err := sqlite.Open(ctx, c.cfg.SQLitePath, c.log)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}
