package main

import (
	"context"
	"fmt"

	"agri-supply/internal/config"
	"agri-supply/internal/logging"
	"agri-supply/internal/platform/database"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create missing tables in a development database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logging.Setup(cfg.LogLevel, cfg.IsDev())

		ctx := context.Background()
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.Options{MaxConns: 1})
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := database.ApplySchema(ctx, pool); err != nil {
			return err
		}
		log := logging.New("schema")
		log.Info().Msg("schema applied")
		return nil
	},
}
