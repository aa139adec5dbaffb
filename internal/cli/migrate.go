package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pos_sales/internal/config"
	"pos_sales/internal/database"
	"pos_sales/internal/logger"
	"pos_sales/internal/sales"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the sales tables",
		Long: `Create or update the sales and sale_items tables in the configured
SQL database. The memory driver has nothing to migrate.

Example:
  pos-sales migrate --config ./config.yaml
  DB_DRIVER=postgres DB_DSN="host=localhost user=pos dbname=pos" pos-sales migrate`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()
			return runMigrate(cfg, log)
		},
	}
}

func runMigrate(cfg config.Config, log *zap.Logger) error {
	if cfg.Database.Driver == config.DriverMemory {
		log.Info("memory driver selected, nothing to migrate")
		return nil
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	if err := sales.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("sales schema migrated", zap.String("driver", cfg.Database.Driver))
	return nil
}
