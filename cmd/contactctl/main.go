// Command contactctl runs migrations, bulk CSV imports and exports, manages
// organization membership and issues organization-scoped tokens against the
// contact database.
package main

import (
	"fmt"
	"os"

	"contact-service/internal/service"
	"contact-service/pkg/config"
	"contact-service/pkg/database"
	"contact-service/pkg/jwtutil"
	"contact-service/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds what every subcommand needs, opened once in PersistentPreRunE
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	services *service.Services
	jwt      *jwtutil.JWTUtil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "contactctl",
		Short:         "Administer the contact database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newTokenCmd(a))
	root.AddCommand(newMemberCmd(a))
	return root
}

func (a *app) open() error {
	cfg, err := config.Load("contactctl")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// Human-readable output belongs on stdout, so the logger only reports warnings
	if err := logger.InitLogger(&logger.LogConfig{Level: "warn", Environment: cfg.Server.Env, ServiceName: cfg.ServiceName}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	a.cfg = cfg
	a.db = db
	a.services = service.New(db, cfg.Import.DefaultCountryCode)
	a.jwt = jwtutil.NewJWTUtil(&cfg.JWT)
	return nil
}

func (a *app) close() error {
	_ = logger.GetLogger().Sync()
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		logger.GetLogger().Warn("Failed to close database", zap.Error(err))
	}
	return nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(a.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}
