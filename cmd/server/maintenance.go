package main

import (
	"context"
	"fmt"
	"os"

	"presale/internal/database"
	"presale/internal/repository"
	"presale/internal/service"
	"presale/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and seed config defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		db, err := database.NewDB(&cfg.Database, !cfg.IsProduction())
		if err != nil {
			return err
		}
		if err := database.AutoMigrate(db); err != nil {
			return err
		}

		ctx := context.Background()
		settings := repository.NewSettingRepository(db)
		presale := service.NewPresaleService(settings, repository.NewAdminRepository(db), cfg.Presale, nil, cfg.Cloudinary.Folder)
		if err := presale.SeedDefaults(ctx); err != nil {
			return err
		}
		if err := service.NewAuthService(&cfg.Admin, settings).SeedPasscode(ctx); err != nil {
			return err
		}
		logger.Info("Migration complete", "driver", cfg.Database.Driver)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all users with their balances to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		if _, _, err := service.ContentType(format); err != nil {
			return err
		}
		if out == "" {
			out = "users." + format
		}

		db, err := database.NewDB(&cfg.Database, !cfg.IsProduction())
		if err != nil {
			return err
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		exporter := service.NewExportService(repository.NewAdminRepository(db))
		if err := exporter.Export(context.Background(), format, f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("exported users to %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "csv", "output format (csv, xlsx)")
	exportCmd.Flags().String("out", "", "output file (default users.<format>)")
}
