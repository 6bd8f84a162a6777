package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"presale/config"
	"presale/internal/database"
	"presale/internal/router"
	"presale/pkg/cloudinary"
	"presale/pkg/logger"

	"github.com/spf13/cobra"
)

const Version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:           "presale",
	Short:         "token presale backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.ValidateProduction(); err != nil {
			return err
		}
		return serve(cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("presale v%s\n", Version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("port", "", "HTTP listen port")
	flags.String("env", "", "environment (development, production)")
	flags.String("db-driver", "", "database driver (mysql, postgres, sqlite)")
	flags.String("db-dsn", "", "database connection string")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, migrateCmd, exportCmd, versionCmd)
}

// loadConfig reads configuration with the command's flags on top and
// initializes the logger from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())
	return cfg, nil
}

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(&cfg.Database, !cfg.IsProduction())
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	var uploader cloudinary.Uploader
	if cfg.Cloudinary.CloudName != "" {
		uploader, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			return fmt.Errorf("cloudinary: %w", err)
		}
	} else {
		logger.Info("Logo upload disabled: set PRESALE_CLOUDINARY_CLOUD_NAME to enable")
	}

	engine, err := router.Setup(ctx, cfg, db, uploader)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
