package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chartmerge/chartmerge/internal/config"
	"github.com/chartmerge/chartmerge/internal/domain/dedup"
	"github.com/chartmerge/chartmerge/internal/domain/record"
	"github.com/chartmerge/chartmerge/internal/platform/auth"
	"github.com/chartmerge/chartmerge/internal/platform/db"
	"github.com/chartmerge/chartmerge/internal/platform/epic"
	"github.com/chartmerge/chartmerge/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chartmerge-server",
		Short: "Clinical record ingestion and deduplication server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(dedupCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [export-dir]",
		Short: "Ingest an Epic EHI Tables export directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patientArg, _ := cmd.Flags().GetString("patient")
			accountArg, _ := cmd.Flags().GetString("account")

			patientID, err := uuid.Parse(patientArg)
			if err != nil {
				return fmt.Errorf("invalid --patient: %w", err)
			}
			accountID := auth.DevAccountID
			if accountArg != "" {
				if accountID, err = uuid.Parse(accountArg); err != nil {
					return fmt.Errorf("invalid --account: %w", err)
				}
			}

			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := record.NewRepoPG(pool)
			parser := epic.NewParser(epic.NewInserter(repo, logger), logger)

			stats, err := parser.ParseExport(ctx, args[0], epic.Options{
				AccountID: accountID,
				PatientID: patientID,
				BatchSize: cfg.IngestBatchSize,
				Progress: func(done, total, inserted int) {
					fmt.Printf("Processed %d/%d files, %d records inserted\n", done, total, inserted)
				},
			})
			if err != nil {
				return err
			}

			fmt.Printf("Done: %d/%d files, %d inserted, %d skipped, %d errors\n",
				stats.FilesProcessed, stats.TotalFiles, stats.RecordsInserted,
				stats.RecordsSkipped, len(stats.Errors))
			for _, e := range stats.Errors {
				if e.Row != nil {
					fmt.Printf("  %s row %d: %s\n", e.File, *e.Row, e.Error)
				} else {
					fmt.Printf("  %s: %s\n", e.File, e.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("patient", "", "Patient UUID to attach records to (required)")
	cmd.Flags().String("account", "", "Account UUID (defaults to the development account)")
	cmd.MarkFlagRequired("patient")
	return cmd
}

func dedupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup [patient-id]",
		Short: "Scan a patient's records for duplicate candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountArg, _ := cmd.Flags().GetString("account")

			patientID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid patient id: %w", err)
			}
			accountID := auth.DevAccountID
			if accountArg != "" {
				if accountID, err = uuid.Parse(accountArg); err != nil {
					return fmt.Errorf("invalid --account: %w", err)
				}
			}

			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := record.NewRepoPG(pool)
			found, err := dedup.NewService(repo, logger).Detect(ctx, accountID, patientID)
			if err != nil {
				return err
			}
			fmt.Printf("Found %d duplicate candidate(s).\n", found)
			return nil
		},
	}
	cmd.Flags().String("account", "", "Account UUID (defaults to the development account)")
	return cmd
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.ResolvedAuthMode() == "development" {
		logger.Warn().Msg("development auth enabled, all requests use the dev account")
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware([]byte(cfg.JWTSecret)))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	apiV1 := e.Group("/api/v1")

	recordRepo := record.NewRepoPG(pool)
	recordSvc := record.NewService(recordRepo)
	record.NewHandler(recordSvc).RegisterRoutes(apiV1)

	inserter := epic.NewInserter(recordRepo, logger)
	parser := epic.NewParser(inserter, logger)
	epic.NewHandler(parser).RegisterRoutes(apiV1)

	dedupSvc := dedup.NewService(recordRepo, logger)
	dedup.NewHandler(dedupSvc).RegisterRoutes(apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
