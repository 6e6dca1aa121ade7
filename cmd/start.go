package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"vendhub-backend/core/config"
	"vendhub-backend/core/database"
	"vendhub-backend/core/loader"
	"vendhub-backend/core/logger"
	"vendhub-backend/core/middleware/auth"
	"vendhub-backend/core/middleware/rayid"
	"vendhub-backend/core/storage"
	"vendhub-backend/feature/machines"
	"vendhub-backend/feature/reconciliation"
	reconmodels "vendhub-backend/feature/reconciliation/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "vendhub-backend/docs/swagger"
)

// @title VendHub Reconciliation API
// @version 1.0
// @description API for multi-source sales reconciliation and mismatch resolution.
// @host localhost:8080
// @BasePath /api/v1

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the reconciliation server",
	Long:  `Starts the HTTP server, the background run executor, and all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (required: the engine owns run state)
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}

		// Migrate the engine-owned tables. Source tables (sales report,
		// hardware sales, gateway ledger) and the machine directory are
		// owned by other subsystems and never migrated here.
		if err := db.AutoMigrate(
			&reconmodels.ReconciliationRun{},
			&reconmodels.ReconciliationMismatch{},
		); err != nil {
			logg.Fatal("Failed to migrate schema", zap.Error(err))
		}

		// 4. Report archiving via object storage (optional)
		var archiver *reconciliation.ReportArchiver
		if cfg.Reconciliation.ArchiveReports {
			store, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Warn("Storage client unavailable, report archiving disabled", zap.Error(err))
			} else {
				archiver = reconciliation.NewReportArchiver(store, cfg.Storage.Bucket)
				logg.Info("Report archiving enabled", zap.String("bucket", cfg.Storage.Bucket))
			}
		}

		// 5. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		// 6. Register Features
		mgr := loader.NewManager()
		machinesFeature := machines.NewFeature(db, logg)
		reconFeature := reconciliation.NewFeature(db, cfg.Reconciliation, machinesFeature.Service(), archiver, logg)
		mgr.Register(machinesFeature)
		mgr.Register(reconFeature)

		// Middleware: RayID first so everything downstream is traceable.
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// Auth protects the API surface.
		api := app.Group("/api/v1", auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		if err := mgr.LoadAll(api); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown: stop accepting requests, then drain the
		// run executor so no run is left stuck in RUNNING.
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
		reconFeature.Worker().Stop()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
