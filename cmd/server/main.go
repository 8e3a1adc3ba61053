package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/invoicedesk/invoice-manager/internal/config"
	"github.com/invoicedesk/invoice-manager/internal/export"
	"github.com/invoicedesk/invoice-manager/internal/handlers"
	"github.com/invoicedesk/invoice-manager/internal/notify"
	"github.com/invoicedesk/invoice-manager/internal/repository"
	"github.com/invoicedesk/invoice-manager/internal/service"
	"github.com/invoicedesk/invoice-manager/internal/worker"
	"github.com/invoicedesk/invoice-manager/migrations"
	"github.com/invoicedesk/invoice-manager/pkg/database"
	"github.com/invoicedesk/invoice-manager/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Personal Invoice Manager",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(context.Background(), migrations.FS); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Export.OutputDir, 0o755); err != nil {
		logger.Fatal("Failed to create export directory", zap.Error(err))
	}

	// Initialize repositories
	invoiceRepo := repository.NewInvoiceRepository(db, logger)
	itemRepo := repository.NewItemRepository(db, logger)
	customerRepo := repository.NewCustomerRepository(db, logger)
	notificationLogRepo := repository.NewNotificationLogRepository(db, logger)

	// Initialize notifier
	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notifications.Enabled {
		notifier = notify.NewDesktop(cfg.Notifications.AppName, logger)
	}

	// Initialize services and exporters
	invoiceService := service.NewInvoiceService(db, invoiceRepo, itemRepo, customerRepo, notifier, logger)
	csvExporter := export.NewCSVExporter(invoiceRepo, itemRepo, cfg.Export.OutputDir, notifier, logger)
	pdfExporter := export.NewPDFExporter(invoiceRepo, itemRepo, customerRepo, cfg.Export.OutputDir, notifier, logger)
	excelExporter := export.NewExcelExporter(invoiceRepo, cfg.Export.OutputDir, notifier, logger)

	// Initialize background workers
	scanner := worker.NewDueDateScanner(worker.DueDateScannerConfig{
		Interval:   cfg.Scheduler.DueDateScanInterval,
		WindowDays: cfg.Scheduler.DueSoonWindowDays,
	}, invoiceRepo, notificationLogRepo, notifier, logger)

	manager := worker.NewManager(logger)
	manager.Register(scanner)
	manager.StartAll(context.Background())

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.NewHandlers(invoiceService, csvExporter, pdfExporter, excelExporter, logger)
	router := handlers.NewRouter(h, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	manager.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
