package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/construction-crm/internal"
	"github.com/frahmantamala/construction-crm/internal/core/events"
	"github.com/frahmantamala/construction-crm/internal/employee"
	"github.com/frahmantamala/construction-crm/internal/material"
	"github.com/frahmantamala/construction-crm/internal/payroll"
	"github.com/frahmantamala/construction-crm/internal/realtime"
	feedstore "github.com/frahmantamala/construction-crm/internal/realtime/postgres"
	"github.com/frahmantamala/construction-crm/internal/transport/rest"
	"github.com/frahmantamala/construction-crm/internal/transport/swagger"
	"github.com/frahmantamala/construction-crm/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server serving the payroll reconciliation API`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger

	FeedStore  *feedstore.Store
	FeedWriter *realtime.Writer
	Directory  *employee.Directory
	Materials  *material.Service
	Payroll    *payroll.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Config,
		payroll.NewHandler(deps.Payroll),
		material.NewHandler(deps.Materials),
		deps.Logger)

	pumpCtx, stopPump := context.WithCancel(context.Background())
	defer stopPump()
	go deps.FeedStore.Pump(pumpCtx, deps.Config.Feed.PollInterval)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		stopPump()
		deps.Payroll.Close()
		deps.Materials.Close()
		deps.Directory.Close()
		deps.FeedWriter.Shutdown()

		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm over db connection: %w", err)
	}

	if err := swagger.ValidateSpec("./api/openapi.yml"); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			lg.Warn("openapi spec missing, swagger UI will be empty")
		} else {
			return nil, fmt.Errorf("openapi spec invalid: %w", err)
		}
	}

	bus := events.NewEventBus(lg)
	hub := realtime.NewHub(bus, lg)

	store := feedstore.NewStore(gormDB, hub, lg)
	if err := store.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load feed store: %w", err)
	}

	writer := realtime.NewWriter(store, realtime.WriterConfig{
		Workers:   config.Feed.WriteWorkers,
		QueueSize: config.Feed.WriteQueueSize,
	}, lg)

	directory := employee.NewDirectory(store, lg)
	directory.Start()

	materials := material.NewService(store, bus, config.Payroll.Location(), lg)
	materials.Start()

	payrollSvc := payroll.NewService(payroll.NewStore(), directory, materials, store, writer, bus, lg)
	payrollSvc.Start()

	return &Dependencies{
		Config:     config,
		Logger:     lg,
		DB:         db,
		Router:     chi.NewRouter(),
		FeedStore:  store,
		FeedWriter: writer,
		Directory:  directory,
		Materials:  materials,
		Payroll:    payrollSvc,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
