package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/construction-crm/internal/core/events"
	"github.com/frahmantamala/construction-crm/internal/realtime"
	feedstore "github.com/frahmantamala/construction-crm/internal/realtime/postgres"
	"github.com/frahmantamala/construction-crm/pkg/logger"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers for the snapshot feed`,
}

// Feed pump worker command
var feedWorkerCmd = &cobra.Command{
	Use:   "feed",
	Short: "Start the snapshot feed pump",
	Long:  `Poll the backing store and republish collection snapshots to subscribers`,
	Run: func(cmd *cobra.Command, args []string) {
		startFeedWorker()
	},
}

var pollInterval time.Duration

func startFeedWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open gorm over db connection: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewEventBus(lg)
	hub := realtime.NewHub(bus, lg)
	store := feedstore.NewStore(gormDB, hub, lg)

	bus.Subscribe(events.EventTypeSnapshotChanged, func(ctx context.Context, event events.Event) error {
		lg.Info("snapshot republished",
			"event_id", event.EventID(),
			"payload", event.Payload())
		return nil
	})

	interval := config.Feed.PollInterval
	if pollInterval > 0 {
		interval = pollInterval
	}

	lg.Info("feed worker is running. Press Ctrl+C to stop.", "poll_interval", interval.String())

	ctx, cancel := context.WithCancel(context.Background())
	pumpDone := make(chan struct{})
	go func() {
		store.Pump(ctx, interval)
		close(pumpDone)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	lg.Info("received signal, shutting down feed worker", "signal", sig)
	cancel()

	select {
	case <-pumpDone:
		lg.Info("feed worker shutdown complete")
	case <-time.After(30 * time.Second):
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

func init() {
	feedWorkerCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Override feed poll interval")

	workerCmd.AddCommand(feedWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
