// AirFleet Core - Wireless AP Fleet Controller
//
// This is the main entry point for the AirFleet Core controller.
// AirFleet manages a fleet of wireless access points:
//   - UDP (and optionally MQTT) telemetry ingestion from AP agents
//   - Device registry with adoption and liveness sweeping
//   - VLAN definitions pushed to APs over WebSocket and MQTT
//   - Activity log and live WebSocket fan-out for dashboards
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/airfleet-core/migrations"

	"github.com/nerrad567/airfleet-core/internal/api"
	"github.com/nerrad567/airfleet-core/internal/device"
	"github.com/nerrad567/airfleet-core/internal/event"
	"github.com/nerrad567/airfleet-core/internal/infrastructure/config"
	"github.com/nerrad567/airfleet-core/internal/infrastructure/database"
	"github.com/nerrad567/airfleet-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/airfleet-core/internal/infrastructure/logging"
	"github.com/nerrad567/airfleet-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/airfleet-core/internal/telemetry"
	"github.com/nerrad567/airfleet-core/internal/vlan"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting AirFleet Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device registry
	deviceRepo := device.NewSQLiteRepository(db.DB)
	registry, err := device.NewRegistry(ctx, deviceRepo, log)
	if err != nil {
		return fmt.Errorf("loading device registry: %w", err)
	}
	log.Info("device registry loaded", "devices", registry.Count())

	// VLAN manager
	vlanRepo := vlan.NewSQLiteRepository(db.DB)
	vlans := vlan.NewManager(vlanRepo, log)

	// WebSocket hub, shared by the API server, the sweeper, the telemetry
	// service and the event recorder.
	hub := api.NewHub(cfg.WebSocket, log)
	hubCtx, hubCancel := context.WithCancel(ctx)
	defer hubCancel()
	go hub.Run(hubCtx)

	// Activity log
	eventRepo := event.NewSQLiteRepository(db.DB)
	events := event.NewRecorder(eventRepo, hub, log)

	// Connect to InfluxDB (optional telemetry history sink)
	var metrics telemetry.MetricsSink
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		metrics = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Telemetry ingestion pipeline
	telemetrySvc := telemetry.NewService(registry, hub, events, metrics,
		cfg.Telemetry.ProvenanceLimit, log)

	udpListener, err := telemetry.NewUDPListener(telemetrySvc, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("starting telemetry listener: %w", err)
	}
	go udpListener.Run(ctx)
	log.Info("telemetry listener started", "addr", udpListener.Addr().String())

	// Connect to MQTT broker (optional second telemetry ingress)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		if attachErr := telemetry.AttachMQTT(ctx, mqttClient, telemetrySvc, byte(cfg.MQTT.QoS)); attachErr != nil {
			return fmt.Errorf("subscribing to MQTT telemetry: %w", attachErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Liveness sweeper
	sweeper := device.NewSweeper(registry, hub, events,
		time.Duration(cfg.Sweeper.Interval)*time.Second,
		time.Duration(cfg.Sweeper.OfflineThreshold)*time.Second,
		log)
	go sweeper.Run(ctx)

	// API server (REST + WebSocket)
	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log,
		Registry:  registry,
		VLANs:     vlans,
		Events:    events,
		Telemetry: telemetrySvc,
		MQTT:      mqttClient,
		Hub:       hub,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	events.Record(ctx, event.LevelInfo,
		fmt.Sprintf("Controller %s started", cfg.Controller.Name))
	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. MQTT (if enabled)
	// 3. InfluxDB (if enabled)
	// 4. Database

	log.Info("AirFleet Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AIRFLEET_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AIRFLEET_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// The MQTT client may be nil when the broker ingress is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
