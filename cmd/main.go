package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aqi_backend/internal/handlers"
	"aqi_backend/internal/logger"
	"aqi_backend/internal/metrics"
	"aqi_backend/internal/mlmodel"
	"aqi_backend/internal/publisher"
	"aqi_backend/internal/repository"
	"aqi_backend/internal/serialport"
	"aqi_backend/internal/server"
	"aqi_backend/internal/service"

	"github.com/spf13/viper"
)

// @title           AQI Sensor Backend API
// @version         1.0
// @description     Air quality prediction service: one serial sensor read per request, a tree-ensemble regression and status classification, with a stored reading history.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
func main() {
	// load config.yml first so the log level can come from it
	cfgErr := loadConfig()

	log := logger.Get(logLevel())
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	pipelineMetrics := metrics.NewPipeline()

	// The model and the serial link may both be absent; the service keeps
	// running degraded and /api/health reports what is missing.
	model := loadModel(log)
	source := openSource(log)
	defer func() { _ = source.Close() }()
	pipelineMetrics.SetSerialConnected(source.Connected())

	// context for background connects
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := connectPublisher(ctx, log)

	// wire dependencies
	repos := repository.NewRepository(db)
	deps := service.Deps{
		Repos:   repos,
		Source:  source,
		Metrics: pipelineMetrics,
		Log:     log,
		Auth: service.AuthConfig{
			SigningKey: viper.GetString("auth.signing_key"),
			TokenTTL:   viper.GetDuration("auth.token_ttl"),
		},
	}
	if model != nil {
		deps.Model = model
	}
	if pub != nil {
		deps.Publisher = pub
	}
	services := service.NewService(deps)
	apiHandler := handlers.NewHandler(services, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, source, pub, pipelineMetrics, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

func logLevel() string {
	if lvl := viper.GetString("log_level"); lvl != "" {
		return lvl
	}
	return logger.InfoLevel
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "aqi.db")
		dbPath = "aqi.db"
	}
	return repository.InitDB(dbPath)
}

// loadModel reads the exported ensemble artifact. A missing or corrupt
// artifact is logged and tolerated; predictions then fail until restart.
func loadModel(log *logger.Logger) *mlmodel.Model {
	path := viper.GetString("model.path")
	if path == "" {
		path = "saved_model/aqi_model.json"
	}
	model, err := mlmodel.Load(path)
	if err != nil {
		log.Errorw("model_load_failed", "err", err, "path", path)
		return nil
	}
	log.Infow("model_loaded", "path", path, "features", model.FeatureNames())
	return model
}

// openSource opens the configured serial device, or the bundled simulator
// when serial.simulate is set. An open failure leaves a disconnected reader
// in place so the process still serves health checks.
func openSource(log *logger.Logger) service.LineSource {
	cfg := serialport.DefaultConfig()
	if dev := viper.GetString("serial.port"); dev != "" {
		cfg.Device = dev
	}
	if baud := viper.GetInt("serial.baud"); baud > 0 {
		cfg.BaudRate = baud
	}
	if d := viper.GetDuration("serial.read_timeout"); d > 0 {
		cfg.LineTimeout = d
	}
	if d := viper.GetDuration("serial.settle_delay"); d > 0 {
		cfg.SettleDelay = d
	}
	if n := viper.GetInt("serial.read_attempts"); n > 0 {
		cfg.Attempts = n
	}

	if viper.GetBool("serial.simulate") {
		log.Infow("serial_simulator_enabled")
		return serialport.NewSimulatedSource()
	}

	reader, err := serialport.Open(cfg)
	if err != nil {
		log.Errorw("serial_open_failed", "err", err, "device", cfg.Device)
		return serialport.NewReader(nil, cfg)
	}
	log.Infow("serial_connected", "device", cfg.Device, "baud", cfg.BaudRate)
	return reader
}

// connectPublisher dials the MQTT broker when one is configured. Returns nil
// when publishing is disabled; a failed connect still returns the publisher
// since the client retries in the background.
func connectPublisher(ctx context.Context, log *logger.Logger) *publisher.MQTT {
	broker := viper.GetString("mqtt.broker")
	if broker == "" {
		return nil
	}
	cfg := publisher.MQTTConfig{
		Broker:   broker,
		Port:     viper.GetInt("mqtt.port"),
		ClientID: viper.GetString("mqtt.client_id"),
		Topic:    viper.GetString("mqtt.topic"),
	}
	pub := publisher.NewMQTT(cfg, log)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pub.Connect(connectCtx); err != nil {
		log.Errorw("mqtt_connect_failed", "err", err, "broker", broker)
	}
	return pub
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, source service.LineSource, pub *publisher.MQTT, m *metrics.Pipeline, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}

	if err := source.Close(); err != nil {
		log.Errorw("serial_close_failed", "err", err)
	}
	m.SetSerialConnected(false)
	if pub != nil {
		pub.Disconnect()
	}
}
