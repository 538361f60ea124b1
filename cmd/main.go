package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"ledgerid/calibration"
	"ledgerid/db"
	"ledgerid/estimator"
	"ledgerid/handlers"
	"ledgerid/logger"
	"ledgerid/oracle"
	"ledgerid/repository"
	"ledgerid/routers"
)

func main() {
	// Load config
	viper.SetConfigFile("config/config.yaml")
	viper.SetEnvPrefix("ledgerid")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()
	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("Config file error:", err)
		os.Exit(1)
	}

	appLogFile := viper.GetString("log.app_log_file")
	logLevel := viper.GetString("log.level")

	if err := logger.InitLogger(appLogFile, logLevel); err != nil {
		fmt.Println("Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Logger.Sync()

	logger.Logger.Info("Starting ledger id server...")

	table, err := loadCalibration()
	if err != nil {
		logger.Logger.Fatal("Invalid calibration table", zap.Error(err))
	}
	frontier := table.Frontier()
	logger.Logger.Info("Calibration loaded",
		zap.Int("milestones", len(table.Milestones())),
		zap.Int64("frontier_height", frontier.Height),
		zap.Int64("frontier_timestamp", frontier.Timestamp))

	// Pick where heights and timestamps come from
	var source oracle.Oracle
	var blocks repository.BlockRepositoryInterface
	switch mode := viper.GetString("oracle.mode"); mode {
	case "local":
		leveldbPath := viper.GetString("leveldb.path")
		ldb, err := db.NewLevelDB(leveldbPath)
		if err != nil {
			logger.Logger.Fatal("Failed to open leveldb", zap.Error(err))
		}
		defer ldb.Close()

		repo := repository.NewBlockRepository(ldb)
		source, blocks = repo, repo
		logger.Logger.Info("Serving heights from local index", zap.String("path", leveldbPath))
	case "http":
		url := viper.GetString("oracle.url")
		source = oracle.NewHTTPClient(url, viper.GetDuration("oracle.timeout"))
		logger.Logger.Info("Serving heights from gateway", zap.String("url", url))
	default:
		logger.Logger.Fatal("Unknown oracle mode", zap.String("mode", mode))
	}

	cfg := estimator.DefaultConfig()
	if err := viper.UnmarshalKey("estimator", &cfg); err != nil {
		logger.Logger.Fatal("Invalid estimator config", zap.Error(err))
	}

	metrics := oracle.NewMetrics(prometheus.DefaultRegisterer)
	e := estimator.New(table, oracle.Instrument(source, metrics), cfg)

	// Initialize HTTP handlers
	h := handlers.NewHandler(e, blocks)

	// Setup router
	r := mux.NewRouter()
	routers.RegisterRoutes(r, h, prometheus.DefaultGatherer)

	// HTTP Server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", viper.GetInt("server.port")),
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logger.Logger.Info("Server stopped", zap.Error(err))
		}
	}()

	logger.Logger.Info("Server running on port", zap.Int("port", viper.GetInt("server.port")))

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Logger.Info("Shutdown signal received, exiting...")
	srv.Close()
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("oracle.mode", "http")
	viper.SetDefault("oracle.timeout", "20s")
	viper.SetDefault("leveldb.path", "data/index")
	viper.SetDefault("estimator.single_call_threshold", estimator.DefaultSingleCallThreshold)
	viper.SetDefault("estimator.tolerance_seconds", estimator.DefaultToleranceSeconds)
	viper.SetDefault("estimator.fallback_average_step", estimator.DefaultFallbackAverageStep)
}

// loadCalibration uses calibration.milestones from the config when present,
// otherwise the built in table.
func loadCalibration() (*calibration.Table, error) {
	if !viper.IsSet("calibration.milestones") {
		return calibration.Default(), nil
	}

	var points []calibration.Point
	if err := viper.UnmarshalKey("calibration.milestones", &points); err != nil {
		return nil, err
	}
	return calibration.NewTable(points)
}
